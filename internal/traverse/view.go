package traverse

import (
	"fmt"

	"whorep/internal/finance"
	"whorep/internal/hierarchy"
)

// Option is one numbered choice.
type Option struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
}

// View is a front-end independent rendering of the current state.
type View struct {
	State   State                  `json:"state"`
	Title   string                 `json:"title"`
	Lines   []string               `json:"lines,omitempty"`
	Options []Option               `json:"options,omitempty"`
	Prompt  string                 `json:"prompt,omitempty"`
	Tally   []hierarchy.TallyEntry `json:"tally,omitempty"`
}

func numbered(labels ...string) []Option {
	out := make([]Option, len(labels))
	for i, label := range labels {
		out[i] = Option{Number: i + 1, Label: label}
	}
	return out
}

// View renders the current state.
func (m *Machine) View() View {
	switch m.state {
	case StateRoot:
		return m.rootView()
	case StateGroup:
		return m.groupView()
	case StateRoster:
		return m.rosterView()
	case StateDetail:
		return m.detailView()
	case StateFinancial:
		return m.financialView()
	default:
		return View{State: StateEnded, Title: "Thank you!"}
	}
}

func (m *Machine) rootView() View {
	v := View{
		State:  StateRoot,
		Title:  "Your officeholders",
		Prompt: "Select a group, 'tally' for party affiliation, or 'exit'",
	}
	if m.h.Address != "" {
		v.Lines = append(v.Lines, "Address: "+m.h.Address)
	}
	labels := make([]string, 0, len(hierarchy.GroupKinds))
	for _, g := range m.h.Groups() {
		labels = append(labels, fmt.Sprintf("%s (%d)", g.Kind, len(g.Members)))
	}
	v.Options = numbered(labels...)
	return v
}

func (m *Machine) groupView() View {
	g := m.h.Group(m.group)
	v := View{
		State:   StateGroup,
		Title:   fmt.Sprintf("Your %s officeholders", g.Kind),
		Options: numbered("List members"),
		Prompt:  "Select an option, 'tally' or 'back'",
	}
	switch m.group {
	case hierarchy.GroupFederal:
		withProfile := 0
		for _, member := range g.Members {
			if member.FinancialID() != "" {
				withProfile++
			}
		}
		v.Lines = []string{
			fmt.Sprintf("More information is available for %d federal officeholders.", len(g.Members)),
			fmt.Sprintf("Financial information is available for %d of them.", withProfile),
		}
	case hierarchy.GroupPeers:
		v.Title = "Members of Congress from your state"
		if m.h.HomeState != "" {
			v.Title += " (" + m.h.HomeState + ")"
		}
		v.Lines = []string{fmt.Sprintf("%d members of Congress share your state.", len(g.Members))}
	default:
		v.Lines = []string{fmt.Sprintf("More information is available for %d %s officeholders.", len(g.Members), g.Kind)}
	}
	return v
}

func (m *Machine) rosterView() View {
	members := m.members()
	labels := make([]string, len(members))
	for i, member := range members {
		labels[i] = member.Summary()
	}
	v := View{
		State:   StateRoster,
		Title:   fmt.Sprintf("%s officeholders", m.group),
		Options: numbered(labels...),
		Prompt:  "Select the number of an officeholder or 'back'",
	}
	if len(members) == 0 {
		v.Lines = []string{"No officeholders in this group."}
	}
	return v
}

func (m *Machine) detailView() View {
	member := m.current()
	v := View{
		State:  StateDetail,
		Title:  member.DisplayName(),
		Prompt: "Enter 'back' to return to the list",
	}
	for _, f := range member.Details() {
		v.Lines = append(v.Lines, f.Label+": "+f.Value)
	}
	if member.FinancialProfile() != nil {
		v.Options = numbered("Campaign finance")
		v.Prompt = "Select an option or 'back'"
	}
	return v
}

func (m *Machine) financialView() View {
	name := m.current().DisplayName()
	v := View{
		State:   StateFinancial,
		Title:   name + "'s campaign finance",
		Options: numbered("Top contributors", "Top industries"),
		Prompt:  "Select an option or 'back'",
	}
	profile := m.profile()
	switch m.listing {
	case ListingContributors:
		v.Lines = append(v.Lines, "Top contributors to "+name+":")
		v.Lines = append(v.Lines, listing(profile.Contributors)...)
		v.Lines = append(v.Lines, finance.ContributorNotice)
	case ListingIndustries:
		v.Lines = append(v.Lines, "Top industries supporting "+name+":")
		v.Lines = append(v.Lines, listing(profile.Industries)...)
	}
	return v
}

func listing(rows []finance.Contribution) []string {
	if len(rows) == 0 {
		return []string{"No data reported."}
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = fmt.Sprintf("%d. %s", i+1, row)
	}
	return out
}
