// Package hierarchy assembles resolved officeholders and the peer
// delegation into the four-group tree a session walks.
package hierarchy

import (
	"whorep/internal/cache"
	"whorep/internal/civic"
	"whorep/internal/finance"
)

// GroupKind identifies one of the four groups, in display order.
type GroupKind int

const (
	GroupFederal GroupKind = iota
	GroupState
	GroupLocal
	GroupPeers
)

// GroupKinds lists the groups in display order.
var GroupKinds = []GroupKind{GroupFederal, GroupState, GroupLocal, GroupPeers}

func (k GroupKind) String() string {
	switch k {
	case GroupFederal:
		return "Federal"
	case GroupState:
		return "State"
	case GroupLocal:
		return "Local"
	case GroupPeers:
		return "Peer Delegation"
	default:
		return "Unknown"
	}
}

// Valid reports whether k names one of the four groups.
func (k GroupKind) Valid() bool {
	return k >= GroupFederal && k <= GroupPeers
}

func kindForLevel(level civic.Level) (GroupKind, bool) {
	switch level {
	case civic.Federal:
		return GroupFederal, true
	case civic.State:
		return GroupState, true
	case civic.Local:
		return GroupLocal, true
	default:
		return 0, false
	}
}

// Member is an entity listed in a group: a *civic.Officeholder or a
// *PeerDelegate.
type Member interface {
	DisplayName() string
	Affiliation() civic.Party
	FinancialID() string
	FinancialProfile() *finance.Profile
	AttachProfile(*finance.Profile)
	Summary() string
	Details() []civic.Field
}

type Group struct {
	Kind    GroupKind
	Members []Member
}

// Hierarchy is the result of one address lookup. Only financial profiles
// change after assembly.
type Hierarchy struct {
	Address     string
	Fingerprint string
	HomeState   string
	groups      [4]Group
}

// Assemble partitions officeholders by level, keeping provider order within
// a level, and adds the peer delegation as the fourth group.
func Assemble(address string, officeholders []civic.Officeholder, peers []*PeerDelegate) *Hierarchy {
	h := newHierarchy(address)
	for i := range officeholders {
		holder := officeholders[i]
		kind, ok := kindForLevel(holder.Level)
		if !ok {
			continue
		}
		h.groups[kind].Members = append(h.groups[kind].Members, &holder)
	}
	for _, peer := range peers {
		h.groups[GroupPeers].Members = append(h.groups[GroupPeers].Members, peer)
	}
	return h
}

func newHierarchy(address string) *Hierarchy {
	h := &Hierarchy{
		Address:     address,
		Fingerprint: cache.Fingerprint(address),
	}
	h.HomeState, _ = DetectState(address)
	for _, kind := range GroupKinds {
		h.groups[kind].Kind = kind
	}
	return h
}

// Group returns the group of the given kind.
func (h *Hierarchy) Group(kind GroupKind) *Group {
	if !kind.Valid() {
		return nil
	}
	return &h.groups[kind]
}

// Groups returns the four groups in display order.
func (h *Hierarchy) Groups() []*Group {
	out := make([]*Group, 0, len(GroupKinds))
	for _, kind := range GroupKinds {
		out = append(out, &h.groups[kind])
	}
	return out
}

// Officeholders returns every civic officeholder of the Federal, State and
// Local groups.
func (h *Hierarchy) Officeholders() []*civic.Officeholder {
	var out []*civic.Officeholder
	for _, kind := range []GroupKind{GroupFederal, GroupState, GroupLocal} {
		for _, m := range h.groups[kind].Members {
			if o, ok := m.(*civic.Officeholder); ok {
				out = append(out, o)
			}
		}
	}
	return out
}

// Peers returns the peer delegation.
func (h *Hierarchy) Peers() []*PeerDelegate {
	var out []*PeerDelegate
	for _, m := range h.groups[GroupPeers].Members {
		if p, ok := m.(*PeerDelegate); ok {
			out = append(out, p)
		}
	}
	return out
}

// RootTally counts the parties of the address's own representation: the
// Federal, State and Local groups.
func (h *Hierarchy) RootTally() Tally {
	var members []Member
	for _, kind := range []GroupKind{GroupFederal, GroupState, GroupLocal} {
		members = append(members, h.groups[kind].Members...)
	}
	return Count(members)
}

// Tally counts the parties of one group.
func (g *Group) Tally() Tally {
	return Count(g.Members)
}
