package hierarchy

import (
	"fmt"
	"strings"

	"whorep/internal/civic"
	"whorep/internal/finance"
	"whorep/internal/roster"
)

// PeerDelegate is a member of Congress from the address's state, taken from
// the financial roster.
type PeerDelegate struct {
	Name      string           `json:"name"`
	FinanceID string           `json:"financeId"`
	Party     civic.Party      `json:"party"`
	District  string           `json:"district"`
	Profile   *finance.Profile `json:"profile,omitempty"`
}

func (p *PeerDelegate) DisplayName() string                { return p.Name }
func (p *PeerDelegate) Affiliation() civic.Party           { return p.Party }
func (p *PeerDelegate) FinancialID() string                { return p.FinanceID }
func (p *PeerDelegate) FinancialProfile() *finance.Profile { return p.Profile }

func (p *PeerDelegate) AttachProfile(profile *finance.Profile) {
	if p.Profile == nil {
		p.Profile = profile
	}
}

func (p *PeerDelegate) Summary() string {
	return fmt.Sprintf("%s - %s - %s", p.Name, p.District, p.Party)
}

func (p *PeerDelegate) Details() []civic.Field {
	return []civic.Field{
		{Label: "District", Value: p.District},
		{Label: "Party", Value: p.Party.String()},
		{Label: "Finance ID", Value: p.FinanceID},
	}
}

var peerParties = map[string]civic.Party{
	"d":                {Code: "D", Label: "Democratic"},
	"democratic party": {Code: "D", Label: "Democratic"},
	"r":                {Code: "R", Label: "Republican"},
	"republican party": {Code: "R", Label: "Republican"},
	"i":                {Code: "I", Label: "Independent"},
	"independent":      {Code: "I", Label: "Independent"},
}

// PeerParty normalizes a roster party code. Anything outside the table is
// Unknown.
func PeerParty(code string) civic.Party {
	if p, ok := peerParties[strings.ToLower(strings.TrimSpace(code))]; ok {
		return p
	}
	return civic.Party{Label: civic.UnknownParty}
}

// PeerDelegation returns a delegate for every roster identity of the state
// detected in address, in roster order. An address without a recognizable
// state yields none.
func PeerDelegation(address string, r roster.Roster) []*PeerDelegate {
	state, ok := DetectState(address)
	if !ok {
		return nil
	}
	var out []*PeerDelegate
	for _, id := range r.ByState(state) {
		out = append(out, &PeerDelegate{
			Name:      id.FirstLast(),
			FinanceID: id.ID,
			Party:     PeerParty(id.Party),
			District:  id.District(),
		})
	}
	return out
}
