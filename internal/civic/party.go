package civic

import "strings"

// UnknownParty is the tally bucket for officeholders without a party code.
const UnknownParty = "Unknown"

// Party is an affiliation as a short code plus the provider's label.
// Code is empty when the label is absent or not in the code table.
type Party struct {
	Code  string `json:"code,omitempty"`
	Label string `json:"label,omitempty"`
}

var partyCodes = map[string]string{
	"democratic party":  "D",
	"democratic":        "D",
	"democrat":          "D",
	"d":                 "D",
	"republican party":  "R",
	"republican":        "R",
	"r":                 "R",
	"independent":       "I",
	"i":                 "I",
	"nonpartisan":       "N",
	"libertarian party": "L",
	"libertarian":       "L",
	"green party":       "G",
	"green":             "G",
}

// PartyFromLabel builds a Party from a provider label.
func PartyFromLabel(label string) Party {
	label = strings.TrimSpace(label)
	if label == "" {
		return Party{}
	}
	return Party{Code: partyCodes[strings.ToLower(label)], Label: label}
}

// TallyKey is the bucket the party is counted under.
func (p Party) TallyKey() string {
	if p.Code == "" {
		return UnknownParty
	}
	return p.Code
}

func (p Party) String() string {
	switch {
	case p.Label != "":
		return p.Label
	case p.Code != "":
		return p.Code
	default:
		return UnknownParty
	}
}
