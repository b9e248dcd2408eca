package hierarchy

import "strings"

type usState struct {
	code string
	name string
}

// states is the fixed table of the fifty states and the District of
// Columbia.
var states = []usState{
	{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"DC", "District of Columbia"}, {"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"},
	{"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"},
	{"KS", "Kansas"}, {"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"},
	{"MD", "Maryland"}, {"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"},
	{"MS", "Mississippi"}, {"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"},
	{"NV", "Nevada"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"},
	{"NY", "New York"}, {"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"},
	{"OK", "Oklahoma"}, {"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"},
	{"SC", "South Carolina"}, {"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"},
	{"UT", "Utah"}, {"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"},
	{"WV", "West Virginia"}, {"WI", "Wisconsin"}, {"WY", "Wyoming"},
}

var addressCleaner = strings.NewReplacer(",", " ", ".", "")

// DetectState finds the state an address lies in. State names and codes
// match case-insensitively as whole whitespace-delimited words. When several
// match, the one ending furthest right wins, and the longer one on a tie,
// so "Kansas City, MO" is Missouri and "West Virginia" is not Virginia.
func DetectState(address string) (string, bool) {
	text := " " + strings.Join(strings.Fields(strings.ToLower(addressCleaner.Replace(address))), " ") + " "

	best, bestEnd, bestLen := "", -1, 0
	for _, s := range states {
		for _, word := range []string{s.name, s.code} {
			token := " " + strings.ToLower(word) + " "
			idx := strings.LastIndex(text, token)
			if idx < 0 {
				continue
			}
			end := idx + len(token)
			if end > bestEnd || (end == bestEnd && len(token) > bestLen) {
				best, bestEnd, bestLen = s.code, end, len(token)
			}
		}
	}
	return best, best != ""
}
