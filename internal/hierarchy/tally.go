package hierarchy

import "sort"

// Tally maps a party key to the number of members in it.
type Tally map[string]int

type TallyEntry struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}

// Count recounts members by party. Nothing is cached between calls.
func Count(members []Member) Tally {
	t := Tally{}
	for _, m := range members {
		t[m.Affiliation().TallyKey()]++
	}
	return t
}

func (t Tally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Entries lists the tally by descending count, then party key.
func (t Tally) Entries() []TallyEntry {
	out := make([]TallyEntry, 0, len(t))
	for party, n := range t {
		out = append(out, TallyEntry{Party: party, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Party < out[j].Party
	})
	return out
}
