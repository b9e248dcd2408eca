package search

import (
	"fmt"

	"whorep/internal/civic"
	"whorep/internal/hierarchy"
	"whorep/internal/store"
)

// Result is a single search hit returned to the caller.
type Result struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Address     string `json:"address"`
	Group       string `json:"group"`
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Party       string `json:"party"`
	Level       string `json:"level,omitempty"`
	FinanceID   string `json:"financeId,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

// Query describes a search request. Group filters to one stored group key
// (federal, state, local, peers).
type Query struct {
	Text   string
	Group  string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Record is the document indexed for one group member.
type Record struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Address     string `json:"address"`
	HomeState   string `json:"homeState,omitempty"`
	Group       string `json:"group"`
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Party       string `json:"party"`
	Level       string `json:"level,omitempty"`
	FinanceID   string `json:"financeId,omitempty"`
}

func recordID(fingerprint, group string, position int) string {
	return fmt.Sprintf("%s-%s-%d", fingerprint, group, position)
}

// RecordsFromHierarchy flattens every group member of h into index records.
func RecordsFromHierarchy(h *hierarchy.Hierarchy) []Record {
	var out []Record
	for _, g := range h.Groups() {
		group := store.GroupKey(g.Kind)
		for i, m := range g.Members {
			r := Record{
				ID:          recordID(h.Fingerprint, group, i+1),
				Fingerprint: h.Fingerprint,
				Address:     h.Address,
				HomeState:   h.HomeState,
				Group:       group,
				Position:    i + 1,
				Name:        m.DisplayName(),
				Party:       m.Affiliation().String(),
				FinanceID:   m.FinancialID(),
			}
			switch v := m.(type) {
			case *civic.Officeholder:
				r.Role, r.Level = v.Role, string(v.Level)
			case *hierarchy.PeerDelegate:
				r.Role = v.District
			}
			out = append(out, r)
		}
	}
	return out
}

func recordFromRow(row store.OfficeholderRow) Record {
	return Record{
		ID:          recordID(row.Fingerprint, row.GroupKind, row.Position),
		Fingerprint: row.Fingerprint,
		Address:     row.Address,
		Group:       row.GroupKind,
		Position:    row.Position,
		Name:        row.Name,
		Role:        row.Role,
		Party:       row.Party,
		Level:       row.Level,
		FinanceID:   row.FinanceID,
	}
}
