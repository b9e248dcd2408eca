package store

import (
	"fmt"
	"time"

	"whorep/internal/civic"
	"whorep/internal/hierarchy"
)

// Lookup is one persisted address lookup. Payload is the hierarchy export.
type Lookup struct {
	Fingerprint   string
	Address       string
	HomeState     string
	Payload       []byte
	Officeholders []OfficeholderRow
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OfficeholderRow is the searchable projection of one group member.
// Address is only populated by ListOfficeholders.
type OfficeholderRow struct {
	Fingerprint string
	Address     string
	GroupKind   string
	Position    int
	Name        string
	Role        string
	Party       string
	Level       string
	FinanceID   string
}

var groupKeys = map[hierarchy.GroupKind]string{
	hierarchy.GroupFederal: "federal",
	hierarchy.GroupState:   "state",
	hierarchy.GroupLocal:   "local",
	hierarchy.GroupPeers:   "peers",
}

// GroupKey is the stored name of a group kind.
func GroupKey(kind hierarchy.GroupKind) string {
	return groupKeys[kind]
}

// LookupFromHierarchy builds the persisted form of h, payload included.
func LookupFromHierarchy(h *hierarchy.Hierarchy) (Lookup, error) {
	payload, err := hierarchy.Export(h)
	if err != nil {
		return Lookup{}, fmt.Errorf("export lookup: %w", err)
	}
	l := Lookup{
		Fingerprint: h.Fingerprint,
		Address:     h.Address,
		HomeState:   h.HomeState,
		Payload:     payload,
	}
	for _, g := range h.Groups() {
		for i, m := range g.Members {
			row := OfficeholderRow{
				Fingerprint: h.Fingerprint,
				GroupKind:   GroupKey(g.Kind),
				Position:    i + 1,
				Name:        m.DisplayName(),
				Party:       m.Affiliation().String(),
				FinanceID:   m.FinancialID(),
			}
			switch v := m.(type) {
			case *civic.Officeholder:
				row.Role, row.Level = v.Role, string(v.Level)
			case *hierarchy.PeerDelegate:
				row.Role = v.District
			}
			l.Officeholders = append(l.Officeholders, row)
		}
	}
	return l, nil
}
