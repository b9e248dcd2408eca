package hierarchy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"whorep/internal/civic"
)

const exportVersion = 1

// ErrUnsupportedExport is returned for an export of an unknown version.
var ErrUnsupportedExport = errors.New("unsupported export version")

type document struct {
	Version        int                   `json:"version"`
	Address        string                `json:"address"`
	Fingerprint    string                `json:"fingerprint"`
	HomeState      string                `json:"homeState,omitempty"`
	Federal        []*civic.Officeholder `json:"federal"`
	State          []*civic.Officeholder `json:"state"`
	Local          []*civic.Officeholder `json:"local"`
	PeerDelegation []*PeerDelegate       `json:"peerDelegation"`
}

// importDocument mirrors document but reads each officeholder's level as
// plain text, which Import replaces with the level of its group.
type importDocument struct {
	Version        int                     `json:"version"`
	Address        string                  `json:"address"`
	Fingerprint    string                  `json:"fingerprint"`
	HomeState      string                  `json:"homeState,omitempty"`
	Federal        []*importedOfficeholder `json:"federal"`
	State          []*importedOfficeholder `json:"state"`
	Local          []*importedOfficeholder `json:"local"`
	PeerDelegation []*PeerDelegate         `json:"peerDelegation"`
}

type importedOfficeholder struct {
	civic.Officeholder
	Level string `json:"level"`
}

// Export serializes the hierarchy, profiles included.
func Export(h *Hierarchy) ([]byte, error) {
	doc := document{
		Version:        exportVersion,
		Address:        h.Address,
		Fingerprint:    h.Fingerprint,
		HomeState:      h.HomeState,
		Federal:        officeholdersOf(h.Group(GroupFederal)),
		State:          officeholdersOf(h.Group(GroupState)),
		Local:          officeholdersOf(h.Group(GroupLocal)),
		PeerDelegation: h.Peers(),
	}
	if doc.PeerDelegation == nil {
		doc.PeerDelegation = []*PeerDelegate{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode hierarchy: %w", err)
	}
	return data, nil
}

func officeholdersOf(g *Group) []*civic.Officeholder {
	out := []*civic.Officeholder{}
	for _, m := range g.Members {
		if o, ok := m.(*civic.Officeholder); ok {
			out = append(out, o)
		}
	}
	return out
}

// Import rebuilds a hierarchy from Export output without contacting any
// provider. Group membership decides each officeholder's level, and a
// Federal entry without a financial ID comes back as a plain officeholder.
func Import(data []byte) (*Hierarchy, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode hierarchy: %w", err)
	}
	if doc.Version != exportVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedExport, doc.Version)
	}

	h := newHierarchy(doc.Address)
	if doc.Fingerprint != "" {
		h.Fingerprint = doc.Fingerprint
	}
	if doc.HomeState != "" {
		h.HomeState = doc.HomeState
	}

	groups := []struct {
		kind  GroupKind
		level civic.Level
		items []*importedOfficeholder
	}{
		{GroupFederal, civic.Federal, doc.Federal},
		{GroupState, civic.State, doc.State},
		{GroupLocal, civic.Local, doc.Local},
	}
	for _, g := range groups {
		for _, item := range g.items {
			if item == nil {
				continue
			}
			o := &item.Officeholder
			o.Level = g.level
			if o.FinanceID == "" {
				o.Profile = nil
			}
			o.Raw = compact(o.Raw)
			h.groups[g.kind].Members = append(h.groups[g.kind].Members, o)
		}
	}
	for _, p := range doc.PeerDelegation {
		if p == nil {
			continue
		}
		h.groups[GroupPeers].Members = append(h.groups[GroupPeers].Members, p)
	}
	return h, nil
}

func compact(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
