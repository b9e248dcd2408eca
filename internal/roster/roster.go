// Package roster loads the congressional financial-identity roster: one row
// per member of Congress with the finance provider's candidate ID.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Identity is one roster row. Name is "Last, First[, Suffix]" and
// Jurisdiction starts with the two-letter state code ("MI05", "MIS1").
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Jurisdiction string `json:"jurisdiction"`
}

// Surname is the first comma-delimited token of Name.
func (i Identity) Surname() string {
	last, _, _ := strings.Cut(i.Name, ",")
	return strings.TrimSpace(last)
}

// FirstLast reorders Name to "First Last", dropping any suffix.
func (i Identity) FirstLast() string {
	parts := strings.Split(i.Name, ",")
	if len(parts) < 2 {
		return strings.TrimSpace(i.Name)
	}
	first := strings.TrimSpace(parts[1])
	last := strings.TrimSpace(parts[0])
	if first == "" {
		return last
	}
	return first + " " + last
}

func (i Identity) State() string {
	if len(i.Jurisdiction) < 2 {
		return strings.ToUpper(i.Jurisdiction)
	}
	return strings.ToUpper(i.Jurisdiction[:2])
}

// District renders the jurisdiction as "ST - rest".
func (i Identity) District() string {
	rest := ""
	if len(i.Jurisdiction) > 2 {
		rest = strings.TrimSpace(i.Jurisdiction[2:])
	}
	return i.State() + " - " + rest
}

// Roster is the ordered list of identities as read from the resource.
type Roster []Identity

// ByState returns the identities whose jurisdiction starts with state.
func (r Roster) ByState(state string) []Identity {
	state = strings.ToUpper(strings.TrimSpace(state))
	var out []Identity
	for _, id := range r {
		if id.State() == state {
			out = append(out, id)
		}
	}
	return out
}

// Load reads a CSV roster with columns id,name,party,jurisdiction. A first
// row whose id column reads "CID" or "id" is treated as a header.
func Load(r io.Reader) (Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out Roster
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster line %d: %w", line, err)
		}
		if line == 1 && isHeader(row) {
			continue
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("roster line %d: want 4 fields, got %d", line, len(row))
		}
		out = append(out, Identity{
			ID:           strings.TrimSpace(row[0]),
			Name:         strings.TrimSpace(row[1]),
			Party:        strings.TrimSpace(row[2]),
			Jurisdiction: strings.TrimSpace(row[3]),
		})
	}
	return out, nil
}

func LoadFile(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "cid" || first == "id"
}
