package civic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks a provider record missing a structural field.
var ErrMalformed = errors.New("malformed record")

// Payload is the civic provider's response: offices pointing into a flat
// officials array.
type Payload struct {
	Offices   []Office          `json:"offices"`
	Officials []json.RawMessage `json:"officials"`
}

type Office struct {
	Name            string   `json:"name"`
	Levels          []string `json:"levels"`
	OfficialIndices []int    `json:"officialIndices"`
}

type postalAddress struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// RecordError reports one (office, official) pair that could not be built.
// Other records of the same payload are unaffected.
type RecordError struct {
	Office string
	Index  int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("office %q official %d: %v", e.Office, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Normalize produces one Officeholder per (office, official index) pair in
// payload order. Pairs with an unmapped level or a dangling index are
// skipped and reported; a nil payload yields nothing.
func Normalize(p *Payload) ([]Officeholder, []error) {
	if p == nil {
		return nil, nil
	}
	var (
		out  []Officeholder
		errs []error
	)
	for _, office := range p.Offices {
		level, levelErr := officeLevel(office)
		for _, idx := range office.OfficialIndices {
			if levelErr != nil {
				errs = append(errs, &RecordError{Office: office.Name, Index: idx, Err: levelErr})
				continue
			}
			if idx < 0 || idx >= len(p.Officials) {
				errs = append(errs, &RecordError{Office: office.Name, Index: idx, Err: fmt.Errorf("%w: official index out of range", ErrMalformed)})
				continue
			}
			holder, err := buildOfficeholder(p.Officials[idx], office.Name, level)
			if err != nil {
				errs = append(errs, &RecordError{Office: office.Name, Index: idx, Err: err})
				continue
			}
			out = append(out, holder)
		}
	}
	return out, errs
}

func officeLevel(office Office) (Level, error) {
	if len(office.Levels) == 0 {
		return "", fmt.Errorf("%w: office has no level tag", ErrMalformed)
	}
	return ParseLevel(office.Levels[0])
}

func buildOfficeholder(raw json.RawMessage, role string, level Level) (Officeholder, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Officeholder{}, fmt.Errorf("%w: official is not an object", ErrMalformed)
	}

	name := stringField(fields, "name")
	if name == "" {
		name = NameUnavailable
	}
	return Officeholder{
		Name:    name,
		Party:   PartyFromLabel(stringField(fields, "party")),
		Role:    role,
		Level:   level,
		Address: addressField(fields),
		Phone:   firstString(fields, "phones"),
		Website: firstString(fields, "urls"),
		Raw:     compactRaw(raw),
	}, nil
}

func compactRaw(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return buf.Bytes()
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var value string
	if err := json.Unmarshal(fields[key], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstString(fields map[string]json.RawMessage, key string) string {
	var values []string
	if err := json.Unmarshal(fields[key], &values); err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func addressField(fields map[string]json.RawMessage) string {
	var addresses []postalAddress
	if err := json.Unmarshal(fields["address"], &addresses); err != nil || len(addresses) == 0 {
		return AddressUnavailable
	}
	a := addresses[0]
	var parts []string
	for _, part := range []string{a.Line1, a.Line2, a.Line3, a.City, a.State, a.Zip} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return AddressUnavailable
	}
	return strings.Join(parts, " ")
}
