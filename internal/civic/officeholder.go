package civic

import (
	"encoding/json"
	"fmt"

	"whorep/internal/finance"
)

const (
	NameUnavailable    = "Name unavailable"
	AddressUnavailable = "No address available"
	NotAvailable       = "Not available"
)

// Officeholder is one elected or appointed official holding one office.
// FinanceID is empty until the resolver matches the officeholder against
// the financial roster, and Profile is nil until enrichment.
type Officeholder struct {
	Name      string           `json:"name"`
	Party     Party            `json:"party"`
	Role      string           `json:"role"`
	Level     Level            `json:"level"`
	Address   string           `json:"address"`
	Phone     string           `json:"phone,omitempty"`
	Website   string           `json:"website,omitempty"`
	FinanceID string           `json:"financeId,omitempty"`
	Profile   *finance.Profile `json:"profile,omitempty"`
	Raw       json.RawMessage  `json:"raw,omitempty"`
}

// Field is one labelled line of an officeholder's details.
type Field struct {
	Label string
	Value string
}

func (o *Officeholder) DisplayName() string                { return o.Name }
func (o *Officeholder) Affiliation() Party                 { return o.Party }
func (o *Officeholder) FinancialID() string                { return o.FinanceID }
func (o *Officeholder) FinancialProfile() *finance.Profile { return o.Profile }

// AttachProfile sets the profile once; later calls are ignored.
func (o *Officeholder) AttachProfile(p *finance.Profile) {
	if o.Profile == nil {
		o.Profile = p
	}
}

// Resolved reports whether a financial identifier is attached.
func (o *Officeholder) Resolved() bool {
	return o.FinanceID != ""
}

// Summary renders "Name - Role - Party".
func (o *Officeholder) Summary() string {
	return fmt.Sprintf("%s - %s - %s", o.Name, o.Role, o.Party)
}

func (o *Officeholder) Details() []Field {
	fields := []Field{
		{Label: "Position", Value: o.Role},
		{Label: "Party", Value: o.Party.String()},
		{Label: "Level", Value: string(o.Level)},
		{Label: "Address", Value: o.Address},
		{Label: "Phone Number", Value: orNotAvailable(o.Phone)},
		{Label: "Website", Value: orNotAvailable(o.Website)},
	}
	if o.FinanceID != "" {
		fields = append(fields, Field{Label: "Finance ID", Value: o.FinanceID})
	}
	return fields
}

func orNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}
	return value
}
