package civic

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "offices": [
    {"name": "President of the United States", "levels": ["country"], "officialIndices": [0]},
    {"name": "U.S. Senator", "levels": ["country"], "officialIndices": [1, 2]},
    {"name": "Governor of Michigan", "levels": ["administrativeArea1"], "officialIndices": [3]},
    {"name": "Mayor of Ann Arbor", "levels": ["locality"], "officialIndices": [4]},
    {"name": "Space Commissioner", "levels": ["orbital"], "officialIndices": [5]},
    {"name": "Ghost Office", "levels": ["country"], "officialIndices": [99]}
  ],
  "officials": [
    {"name": "Joseph R. Biden", "party": "Democratic Party", "phones": ["(202) 456-1111"], "urls": ["https://www.whitehouse.gov/"],
     "address": [{"line1": "1600 Pennsylvania Avenue Northwest", "city": "Washington", "state": "DC", "zip": "20500"}]},
    {"name": "Debbie Stabenow", "party": "Democratic Party"},
    {"name": "Gary Peters", "party": "Democratic Party", "address": []},
    {"name": "Gretchen Whitmer", "party": "Democratic Party", "phones": "not-a-list"},
    {"party": "Nonpartisan"},
    {"name": "Zed"}
  ]
}`

func decodeSample(t *testing.T) *Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &p))
	return &p
}

func TestNormalize(t *testing.T) {
	holders, errs := Normalize(decodeSample(t))
	require.Len(t, holders, 5)
	require.Len(t, errs, 2)

	president := holders[0]
	assert.Equal(t, "Joseph R. Biden", president.Name)
	assert.Equal(t, Federal, president.Level)
	assert.Equal(t, Party{Code: "D", Label: "Democratic Party"}, president.Party)
	assert.Equal(t, "1600 Pennsylvania Avenue Northwest Washington DC 20500", president.Address)
	assert.Equal(t, "(202) 456-1111", president.Phone)
	assert.Equal(t, "https://www.whitehouse.gov/", president.Website)
	assert.NotEmpty(t, president.Raw)

	assert.Equal(t, "U.S. Senator", holders[1].Role)
	assert.Equal(t, "Gary Peters", holders[2].Name)
	assert.Equal(t, AddressUnavailable, holders[2].Address)

	governor := holders[3]
	assert.Equal(t, State, governor.Level)
	assert.Empty(t, governor.Phone)

	mayor := holders[4]
	assert.Equal(t, Local, mayor.Level)
	assert.Equal(t, NameUnavailable, mayor.Name)
	assert.Equal(t, "N", mayor.Party.Code)

	assert.True(t, errors.Is(errs[0], ErrUnknownLevel))
	assert.True(t, errors.Is(errs[1], ErrMalformed))
	var recErr *RecordError
	require.True(t, errors.As(errs[1], &recErr))
	assert.Equal(t, "Ghost Office", recErr.Office)
	assert.Equal(t, 99, recErr.Index)
}

func TestNormalizeNilPayload(t *testing.T) {
	holders, errs := Normalize(nil)
	assert.Empty(t, holders)
	assert.Empty(t, errs)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	first, _ := Normalize(decodeSample(t))
	second, _ := Normalize(decodeSample(t))
	assert.Equal(t, first, second)
}

func TestNormalizeOfficeWithoutLevel(t *testing.T) {
	p := &Payload{
		Offices:   []Office{{Name: "Clerk", OfficialIndices: []int{0}}},
		Officials: []json.RawMessage{json.RawMessage(`{"name":"A"}`)},
	}
	holders, errs := Normalize(p)
	assert.Empty(t, holders)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformed)
}

func TestOfficeholderDetails(t *testing.T) {
	o := Officeholder{Name: "Gary Peters", Role: "U.S. Senator", Level: Federal, Address: AddressUnavailable}
	assert.Equal(t, "Gary Peters - U.S. Senator - Unknown", o.Summary())
	details := o.Details()
	assert.Equal(t, Field{Label: "Phone Number", Value: NotAvailable}, details[4])
}
