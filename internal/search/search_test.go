package search

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	meili "github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whorep/internal/civic"
	"whorep/internal/hierarchy"
	"whorep/internal/store"
)

func TestRecordsFromHierarchy(t *testing.T) {
	holders := []civic.Officeholder{
		{Name: "Debbie Stabenow", Role: "U.S. Senator", Level: civic.Federal, Party: civic.PartyFromLabel("Democratic Party"), FinanceID: "N00004118"},
		{Name: "Christopher Taylor", Role: "Mayor of Ann Arbor", Level: civic.Local},
	}
	peers := []*hierarchy.PeerDelegate{{Name: "Tim Walberg", FinanceID: "N00002222", Party: hierarchy.PeerParty("R"), District: "MI - 05"}}
	h := hierarchy.Assemble("Ann Arbor, MI", holders, peers)

	records := RecordsFromHierarchy(h)
	require.Len(t, records, 3)
	assert.Equal(t, Record{
		ID: h.Fingerprint + "-federal-1", Fingerprint: h.Fingerprint, Address: "Ann Arbor, MI", HomeState: "MI",
		Group: "federal", Position: 1, Name: "Debbie Stabenow", Role: "U.S. Senator", Party: "Democratic Party",
		Level: "Federal", FinanceID: "N00004118",
	}, records[0])
	assert.Equal(t, "local", records[1].Group)
	assert.Equal(t, "Unknown", records[1].Party)
	assert.Equal(t, "MI - 05", records[2].Role)
	assert.Equal(t, h.Fingerprint+"-peers-1", records[2].ID)
}

func TestPgFTSSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM officeholders o WHERE")).
		WithArgs("senator", "federal").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM officeholders o")).
		WithArgs("senator", "federal").
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "address", "group_kind", "position", "name", "role", "party", "level", "finance_id", "snippet"}).
			AddRow("abc", "Ann Arbor, MI", "federal", 2, "Debbie Stabenow", "U.S. Senator", "Democratic Party", "Federal", "N00004118", "U.S. <b>Senator</b>"))

	results, total, err := NewPgFTS(db).Search(context.Background(), Query{Text: "senator", Group: "federal", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "abc-federal-2", results[0].ID)
	assert.Equal(t, "U.S. <b>Senator</b>", results[0].Snippet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgFTSBlankQuery(t *testing.T) {
	results, total, err := NewPgFTS(nil).Search(context.Background(), Query{Text: "   "})
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, total)
}

func TestServiceFallsBackToPgFTS(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*)")).WillReturnError(errors.New("boom"))

	svc := NewService(nil, NewPgFTS(db), nil, nil)
	resp := svc.Search(context.Background(), Query{Text: "mayor"})
	assert.Equal(t, Response{Results: []Result{}, Query: "mayor"}, resp)

	empty := NewService(nil, nil, nil, nil).Search(context.Background(), Query{Text: "mayor"})
	assert.NotNil(t, empty.Results)
	assert.Zero(t, empty.Total)
}

func TestServiceIndexWithoutMeili(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	h := hierarchy.Assemble("Ann Arbor, MI", nil, nil)
	assert.ErrorIs(t, svc.IndexHierarchy(h), ErrIndexUnavailable)
	svc.ReindexAllFromPG(context.Background())
}

func TestRecordFromRow(t *testing.T) {
	r := recordFromRow(store.OfficeholderRow{Fingerprint: "abc", Address: "x", GroupKind: "state", Position: 3, Name: "N"})
	assert.Equal(t, "abc-state-3", r.ID)
	assert.Equal(t, "state", r.Group)
}

func TestHitToResult(t *testing.T) {
	raw := func(v any) json.RawMessage {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return b
	}
	hit := meili.Hit{
		"id":          raw("abc-federal-1"),
		"fingerprint": raw("abc"),
		"group":       raw("federal"),
		"position":    raw(1),
		"name":        raw("Debbie Stabenow"),
		"role":        raw("U.S. Senator"),
		"_formatted":  raw(map[string]any{"role": "U.S. <mark>Senator</mark>", "position": "1"}),
	}
	r := hitToResult(hit)
	assert.Equal(t, 1, r.Position)
	assert.Equal(t, "U.S. <mark>Senator</mark>", r.Snippet)
	assert.Equal(t, "Debbie Stabenow", r.Name)

	plain := hitToResult(meili.Hit{"role": raw("Governor")})
	assert.Equal(t, "Governor", plain.Snippet)
}

func TestSearchRequestFilters(t *testing.T) {
	sr := searchRequest(Query{Text: "smith", Group: "peers"})
	assert.Equal(t, int64(20), sr.Limit)
	assert.Equal(t, "smith", sr.Query)
	assert.Equal(t, []string{`group = "peers"`}, sr.Filter)
	assert.Nil(t, searchRequest(Query{Text: "smith"}).Filter)
}
