package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whorep/internal/civic"
	"whorep/internal/hierarchy"
)

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func sampleLookup() Lookup {
	return Lookup{
		Fingerprint: "abc123",
		Address:     "Ann Arbor, MI",
		HomeState:   "MI",
		Payload:     []byte(`{"version":1}`),
		Officeholders: []OfficeholderRow{
			{GroupKind: "federal", Position: 1, Name: "Debbie Stabenow", Role: "U.S. Senator", Party: "Democratic Party", Level: "Federal", FinanceID: "N00004118"},
			{GroupKind: "peers", Position: 1, Name: "Tim Walberg", Role: "MI - 05", Party: "Republican", FinanceID: "N00002222"},
		},
	}
}

func TestSaveLookupReplacesRowsInOneTransaction(t *testing.T) {
	s, mock := newMock(t)
	l := sampleLookup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lookups")).
		WithArgs("abc123", "Ann Arbor, MI", "MI", `{"version":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM officeholders WHERE fingerprint=$1")).
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO officeholders")).
		WithArgs("abc123", "federal", 1, "Debbie Stabenow", "U.S. Senator", "Democratic Party", "Federal", "N00004118").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO officeholders")).
		WithArgs("abc123", "peers", 1, "Tim Walberg", "MI - 05", "Republican", "", "N00002222").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveLookup(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLookupRollsBackOnFailure(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lookups")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM officeholders")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO officeholders")).WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	err := s.SaveLookup(context.Background(), sampleLookup())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert officeholder federal/1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLookup(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT fingerprint, address, home_state, payload::text, created_at, updated_at")).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "address", "home_state", "payload", "created_at", "updated_at"}).
			AddRow("abc123", "Ann Arbor, MI", "MI", `{"version":1}`, created, created))

	l, err := s.GetLookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Ann Arbor, MI", l.Address)
	assert.Equal(t, []byte(`{"version":1}`), l.Payload)
	assert.Equal(t, created, l.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT fingerprint")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "address", "home_state", "payload", "created_at", "updated_at"}))
	_, err = s.GetLookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOfficeholders(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM officeholders o")).
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "address", "group_kind", "position", "name", "role", "party", "level", "finance_id"}).
			AddRow("abc123", "Ann Arbor, MI", "federal", 1, "Debbie Stabenow", "U.S. Senator", "Democratic Party", "Federal", "N00004118").
			AddRow("abc123", "Ann Arbor, MI", "state", 1, "Gretchen Whitmer", "Governor", "Democratic Party", "State", ""))

	rows, err := s.ListOfficeholders(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, OfficeholderRow{
		Fingerprint: "abc123", Address: "Ann Arbor, MI", GroupKind: "state", Position: 1,
		Name: "Gretchen Whitmer", Role: "Governor", Party: "Democratic Party", Level: "State",
	}, rows[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsSkipsRecordedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"0001_first.up.sql":    {Data: []byte("CREATE TABLE a (id INT)")},
		"0001_first.down.sql":  {Data: []byte("DROP TABLE a")},
		"0002_second.up.sql":   {Data: []byte("CREATE TABLE b (id INT)")},
		"0002_second.down.sql": {Data: []byte("DROP TABLE b")},
		"README.md":            {Data: []byte("notes")},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("0001_first.up.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("0002_second.up.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations(version) VALUES($1)")).WithArgs("0002_second.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := applyMigrations(context.Background(), db, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_second.up.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupFromHierarchy(t *testing.T) {
	holders := []civic.Officeholder{
		{Name: "Debbie Stabenow", Role: "U.S. Senator", Level: civic.Federal, Party: civic.PartyFromLabel("Democratic Party"), FinanceID: "N00004118"},
		{Name: "Jocelyn Benson", Role: "Secretary of State", Level: civic.State},
	}
	peers := []*hierarchy.PeerDelegate{{Name: "Tim Walberg", FinanceID: "N00002222", Party: hierarchy.PeerParty("R"), District: "MI - 05"}}
	h := hierarchy.Assemble("Ann Arbor, MI", holders, peers)

	l, err := LookupFromHierarchy(h)
	require.NoError(t, err)
	assert.Equal(t, h.Fingerprint, l.Fingerprint)
	assert.Equal(t, "MI", l.HomeState)
	assert.Contains(t, string(l.Payload), `"version": 1`)
	assert.Equal(t, []OfficeholderRow{
		{Fingerprint: h.Fingerprint, GroupKind: "federal", Position: 1, Name: "Debbie Stabenow", Role: "U.S. Senator", Party: "Democratic Party", Level: "Federal", FinanceID: "N00004118"},
		{Fingerprint: h.Fingerprint, GroupKind: "state", Position: 1, Name: "Jocelyn Benson", Role: "Secretary of State", Party: "Unknown", Level: "State"},
		{Fingerprint: h.Fingerprint, GroupKind: "peers", Position: 1, Name: "Tim Walberg", Role: "MI - 05", Party: "Republican", FinanceID: "N00002222"},
	}, l.Officeholders)
}
