package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no lookup exists for a fingerprint.
var ErrNotFound = errors.New("lookup not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveLookup upserts the lookup and replaces its officeholder rows in one
// transaction.
func (s *PostgresStore) SaveLookup(ctx context.Context, l Lookup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save lookup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO lookups (fingerprint, address, home_state, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO UPDATE
		SET address = EXCLUDED.address,
			home_state = EXCLUDED.home_state,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, l.Fingerprint, l.Address, l.HomeState, string(l.Payload)); err != nil {
		return fmt.Errorf("upsert lookup: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM officeholders WHERE fingerprint=$1`, l.Fingerprint); err != nil {
		return fmt.Errorf("clear officeholders: %w", err)
	}

	for _, row := range l.Officeholders {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO officeholders (fingerprint, group_kind, position, name, role, party, level, finance_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, l.Fingerprint, row.GroupKind, row.Position, row.Name, row.Role, row.Party, row.Level, row.FinanceID); err != nil {
			return fmt.Errorf("insert officeholder %s/%d: %w", row.GroupKind, row.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save lookup: %w", err)
	}
	return nil
}

// GetLookup returns the stored lookup without its officeholder rows.
func (s *PostgresStore) GetLookup(ctx context.Context, fingerprint string) (Lookup, error) {
	var (
		l       Lookup
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, address, home_state, payload::text, created_at, updated_at
		FROM lookups
		WHERE fingerprint=$1
	`, fingerprint).Scan(&l.Fingerprint, &l.Address, &l.HomeState, &payload, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Lookup{}, ErrNotFound
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("get lookup: %w", err)
	}
	l.Payload = []byte(payload)
	return l, nil
}

// ListOfficeholders returns every stored officeholder row with its lookup
// address, for reindexing.
func (s *PostgresStore) ListOfficeholders(ctx context.Context) ([]OfficeholderRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.fingerprint, l.address, o.group_kind, o.position, o.name, o.role, o.party, o.level, o.finance_id
		FROM officeholders o
		JOIN lookups l ON l.fingerprint = o.fingerprint
		ORDER BY o.fingerprint, o.group_kind, o.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list officeholders: %w", err)
	}
	defer rows.Close()

	out := make([]OfficeholderRow, 0)
	for rows.Next() {
		var r OfficeholderRow
		if err := rows.Scan(&r.Fingerprint, &r.Address, &r.GroupKind, &r.Position, &r.Name, &r.Role, &r.Party, &r.Level, &r.FinanceID); err != nil {
			return nil, fmt.Errorf("scan officeholder: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate officeholders: %w", err)
	}
	return out, nil
}
