package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS searches the officeholders table with PostgreSQL full-text search.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true: without Postgres there is nothing to search.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search ranks officeholders with plainto_tsquery and ts_rank and
// highlights the role with ts_headline.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "o.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.Group != "" {
		where += " AND o.group_kind = $2"
		args = append(args, q.Group)
	}

	var total int
	countSQL := "SELECT count(*) FROM officeholders o WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`SELECT o.fingerprint, l.address, o.group_kind, o.position, o.name, o.role, o.party, o.level, o.finance_id,
			ts_headline('english', coalesce(o.role, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=20') AS snippet
		FROM officeholders o
		JOIN lookups l ON l.fingerprint = o.fingerprint
		WHERE %s
		ORDER BY ts_rank(o.fts, plainto_tsquery('english', $1)) DESC, o.fingerprint, o.position
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Fingerprint, &r.Address, &r.Group, &r.Position, &r.Name, &r.Role, &r.Party, &r.Level, &r.FinanceID, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.ID = recordID(r.Fingerprint, r.Group, r.Position)
		results = append(results, r)
	}
	return results, total, rows.Err()
}
