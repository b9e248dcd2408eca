package search

import (
	"context"
	"errors"
	"log/slog"

	"whorep/internal/hierarchy"
	"whorep/internal/store"
)

// ErrIndexUnavailable is returned when indexing is requested while
// Meilisearch is absent or unhealthy.
var ErrIndexUnavailable = errors.New("search index unavailable")

// RowSource lists persisted officeholders for a full reindex.
type RowSource interface {
	ListOfficeholders(ctx context.Context) ([]store.OfficeholderRow, error)
}

// Service tries Meilisearch first and falls back to PG FTS. Any of its
// parts may be nil.
type Service struct {
	meili  *Meili
	pgfts  *PgFTS
	rows   RowSource
	logger *slog.Logger
}

func NewService(meili *Meili, pgfts *PgFTS, rows RowSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{meili: meili, pgfts: pgfts, rows: rows, logger: logger.With("component", "search")}
}

// Search never fails: backend errors yield an empty response.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.logger.Warn("meilisearch error, falling back to pgfts", "error", err)
	}

	if s.pgfts == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.pgfts.Search(ctx, q)
	if err != nil {
		s.logger.Warn("pgfts error", "error", err)
		return Response{Results: []Result{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexHierarchy pushes every member of h into Meilisearch.
func (s *Service) IndexHierarchy(h *hierarchy.Hierarchy) error {
	if s.meili == nil || !s.meili.Healthy() {
		return ErrIndexUnavailable
	}
	return s.meili.IndexRecords(RecordsFromHierarchy(h))
}

// ReindexAllFromPG reindexes every persisted officeholder into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.rows == nil {
		return
	}
	rows, err := s.rows.ListOfficeholders(ctx)
	if err != nil {
		s.logger.Warn("reindex load failed", "error", err)
		return
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	if err := s.meili.IndexRecords(records); err != nil {
		s.logger.Warn("reindex officeholders", "error", err)
		return
	}
	s.logger.Info("reindexed officeholders", "count", len(records))
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
