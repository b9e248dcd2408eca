package finance

import (
	"context"
	"errors"
	"log/slog"

	"whorep/internal/cache"
)

// ErrNoSource is returned for a cache miss when no Source is configured.
var ErrNoSource = errors.New("finance source not configured")

// Source fetches financial listings for a candidate ID.
type Source interface {
	Contributors(ctx context.Context, id string) ([]Contribution, error)
	Industries(ctx context.Context, id string) ([]Contribution, error)
}

// Cache is the part of cache.Store the lookup needs.
type Cache interface {
	LookupInto(ns cache.Namespace, key string, out any) bool
	Store(ctx context.Context, ns cache.Namespace, key string, value any) error
}

// Lookup serves profiles from the cache and fills misses from a Source.
type Lookup struct {
	source Source
	cache  Cache
	logger *slog.Logger
}

func NewLookup(source Source, c Cache, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{source: source, cache: c, logger: logger.With("component", "finance_lookup")}
}

// Profile returns the complete profile for id. The profile is nil when
// either listing is unavailable. A non-nil profile may come with an error
// when a fetched listing could not be persisted to the cache.
func (l *Lookup) Profile(ctx context.Context, id string) (*Profile, error) {
	contributors, cacheErrC, err := l.listing(ctx, cache.Contributors, id)
	if err != nil {
		return nil, err
	}
	industries, cacheErrI, err := l.listing(ctx, cache.Industries, id)
	if err != nil {
		return nil, errors.Join(cacheErrC, err)
	}
	return &Profile{Contributors: contributors, Industries: industries}, errors.Join(cacheErrC, cacheErrI)
}

func (l *Lookup) listing(ctx context.Context, ns cache.Namespace, id string) (rows []Contribution, persistErr, err error) {
	if l.cache != nil && l.cache.LookupInto(ns, id, &rows) {
		return rows, nil, nil
	}
	if l.source == nil {
		return nil, nil, ErrNoSource
	}
	if ns == cache.Contributors {
		rows, err = l.source.Contributors(ctx, id)
	} else {
		rows, err = l.source.Industries(ctx, id)
	}
	if err != nil {
		l.logger.Warn("finance lookup failed", "namespace", ns, "cid", id, "error", err)
		return nil, nil, err
	}
	if rows == nil {
		rows = []Contribution{}
	}
	if l.cache != nil {
		persistErr = l.cache.Store(ctx, ns, id, rows)
	}
	return rows, persistErr, nil
}
