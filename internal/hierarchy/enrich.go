package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"whorep/internal/finance"
)

// ProfileSource returns a complete financial profile for an ID, or nil.
type ProfileSource interface {
	Profile(ctx context.Context, id string) (*finance.Profile, error)
}

// Enricher attaches financial profiles to the Federal group and the peer
// delegation.
type Enricher struct {
	source  ProfileSource
	workers int
	logger  *slog.Logger
}

func NewEnricher(source ProfileSource, workers int, logger *slog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{source: source, workers: workers, logger: logger.With("component", "enricher")}
}

// Enrich looks up every distinct financial ID once, with bounded
// parallelism, and attaches the profile to every member carrying that ID.
// Members whose lookup failed keep no profile. The returned errors are
// non-fatal.
func (e *Enricher) Enrich(ctx context.Context, h *Hierarchy) []error {
	targets := map[string][]Member{}
	var order []string
	for _, kind := range []GroupKind{GroupFederal, GroupPeers} {
		for _, m := range h.Group(kind).Members {
			id := m.FinancialID()
			if id == "" || m.FinancialProfile() != nil {
				continue
			}
			if _, seen := targets[id]; !seen {
				order = append(order, id)
			}
			targets[id] = append(targets[id], m)
		}
	}
	if len(order) == 0 || e.source == nil {
		return nil
	}

	var (
		mu       sync.Mutex
		profiles = make(map[string]*finance.Profile, len(order))
		errs     []error
	)
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, id := range order {
		id := id
		g.Go(func() error {
			profile, err := e.source.Profile(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if profile != nil {
				profiles[id] = profile
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("financial profile %s: %w", id, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range order {
		profile, ok := profiles[id]
		if !ok {
			continue
		}
		for _, m := range targets[id] {
			m.AttachProfile(profile)
		}
	}
	e.logger.Debug("enrichment finished", "ids", len(order), "profiles", len(profiles), "errors", len(errs))
	return errs
}
