package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"whorep/internal/archive"
	"whorep/internal/cache"
	"whorep/internal/civic"
	"whorep/internal/export"
	"whorep/internal/hierarchy"
	"whorep/internal/provider"
	"whorep/internal/resolve"
	"whorep/internal/roster"
	"whorep/internal/search"
	"whorep/internal/store"
)

// Notice kinds returned next to a built hierarchy.
const (
	NoticeSourceUnavailable = "source_unavailable"
	NoticeMalformedRecord   = "malformed_record"
	NoticeNoMatch           = "no_match"
	NoticeCacheUnavailable  = "cache_unavailable"
	NoticeEnrichment        = "enrichment"
	NoticePersistence       = "persistence"
	NoticeIndex             = "index"
	NoticeArchive           = "archive"
)

var ErrEmptyAddress = errors.New("address is required")

// Notice is a non-fatal condition met while building a hierarchy.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Build is one completed lookup.
type Build struct {
	Hierarchy *hierarchy.Hierarchy
	Notices   []Notice
}

type CivicSource interface {
	Representatives(ctx context.Context, address string) (*civic.Payload, error)
}

type JurisdictionCache interface {
	LookupInto(ns cache.Namespace, key string, out any) bool
	Store(ctx context.Context, ns cache.Namespace, key string, value any) error
}

type Enricher interface {
	Enrich(ctx context.Context, h *hierarchy.Hierarchy) []error
}

type LookupStore interface {
	SaveLookup(ctx context.Context, l store.Lookup) error
	Ping(ctx context.Context) error
}

type Indexer interface {
	IndexHierarchy(h *hierarchy.Hierarchy) error
	Search(ctx context.Context, q search.Query) search.Response
}

type Archiver interface {
	Commit(fingerprint string, data []byte, message string) (archive.Commit, bool, error)
}

type Renderer interface {
	Render(ctx context.Context, h *hierarchy.Hierarchy, format export.Format) (*export.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, result *export.Result) (string, error)
}

// Deps are the collaborators of a Service. Civic, Cache, Roster and
// Enricher drive the lookup pipeline; the rest are optional and skipped
// when nil.
type Deps struct {
	Civic     CivicSource
	Cache     JurisdictionCache
	Roster    roster.Roster
	Resolver  *resolve.Resolver
	Enricher  Enricher
	Store     LookupStore
	Search    Indexer
	Archive   Archiver
	Renderer  Renderer
	Publisher Publisher
	Logger    *slog.Logger
}

type Service struct {
	deps     Deps
	logger   *slog.Logger
	Sessions *Sessions
}

func NewService(deps Deps, sessions *Sessions) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Resolver == nil {
		deps.Resolver = resolve.New(deps.Roster, nil)
	}
	if deps.Renderer == nil {
		deps.Renderer = export.NewService(logger)
	}
	if sessions == nil {
		sessions = NewSessions(DefaultSessionTTL, nil)
	}
	return &Service{deps: deps, logger: logger.With("component", "app"), Sessions: sessions}
}

// Build runs the full lookup for address. Provider, cache and downstream
// failures degrade to notices; only a blank address is an error.
func (s *Service) Build(ctx context.Context, address string) (Build, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Build{}, badRequest("INVALID_ADDRESS", ErrEmptyAddress)
	}
	var notices []Notice
	note := func(kind string, err error) {
		s.logger.Warn("lookup notice", "kind", kind, "error", err)
		notices = append(notices, Notice{Kind: kind, Message: err.Error()})
	}

	payload, err := s.jurisdiction(ctx, address)
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) {
			note(NoticeSourceUnavailable, err)
		} else {
			note(NoticeCacheUnavailable, err)
		}
	}

	officeholders, recordErrs := civic.Normalize(payload)
	for _, rerr := range recordErrs {
		note(NoticeMalformedRecord, rerr)
	}

	for i, result := range s.deps.Resolver.ResolveAll(officeholders) {
		if result.Tier == resolve.TierNone {
			notices = append(notices, Notice{
				Kind:    NoticeNoMatch,
				Message: fmt.Sprintf("no financial identity for %s", officeholders[i].Name),
			})
		}
	}

	peers := hierarchy.PeerDelegation(address, s.deps.Roster)
	h := hierarchy.Assemble(address, officeholders, peers)

	if s.deps.Enricher != nil {
		for _, eerr := range s.deps.Enricher.Enrich(ctx, h) {
			note(NoticeEnrichment, eerr)
		}
	}

	for _, n := range s.record(ctx, h) {
		note(n.Kind, errors.New(n.Message))
	}
	return Build{Hierarchy: h, Notices: notices}, nil
}

// jurisdiction returns the civic payload for address, from the cache when
// present. A successful provider response is cached; a failed one is not.
func (s *Service) jurisdiction(ctx context.Context, address string) (*civic.Payload, error) {
	key := cache.Fingerprint(address)
	if s.deps.Cache != nil {
		var cached civic.Payload
		if s.deps.Cache.LookupInto(cache.Jurisdictions, key, &cached) {
			return &cached, nil
		}
	}
	if s.deps.Civic == nil {
		return nil, provider.NewError(provider.CategoryInternal, "civic", "no civic provider configured", nil)
	}
	payload, err := s.deps.Civic.Representatives(ctx, address)
	if err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Store(ctx, cache.Jurisdictions, key, payload); err != nil {
			return payload, err
		}
	}
	return payload, nil
}

// record persists, indexes and archives h where those are configured.
func (s *Service) record(ctx context.Context, h *hierarchy.Hierarchy) []Notice {
	if s.deps.Store == nil && s.deps.Search == nil && s.deps.Archive == nil {
		return nil
	}
	var out []Notice
	lookup, err := store.LookupFromHierarchy(h)
	if err != nil {
		return []Notice{{Kind: NoticePersistence, Message: err.Error()}}
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.SaveLookup(ctx, lookup); err != nil {
			out = append(out, Notice{Kind: NoticePersistence, Message: err.Error()})
		}
	}
	if s.deps.Search != nil {
		err := s.deps.Search.IndexHierarchy(h)
		switch {
		case errors.Is(err, search.ErrIndexUnavailable):
			s.logger.Debug("search index unavailable, lookup not indexed", "fingerprint", h.Fingerprint)
		case err != nil:
			out = append(out, Notice{Kind: NoticeIndex, Message: err.Error()})
		}
	}
	if s.deps.Archive != nil {
		msg := fmt.Sprintf("Lookup %s", h.Address)
		if _, _, err := s.deps.Archive.Commit(h.Fingerprint, lookup.Payload, msg); err != nil {
			out = append(out, Notice{Kind: NoticeArchive, Message: err.Error()})
		}
	}
	return out
}

// Open rebuilds a hierarchy from an export document without calling any
// provider.
func (s *Service) Open(data []byte) (*hierarchy.Hierarchy, error) {
	h, err := hierarchy.Import(data)
	if err != nil {
		return nil, badRequest("INVALID_EXPORT", err)
	}
	return h, nil
}

func (s *Service) Export(ctx context.Context, h *hierarchy.Hierarchy, format export.Format) (*export.Result, error) {
	return s.deps.Renderer.Render(ctx, h, format)
}

// Publish renders h and uploads it to object storage, returning its
// location.
func (s *Service) Publish(ctx context.Context, h *hierarchy.Hierarchy, format export.Format) (string, error) {
	if s.deps.Publisher == nil {
		return "", export.ErrPublishingDisabled
	}
	result, err := s.Export(ctx, h, format)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s-%s", h.Fingerprint, time.Now().UTC().Format("20060102T150405Z"), result.Filename)
	return s.deps.Publisher.Publish(ctx, key, result)
}

// Search queries the officeholder index. Without one every query is empty.
func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.deps.Search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.deps.Search.Search(ctx, q)
}

// Ping reports whether the optional database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	return s.deps.Store.Ping(ctx)
}
