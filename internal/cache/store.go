package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"whorep/internal/metrics"
)

// Namespace is one independent key space of the cache.
type Namespace string

const (
	Jurisdictions Namespace = "jurisdictions"
	Contributors  Namespace = "contributors"
	Industries    Namespace = "industries"
)

// Namespaces lists every namespace the store manages.
var Namespaces = []Namespace{Jurisdictions, Contributors, Industries}

var (
	// ErrUnavailable marks a namespace that could not be loaded or persisted.
	ErrUnavailable      = errors.New("cache unavailable")
	ErrUnknownNamespace = errors.New("unknown cache namespace")
)

const saveTimeout = 10 * time.Second

// Store is the process-wide lookup cache. Every Store call rewrites the
// whole namespace through the backend; writers of one namespace are
// serialized so no update is lost.
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	data    map[Namespace]map[string]json.RawMessage
	writeMu map[Namespace]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Open loads every namespace from backend. Loading is best effort: a
// missing namespace starts empty, and an unreadable or corrupt one starts
// empty and is reported in the returned errors.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, []error) {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		data:    make(map[Namespace]map[string]json.RawMessage, len(Namespaces)),
		writeMu: make(map[Namespace]*sync.Mutex, len(Namespaces)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "cache")

	var errs []error
	for _, ns := range Namespaces {
		s.writeMu[ns] = &sync.Mutex{}
		entries, err := s.load(ctx, ns)
		if err != nil {
			s.logger.Warn("cache namespace unavailable, starting empty", "namespace", ns, "error", err)
			errs = append(errs, err)
		}
		s.data[ns] = entries
	}
	return s, errs
}

func (s *Store) load(ctx context.Context, ns Namespace) (map[string]json.RawMessage, error) {
	entries := map[string]json.RawMessage{}
	if s.backend == nil {
		return entries, nil
	}
	raw, err := s.backend.Load(ctx, ns)
	if errors.Is(err, ErrNotFound) {
		return entries, nil
	}
	if err != nil {
		return entries, fmt.Errorf("%w: load %s: %v", ErrUnavailable, ns, err)
	}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return map[string]json.RawMessage{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, ns, err)
	}
	return entries, nil
}

// Lookup returns the raw value stored under key.
func (s *Store) Lookup(ns Namespace, key string) (json.RawMessage, bool) {
	s.mu.RLock()
	value, ok := s.data[ns][key]
	s.mu.RUnlock()
	if ok {
		s.metrics.CacheHit(string(ns))
	} else {
		s.metrics.CacheMiss(string(ns))
	}
	return value, ok
}

// LookupInto decodes the value stored under key into out. A value that no
// longer decodes is treated as absent.
func (s *Store) LookupInto(ns Namespace, key string, out any) bool {
	raw, ok := s.Lookup(ns, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "namespace", ns, "key", key, "error", err)
		return false
	}
	return true
}

// Store sets key to value and persists the whole namespace. The value stays
// available in memory even when persisting fails; the failure is returned
// wrapped in ErrUnavailable. An in-flight save is not interrupted by ctx
// cancellation.
func (s *Store) Store(ctx context.Context, ns Namespace, key string, value any) error {
	lock, ok := s.writeMu[ns]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.data[ns][key] = raw
	snapshot, err := json.Marshal(s.data[ns])
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode namespace %s: %w", ns, err)
	}

	if s.backend == nil {
		return nil
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	err = s.backend.Save(saveCtx, ns, snapshot)
	s.metrics.CacheWrite(string(ns), err)
	if err != nil {
		s.logger.Warn("cache write failed", "namespace", ns, "key", key, "error", err)
		return fmt.Errorf("%w: persist %s: %v", ErrUnavailable, ns, err)
	}
	return nil
}

// Len returns the number of keys held in ns.
func (s *Store) Len(ns Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[ns])
}

func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
