package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"whorep/internal/app"
	"whorep/internal/archive"
	"whorep/internal/cache"
	"whorep/internal/civic"
	"whorep/internal/config"
	"whorep/internal/export"
	"whorep/internal/finance"
	"whorep/internal/hierarchy"
	"whorep/internal/metrics"
	"whorep/internal/provider"
	"whorep/internal/resolve"
	"whorep/internal/roster"
	"whorep/internal/search"
	"whorep/internal/store"
)

// runtime is everything a command needs, plus the closers to release it.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	service  *app.Service
	search   *search.Service
	closers  []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("shutdown", "error", err)
		}
	}
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func openCacheBackend(cfg config.Config) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		return cache.NewRedisBackend(cfg.RedisURL)
	case config.CacheBackendBadger:
		return cache.NewBadgerBackend(cfg.BadgerDir)
	default:
		return cache.NewFileBackend(cfg.CacheDir)
	}
}

// wire builds the lookup service. Offline commands pass online=false and
// get a service that never reaches a provider, database or index.
func wire(ctx context.Context, cfg config.Config, online bool) (*runtime, error) {
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	rt.metrics = metrics.New(rt.registry)
	deps := app.Deps{Logger: logger}

	if cfg.MinIOEndpoint != "" {
		publisher, err := export.NewPublisher(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
		if err != nil {
			return nil, err
		}
		deps.Publisher = publisher
	}
	if !online {
		rt.service = app.NewService(deps, app.NewSessions(app.DefaultSessionTTL, rt.metrics))
		return rt, nil
	}

	ids, err := roster.LoadFile(cfg.RosterPath)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	deps.Roster = ids
	deps.Resolver = resolve.New(ids, rt.metrics)

	backend, err := openCacheBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	cacheStore, loadErrs := cache.Open(ctx, backend, cache.WithLogger(logger), cache.WithMetrics(rt.metrics))
	for _, lerr := range loadErrs {
		logger.Warn("cache namespace starts empty", "error", lerr)
	}
	rt.closers = append(rt.closers, cacheStore.Close)
	deps.Cache = cacheStore

	deps.Civic = civic.NewClient(cfg.CivicBaseURL, cfg.CivicAPIKey, provider.WithMetrics(rt.metrics))
	financeClient := finance.NewClient(cfg.FinanceBaseURL, cfg.FinanceAPIKey,
		finance.WithQuota(provider.NewQuota(cfg.FinanceDailyQuota, 24*time.Hour)),
		finance.WithFallbackCycles(cfg.FinanceFallbackCycles...),
		finance.WithLogger(logger),
		finance.WithProviderOptions(
			provider.WithRate(cfg.FinanceRPS, cfg.FinanceBurst),
			provider.WithMetrics(rt.metrics),
		),
	)
	deps.Enricher = hierarchy.NewEnricher(finance.NewLookup(financeClient, cacheStore, logger), cfg.Workers, logger)

	var (
		pgStore *store.PostgresStore
		pgfts   *search.PgFTS
		meili   *search.Meili
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "versions", applied)
		}
		pgStore = store.NewPostgresStore(db)
		pgfts = search.NewPgFTS(db)
		deps.Store = pgStore
	}
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		rt.closers = append(rt.closers, func() error { meili.Close(); return nil })
	}
	if pgfts != nil || meili != nil {
		var rows search.RowSource
		if pgStore != nil {
			rows = pgStore
		}
		rt.search = search.NewService(meili, pgfts, rows, logger)
		deps.Search = rt.search
	}
	if cfg.ArchiveDir != "" {
		deps.Archive = archive.New(cfg.ArchiveDir, logger)
	}

	rt.service = app.NewService(deps, app.NewSessions(app.DefaultSessionTTL, rt.metrics))
	return rt, nil
}

func printNotices(w io.Writer, notices []app.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "note: %s: %s\n", n.Kind, n.Message)
	}
}

func readExport(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no saved lookup at %s", path)
	}
	return data, err
}
