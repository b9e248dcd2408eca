package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"corsOrigin"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`

	// Civic-data provider
	CivicAPIKey  string `yaml:"civicApiKey"`
	CivicBaseURL string `yaml:"civicBaseUrl"`

	// Campaign-finance provider
	FinanceAPIKey         string   `yaml:"financeApiKey"`
	FinanceBaseURL        string   `yaml:"financeBaseUrl"`
	FinanceRPS            float64  `yaml:"financeRps"`
	FinanceBurst          int      `yaml:"financeBurst"`
	FinanceDailyQuota     int      `yaml:"financeDailyQuota"`
	FinanceFallbackCycles []string `yaml:"financeFallbackCycles"`

	RosterPath string `yaml:"rosterPath"`
	Workers    int    `yaml:"workers"`
	ExportPath string `yaml:"exportPath"`

	// Cache
	CacheBackend string `yaml:"cacheBackend"`
	CacheDir     string `yaml:"cacheDir"`
	RedisURL     string `yaml:"redisUrl"`
	BadgerDir    string `yaml:"badgerDir"`

	// Optional persistence, search and archive; empty disables them.
	DatabaseURL    string `yaml:"databaseUrl"`
	MigrationsDir  string `yaml:"migrationsDir"`
	MeiliURL       string `yaml:"meiliUrl"`
	MeiliMasterKey string `yaml:"meiliMasterKey"`
	ArchiveDir     string `yaml:"archiveDir"`

	// Report publishing
	MinIOEndpoint  string `yaml:"minioEndpoint"`
	MinIOAccessKey string `yaml:"minioAccessKey"`
	MinIOSecretKey string `yaml:"minioSecretKey"`
	MinIOBucket    string `yaml:"minioBucket"`
	MinIOUseSSL    bool   `yaml:"minioUseSsl"`
}

const (
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
)

func defaults() Config {
	return Config{
		Addr:                  ":8787",
		CORSOrigin:            "*",
		LogLevel:              "info",
		LogFormat:             "text",
		CivicBaseURL:          "https://www.googleapis.com/civicinfo/v2",
		FinanceBaseURL:        "https://www.opensecrets.org/api/",
		FinanceRPS:            2,
		FinanceBurst:          4,
		FinanceDailyQuota:     200,
		FinanceFallbackCycles: []string{"2020", "2018"},
		RosterPath:            "./data/congress_ids.csv",
		Workers:               4,
		ExportPath:            "./whorep-export.json",
		CacheBackend:          CacheBackendFile,
		CacheDir:              "./data/cache",
		BadgerDir:             "./data/badger",
		MigrationsDir:         "./db/migrations",
		MinIOBucket:           "whorep-reports",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by WHOREP_CONFIG, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("WHOREP_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = Config{
		Addr:       getenv("WHOREP_ADDR", cfg.Addr),
		CORSOrigin: getenv("WHOREP_CORS_ORIGIN", cfg.CORSOrigin),
		LogLevel:   getenv("WHOREP_LOG_LEVEL", cfg.LogLevel),
		LogFormat:  getenv("WHOREP_LOG_FORMAT", cfg.LogFormat),

		CivicAPIKey:  getenv("CIVIC_API_KEY", cfg.CivicAPIKey),
		CivicBaseURL: getenv("CIVIC_BASE_URL", cfg.CivicBaseURL),

		FinanceAPIKey:         getenv("FINANCE_API_KEY", cfg.FinanceAPIKey),
		FinanceBaseURL:        getenv("FINANCE_BASE_URL", cfg.FinanceBaseURL),
		FinanceRPS:            getenvFloat("FINANCE_RPS", cfg.FinanceRPS),
		FinanceBurst:          getenvInt("FINANCE_BURST", cfg.FinanceBurst),
		FinanceDailyQuota:     getenvInt("FINANCE_DAILY_QUOTA", cfg.FinanceDailyQuota),
		FinanceFallbackCycles: getenvList("FINANCE_FALLBACK_CYCLES", cfg.FinanceFallbackCycles),

		RosterPath: getenv("WHOREP_ROSTER_PATH", cfg.RosterPath),
		Workers:    getenvInt("WHOREP_WORKERS", cfg.Workers),
		ExportPath: getenv("WHOREP_EXPORT_PATH", cfg.ExportPath),

		CacheBackend: getenv("WHOREP_CACHE_BACKEND", cfg.CacheBackend),
		CacheDir:     getenv("WHOREP_CACHE_DIR", cfg.CacheDir),
		RedisURL:     getenv("REDIS_URL", cfg.RedisURL),
		BadgerDir:    getenv("WHOREP_BADGER_DIR", cfg.BadgerDir),

		DatabaseURL:    getenv("DATABASE_URL", cfg.DatabaseURL),
		MigrationsDir:  getenv("WHOREP_MIGRATIONS_DIR", cfg.MigrationsDir),
		MeiliURL:       getenv("MEILI_URL", cfg.MeiliURL),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", cfg.MeiliMasterKey),
		ArchiveDir:     getenv("WHOREP_ARCHIVE_DIR", cfg.ArchiveDir),

		MinIOEndpoint:  getenv("MINIO_ENDPOINT", cfg.MinIOEndpoint),
		MinIOAccessKey: getenv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey),
		MinIOSecretKey: getenv("MINIO_SECRET_KEY", cfg.MinIOSecretKey),
		MinIOBucket:    getenv("MINIO_BUCKET", cfg.MinIOBucket),
		MinIOUseSSL:    getenvBool("MINIO_USE_SSL", cfg.MinIOUseSSL),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendBadger:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheBackend == CacheBackendRedis && strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("config: redis cache backend requires REDIS_URL")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.FinanceRPS < 0 {
		return fmt.Errorf("config: finance rps must not be negative, got %v", c.FinanceRPS)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
