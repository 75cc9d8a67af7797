// Package config provides application configuration loaded from environment
// variables (optionally layered over a YAML file) with defaults and
// validation. It centralizes settings such as server timeouts, logging,
// database connectivity, pagination bounds, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-quotes-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PostgresConfig holds discrete connection settings used when DATABASE_URL
// is not provided.
type PostgresConfig struct {
	Host     string // PG_HOST
	Port     int    // PG_PORT
	User     string // PG_USER
	Password string // PG_PASSWORD
	Database string // PG_DATABASE
	SSLMode  string // PG_SSLMODE
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite path
	URL    string // DATABASE_URL, takes precedence over PG_*
	PG     PostgresConfig

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	Tracing     bool // register the GORM OpenTelemetry plugin
	SeedOnStart bool // seed the canonical quotes when the table is empty
}

// PostgresDSN returns DATABASE_URL when set, otherwise a URL assembled from
// the PG_* settings.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.PG.User, d.PG.Password),
		Host:   d.PG.Host + ":" + strconv.Itoa(d.PG.Port),
		Path:   "/" + d.PG.Database,
	}
	q := u.Query()
	q.Set("sslmode", d.PG.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PaginationConfig bounds list requests.
type PaginationConfig struct {
	DefaultLimit int // PAGE_DEFAULT_LIMIT
	MinLimit     int // PAGE_MIN_LIMIT
	MaxLimit     int // PAGE_MAX_LIMIT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test
	Env               string        // development|production|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        string // rotating JSON log file, empty disables
	LogErrorFile   string // error-only log file, empty disables
	LogMaxSizeMB   int
	LogMaxBackups  int
	LogMaxAgeDays  int
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DatabaseConfig

	// Pagination
	Pagination PaginationConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL           time.Duration // how long a given Idempotency-Key is valid
	IdempotencySweepInterval time.Duration // purge period for expired keys, 0 disables

	// Observability
	OTEL OTELConfig
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from the optional CONFIG_FILE (YAML, lowercase
// keys matching the variable names) and environment variables, applies
// defaults, normalizes values, and validates the result. Environment
// variables win over file values.
func Load() (Config, error) {
	k, err := newSource()
	if err != nil {
		return Config{}, err
	}
	s := source{k: k}

	cfg := Config{
		// Server
		Port:              s.getenv("PORT", "8080"),
		ReadTimeout:       s.getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: s.getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      s.getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       s.getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   s.getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    s.getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(s.getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(s.getenv("GIN_MODE", "release")),
		Env:               strings.ToLower(s.getenv("APP_ENV", "development")),

		// Logging / Docs
		LogLevel:       strings.ToLower(s.getenv("LOG_LEVEL", "info")),
		LogPretty:      s.getbool("LOG_PRETTY", false),
		LogFile:        s.getenv("LOG_FILE", ""),
		LogErrorFile:   s.getenv("LOG_ERROR_FILE", ""),
		LogMaxSizeMB:   s.getint("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:  s.getint("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:  s.getint("LOG_MAX_AGE_DAYS", 28),
		SwaggerEnabled: s.getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(s.getenv("API_BASE_PATH", "/")),

		// Storage
		DB: DatabaseConfig{
			Driver: strings.ToLower(s.getenv("DB_DRIVER", "sqlite")),
			Path:   s.getenv("DB_PATH", "quotes.db"),
			URL:    s.getenv("DATABASE_URL", ""),
			PG: PostgresConfig{
				Host:     s.getenv("PG_HOST", "localhost"),
				Port:     s.getint("PG_PORT", 5432),
				User:     s.getenv("PG_USER", "postgres"),
				Password: s.getenv("PG_PASSWORD", ""),
				Database: s.getenv("PG_DATABASE", "quotes"),
				SSLMode:  s.getenv("PG_SSLMODE", "disable"),
			},
			MaxOpenConns:    s.getint("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    s.getint("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: s.getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: s.getdur("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Tracing:         s.getbool("DB_TRACING", false),
			SeedOnStart:     s.getbool("SEED_ON_START", false),
		},

		// Pagination
		Pagination: PaginationConfig{
			DefaultLimit: s.getint("PAGE_DEFAULT_LIMIT", 10),
			MinLimit:     s.getint("PAGE_MIN_LIMIT", 2),
			MaxLimit:     s.getint("PAGE_MAX_LIMIT", 100),
		},

		// Rate limiting
		RateRPS:   s.getfloat("RATE_RPS", 5.0),
		RateBurst: s.getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(s.getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: s.getbool("ENABLE_HSTS", false),
			HSTSMaxAge: s.getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:           s.getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencySweepInterval: s.getdur("IDEMPOTENCY_SWEEP_INTERVAL", 10*time.Minute),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     s.getbool("OTEL_ENABLED", false),
			Endpoint:    s.getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    s.getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: s.getenv("OTEL_SERVICE_NAME", "go-quotes-api"),
			SampleRatio: s.getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if cfg.DB.URL == "" && (strings.TrimSpace(cfg.DB.PG.Host) == "" || strings.TrimSpace(cfg.DB.PG.Database) == "") {
			return cfg, errors.New("PG_HOST and PG_DATABASE must be set when DATABASE_URL is empty")
		}
		if cfg.DB.PG.Port <= 0 || cfg.DB.PG.Port > 65535 {
			return cfg, errors.New("PG_PORT must be in [1,65535]")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.DB.MaxOpenConns < 1 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1")
	}
	if cfg.DB.MaxIdleConns < 0 {
		return cfg, errors.New("DB_MAX_IDLE_CONNS must be >= 0")
	}
	if cfg.Pagination.MinLimit < 1 || cfg.Pagination.MaxLimit < cfg.Pagination.MinLimit {
		return cfg, errors.New("PAGE_MIN_LIMIT must be >= 1 and <= PAGE_MAX_LIMIT")
	}
	if cfg.Pagination.DefaultLimit < cfg.Pagination.MinLimit || cfg.Pagination.DefaultLimit > cfg.Pagination.MaxLimit {
		return cfg, errors.New("PAGE_DEFAULT_LIMIT must be within [PAGE_MIN_LIMIT, PAGE_MAX_LIMIT]")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.IdempotencySweepInterval < 0 {
		return cfg, errors.New("IDEMPOTENCY_SWEEP_INTERVAL must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// newSource layers the optional CONFIG_FILE under the process environment.
// Keys are lowercased so "PORT" and a YAML "port:" address the same value.
func newSource() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}
	return k, nil
}

// ---- helpers ----

type source struct{ k *koanf.Koanf }

func (s source) lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	if !s.k.Exists(key) {
		return "", false
	}
	v := s.k.String(key)
	return v, v != ""
}

func (s source) getenv(k, def string) string {
	if v, ok := s.lookup(k); ok {
		return v
	}
	return def
}

func (s source) getfloat(k string, def float64) float64 {
	if v, ok := s.lookup(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) getint(k string, def int) int {
	if v, ok := s.lookup(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getbool(k string, def bool) bool {
	if v, ok := s.lookup(k); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) getdur(k string, def time.Duration) time.Duration {
	if v, ok := s.lookup(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
