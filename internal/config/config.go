// Package config loads sheetjson settings from environment variables.
// Every field has a default except the ones a chosen backend needs, and
// Validate reports all misconfigurations at once so startup fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Provider kinds.
const (
	ProviderGoogle = "google"
	ProviderXLSX   = "xlsx"
)

// Cache backends.
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Security SecurityConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds both HTTP drain and pending cache writes.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// ProviderConfig selects and configures the spreadsheet data source.
type ProviderConfig struct {
	// Kind is google or xlsx (default: google)
	Kind string `env:"PROVIDER_KIND" default:"google"`

	// GoogleAPIKey is sent as ?key= on every Sheets API call.
	// Supports both GOOGLE_API_KEY and API_KEY.
	GoogleAPIKey string `env:"GOOGLE_API_KEY" envAlt:"API_KEY"`

	GoogleBaseURL string `env:"GOOGLE_SHEETS_BASE_URL" default:"https://sheets.googleapis.com"`

	// XLSXDir holds <docId>.xlsx files for the xlsx provider.
	XLSXDir string `env:"XLSX_DIR"`

	// HTTPTimeout caps each upstream call; 0 means no client timeout.
	HTTPTimeout time.Duration `env:"PROVIDER_HTTP_TIMEOUT" default:"0s"`
}

// CacheConfig holds edge cache settings.
type CacheConfig struct {
	// Backend is memory, postgres or none (default: memory)
	Backend string `env:"CACHE_BACKEND" default:"memory"`

	Capacity int `env:"CACHE_CAPACITY" default:"10000"`
	Shards   int `env:"CACHE_SHARDS" default:"16"`

	// PublicTTL is the freshness lifetime for public-tier responses.
	PublicTTL time.Duration `env:"CACHE_PUBLIC_TTL" default:"60s"`

	// PrivateDefaultTTL applies to private-tier requests without an
	// X-Request-Maxage header. 0 disables caching for them.
	PrivateDefaultTTL time.Duration `env:"CACHE_PRIVATE_DEFAULT_TTL" default:"0s"`

	// WriteConcurrency bounds in-flight background cache writes; excess
	// writes are dropped.
	WriteConcurrency int `env:"CACHE_WRITE_CONCURRENCY" default:"64"`

	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" default:"1m"`
}

// DatabaseConfig holds the connection settings for the postgres cache backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for CACHE_BACKEND=postgres.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"10"`
	MinConns int `env:"DB_MIN_CONNS" default:"1"`
}

// SecurityConfig holds bearer keys and proxy trust settings.
type SecurityConfig struct {
	// PublicKeys are accepted bearer keys for the public tier.
	PublicKeys []string `env:"PUBLIC_KEYS"`

	// PrivateKeys are bearer keys for the private tier.
	PrivateKeys []string `env:"PRIVATE_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// RateLimitConfig holds per-IP limits for public-tier callers.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
