// Package config loads memberdesk settings from environment variables,
// applies defaults and validates everything on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Audit    AuditConfig
	Import   ImportConfig
	Uploads  UploadsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"6m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to every route except imports, which use
	// Import.Timeout.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the MongoDB connection settings.
type DatabaseConfig struct {
	URI  string `env:"MONGODB_URI" envAlt:"MONGO_URI" required:"true"`
	Name string `env:"MONGODB_DATABASE" default:"memberdesk"`

	ServerSelectionTimeout time.Duration `env:"MONGODB_SERVER_SELECTION_TIMEOUT" default:"30s"`
	SocketTimeout          time.Duration `env:"MONGODB_SOCKET_TIMEOUT" default:"45s"`
}

// AuditConfig configures the optional PostgreSQL audit trail. When URL is
// empty, audit entries go to the structured log.
type AuditConfig struct {
	URL      string `env:"AUDIT_DATABASE_URL"`
	MaxConns int    `env:"AUDIT_DB_MAX_CONNS" default:"4"`
}

// ImportConfig holds spreadsheet import limits.
type ImportConfig struct {
	MaxFileSize   int64         `env:"IMPORT_MAX_FILE_SIZE" default:"5242880"`
	MaxRows       int           `env:"IMPORT_MAX_ROWS" default:"1000"`
	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"1"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"5m"`
}

// UploadsConfig holds photo upload settings.
type UploadsConfig struct {
	Dir         string `env:"UPLOADS_DIR" default:"public/uploads"`
	MaxFileSize int64  `env:"UPLOADS_MAX_FILE_SIZE" default:"5242880"`
}

// RateLimitConfig holds per-IP rate limits per minute.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
	ImportLimit       int  `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`
	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
