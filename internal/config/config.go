// Package config loads the server configuration from environment variables.
// Every setting has a default except where noted, and Load validates the
// result so a misconfigured server fails at startup.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/JonMunkholm/colimport/internal/core"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig
	Import   ImportConfig
	SQL      SQLConfig
	Security SecurityConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so progress streams stay open.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds non-streaming API requests.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// ImportConfig holds import job settings.
type ImportConfig struct {
	// MaxFileSize accepts plain bytes or a KB/MB/GB suffix (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"100MB" unit:"bytes"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// SpoolDir is where uploads are buffered before reading (default: OS temp dir)
	SpoolDir string `env:"IMPORT_SPOOL_DIR"`

	HistorySize  int           `env:"IMPORT_HISTORY_SIZE" default:"100"`
	JobRetention time.Duration `env:"IMPORT_JOB_RETENTION" default:"5m"`
	PreviewRows  int           `env:"IMPORT_PREVIEW_ROWS" default:"20"`

	// SettingsFile persists the default text import options as XML. Empty
	// keeps them in memory only.
	SettingsFile string `env:"IMPORT_SETTINGS_FILE"`
}

// SQLConfig configures the optional database the sql reader imports from.
type SQLConfig struct {
	// Driver is one of postgres, mysql, sqlserver or oracle.
	Driver string `env:"SQL_DRIVER" default:"postgres"`

	// DSN is the connection string. The SQL endpoints are disabled when empty.
	DSN string `env:"SQL_DSN" envAlt:"DATABASE_URL"`

	ConnectTimeout time.Duration `env:"SQL_CONNECT_TIMEOUT" default:"10s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs or addresses
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects state-changing requests with X-API-Key.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// RateLimitConfig limits import submissions per client.
type RateLimitConfig struct {
	Enabled          bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	ImportsPerMinute int  `env:"RATE_LIMIT_IMPORTS_PER_MINUTE" default:"30"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ServiceConfig converts the import settings for core.NewService.
func (c *ImportConfig) ServiceConfig() core.ServiceConfig {
	return core.ServiceConfig{
		MaxConcurrent: c.MaxConcurrent,
		MaxWait:       c.MaxWaitTime,
		Timeout:       c.Timeout,
		MaxFileSize:   c.MaxFileSize,
		SpoolDir:      c.SpoolDir,
		HistorySize:   c.HistorySize,
		JobRetention:  c.JobRetention,
	}
}

// Enabled reports whether a database is configured.
func (c *SQLConfig) Enabled() bool { return c.DSN != "" }
