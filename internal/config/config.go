// Package config loads server configuration from flags, environment variables
// and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	TMDB    TMDBConfig
	Cache   CacheConfig
	Metrics MetricsConfig
	Tracing TracingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// IsProduction reports whether the server runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT"` // json or text; empty picks by environment
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	BasePath string `env:"DATA_PATH"` // default ~/Watchlist/data
}

// DatabasePath returns the SQLite database file path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "watchlist.db")
}

// SearchPath returns the directory holding the full-text index.
func (d DataConfig) SearchPath() string {
	return filepath.Join(d.BasePath, "search")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string        `env:"SERVER_NAME" envDefault:"Watchlist Server"`
	Port          string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout   time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout  time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout   time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AdvertiseMDNS bool          `env:"ADVERTISE_MDNS" envDefault:"true"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// AccessTokenKey is loaded from the data directory at startup, never from the environment.
	AccessTokenKey       []byte        `env:"-"`
	AccessTokenDuration  time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"15m"`
	RefreshTokenDuration time.Duration `env:"REFRESH_TOKEN_DURATION" envDefault:"720h"`
	RateLimitPerMinute   int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	RateLimitBurst       int           `env:"AUTH_RATE_BURST" envDefault:"5"`
}

// TMDBConfig holds The Movie Database client configuration.
type TMDBConfig struct {
	APIKey       string        `env:"THE_MOVIE_DB_API_KEY"`
	BaseURL      string        `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	RPS          float64       `env:"TMDB_RPS" envDefault:"20"`
	Burst        int           `env:"TMDB_BURST" envDefault:"10"`
	Timeout      time.Duration `env:"TMDB_TIMEOUT" envDefault:"10s"`
	IncludeAdult bool          `env:"TMDB_INCLUDE_ADULT" envDefault:"false"`
}

// CacheConfig holds the search response cache configuration.
type CacheConfig struct {
	Enabled bool          `env:"CACHE_ENABLED" envDefault:"true"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"6h"`
	Path    string        `env:"CACHE_PATH"` // default {data}/cache
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SamplingRate float64 `env:"TRACING_SAMPLING_RATE" envDefault:"1.0"`
}

// LoadConfig loads configuration for the server binary from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("watchlist", flag.ContinueOnError)

	envFile := fs.String("env-file", ".env", "Path to .env file")
	environment := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, text)")
	dataPath := fs.String("data-path", "", "Base path for data storage")
	serverName := fs.String("server-name", "", "Name advertised for the server")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.Duration("read-timeout", 0, "HTTP read timeout (default: 15s)")
	writeTimeout := fs.Duration("write-timeout", 0, "HTTP write timeout (default: 15s)")
	idleTimeout := fs.Duration("idle-timeout", 0, "HTTP idle timeout (default: 60s)")
	advertiseMDNS := fs.Bool("advertise-mdns", true, "Advertise via mDNS/Zeroconf")
	accessTokenDuration := fs.Duration("access-token-duration", 0, "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.Duration("refresh-token-duration", 0, "Refresh token lifetime (e.g., 720h)")
	tmdbKey := fs.String("tmdb-api-key", "", "The Movie Database API key")
	cacheTTL := fs.Duration("cache-ttl", 0, "Search cache TTL (default: 6h)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is not an error.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "env":
			cfg.App.Environment = *environment
		case "log-level":
			cfg.Logger.Level = *logLevel
		case "log-format":
			cfg.Logger.Format = *logFormat
		case "data-path":
			cfg.Data.BasePath = *dataPath
		case "server-name":
			cfg.Server.Name = *serverName
		case "port":
			cfg.Server.Port = *port
		case "read-timeout":
			cfg.Server.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.Server.WriteTimeout = *writeTimeout
		case "idle-timeout":
			cfg.Server.IdleTimeout = *idleTimeout
		case "advertise-mdns":
			cfg.Server.AdvertiseMDNS = *advertiseMDNS
		case "access-token-duration":
			cfg.Auth.AccessTokenDuration = *accessTokenDuration
		case "refresh-token-duration":
			cfg.Auth.RefreshTokenDuration = *refreshTokenDuration
		case "tmdb-api-key":
			cfg.TMDB.APIKey = *tmdbKey
		case "cache-ttl":
			cfg.Cache.TTL = *cacheTTL
		}
	})

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch strings.ToLower(c.Logger.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logger.Format)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.RefreshTokenDuration <= 0 {
		return errors.New("token durations must be positive")
	}
	if c.Auth.AccessTokenDuration >= c.Auth.RefreshTokenDuration {
		return errors.New("access token duration must be shorter than refresh token duration")
	}

	if c.TMDB.RPS <= 0 {
		return fmt.Errorf("invalid TMDB rate: %v (must be positive)", c.TMDB.RPS)
	}
	if c.TMDB.Burst <= 0 {
		return fmt.Errorf("invalid TMDB burst: %d (must be positive)", c.TMDB.Burst)
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("invalid tracing sampling rate: %v (must be between 0 and 1)", c.Tracing.SamplingRate)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q (must start with /)", c.Metrics.Path)
	}

	return nil
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	c.Data.BasePath, err = expandPath(c.Data.BasePath, filepath.Join(homeDir, "Watchlist", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	c.Cache.Path, err = expandPath(c.Cache.Path, filepath.Join(c.Data.BasePath, "cache"))
	if err != nil {
		return fmt.Errorf("invalid cache path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes path absolute. Empty paths become defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// loadEnvFile sets KEY=value pairs from path without overriding variables
// already present in the environment. Lines starting with # are comments.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
