// Package daemon manages the gem service lifecycle and configuration.
package daemon

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all daemon configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Cache    CacheConfig    `toml:"cache"`
	Storage  StorageConfig  `toml:"storage"`
	Auth     AuthConfig     `toml:"auth"`
	Insights InsightsConfig `toml:"insights"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	RequestTimeout string `toml:"request_timeout"`
}

// BackendConfig selects the remote backend.
// Driver is "postgres", "memory" or "auto" (postgres when a URL is set).
type BackendConfig struct {
	Driver      string `toml:"driver"`
	DatabaseURL string `toml:"database_url"`
	MaxConns    int32  `toml:"max_conns"`
	CallTimeout string `toml:"call_timeout"`
	LockTTL     string `toml:"lock_ttl"`

	BreakerThreshold int    `toml:"breaker_threshold"`
	BreakerReset     string `toml:"breaker_reset"`
}

// CacheConfig controls the read-through cache.
// Store is "sqlite", "memory" or "redis".
type CacheConfig struct {
	Store         string `toml:"store"`
	RedisURL      string `toml:"redis_url"`
	HealthTTL     string `toml:"health_ttl"`
	AnalyticsTTL  string `toml:"analytics_ttl"`
	Retention     string `toml:"retention"`
	PurgeInterval string `toml:"purge_interval"`
}

// StorageConfig controls device-side storage.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// AuthConfig controls bearer authentication. An empty secret disables it.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// InsightsConfig controls insight generation.
type InsightsConfig struct {
	Locale       string `toml:"locale"`
	MaxInsights  int    `toml:"max_insights"`
	MaxNextSteps int    `toml:"max_next_steps"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	File string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8787,
			RequestTimeout: "30s",
		},
		Backend: BackendConfig{
			Driver:      "auto",
			MaxConns:    10,
			CallTimeout: "5s",
			LockTTL:     "10s",

			BreakerThreshold: 5,
			BreakerReset:     "30s",
		},
		Cache: CacheConfig{
			Store:         "sqlite",
			HealthTTL:     "1m",
			AnalyticsTTL:  "5m",
			Retention:     "24h",
			PurgeInterval: "1h",
		},
		Storage: StorageConfig{
			Dir: gemHome(),
		},
		Insights: InsightsConfig{
			Locale:       "vi",
			MaxInsights:  5,
			MaxNextSteps: 3,
		},
	}
}

// LoadConfig reads config from $GEM_HOME/config.toml, falling back to
// defaults, then overlays the environment (and any .env file).
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(gemHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	loadDotEnv(".env", filepath.Join(gemHome(), ".env"))
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $GEM_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(gemHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// loadDotEnv loads the first existing env files. Variables already set in
// the process environment win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[config] WARNING: failed to load %s: %v", p, err)
		}
	}
}

// applyEnv overlays well-known environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Backend.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("GEM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid GEM_PORT %q", v)
		}
		cfg.Server.Port = port
	}
	return nil
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// gemHome returns the gem data directory.
func gemHome() string {
	if env := os.Getenv("GEM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gem")
}

// GemHome is exported for use by other packages.
func GemHome() string {
	return gemHome()
}
