package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8787)
	}
	if cfg.Backend.Driver != "auto" {
		t.Errorf("Backend.Driver = %q, want %q", cfg.Backend.Driver, "auto")
	}
	if cfg.Cache.Store != "sqlite" {
		t.Errorf("Cache.Store = %q, want %q", cfg.Cache.Store, "sqlite")
	}
	if cfg.Insights.MaxInsights != 5 || cfg.Insights.MaxNextSteps != 3 {
		t.Errorf("Insights caps = %d/%d, want 5/3", cfg.Insights.MaxInsights, cfg.Insights.MaxNextSteps)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1m", time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"", 5 * time.Second},
		{"soon", 5 * time.Second},
		{"-1s", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseDuration(tt.input, 5*time.Second)
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GEM_HOME", home)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SUPABASE_JWT_SECRET", "")
	t.Setenv("GEM_PORT", "9100")

	toml := `
[server]
port = 9000

[cache]
store = "memory"
analytics_ttl = "10m"

[insights]
locale = "en"
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(toml), 0600); err != nil {
		t.Fatal(err)
	}
	env := "SUPABASE_JWT_SECRET=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("SUPABASE_JWT_SECRET")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SUPABASE_JWT_SECRET") })

	if cfg.Server.Port != 9100 {
		t.Errorf("expected GEM_PORT to win, got %d", cfg.Server.Port)
	}
	if cfg.Cache.Store != "memory" || cfg.Cache.AnalyticsTTL != "10m" {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Cache.HealthTTL != "1m" {
		t.Errorf("expected default health ttl to survive, got %q", cfg.Cache.HealthTTL)
	}
	if cfg.Insights.Locale != "en" {
		t.Errorf("expected locale en, got %q", cfg.Insights.Locale)
	}
	if cfg.Auth.JWTSecret != "from-dotenv" {
		t.Errorf("expected secret from .env, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	t.Setenv("GEM_HOME", t.TempDir())
	t.Setenv("GEM_PORT", "http")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid GEM_PORT")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("GEM_HOME", t.TempDir())
	t.Setenv("GEM_PORT", "")

	cfg := DefaultConfig()
	cfg.Metrics.Prometheus = true
	cfg.Backend.Driver = "memory"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !got.Metrics.Prometheus || got.Backend.Driver != "memory" {
		t.Errorf("config did not round trip: %+v", got)
	}
}

func TestNewWithConfig_MemoryBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Dir = t.TempDir()
	cfg.Backend.Driver = "memory"
	cfg.Backend.DatabaseURL = ""
	cfg.Cache.RedisURL = ""

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer d.Close()

	if d.Server == nil || d.Engagement == nil || d.Insights == nil || d.Onboarding == nil {
		t.Fatal("services not wired")
	}
	if d.Redis != nil {
		t.Error("redis should be disabled without a url")
	}
	if len(d.Health.RunOnce(t.Context())) != 3 {
		t.Error("expected sqlite, data_dir and breaker checks")
	}
	if !d.Health.IsHealthy() {
		t.Errorf("expected healthy daemon, got %+v", d.Health.Statuses())
	}
}

func TestNewWithConfig_UnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Dir = t.TempDir()
	cfg.Backend.Driver = "mysql"
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("expected error for unknown driver")
	}
}
