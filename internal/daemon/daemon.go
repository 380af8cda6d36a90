package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gemral/gem/internal/api"
	"github.com/gemral/gem/internal/app/accounthealth"
	"github.com/gemral/gem/internal/app/engagement"
	"github.com/gemral/gem/internal/app/insight"
	"github.com/gemral/gem/internal/app/onboarding"
	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/health"
	"github.com/gemral/gem/internal/infra/backend"
	"github.com/gemral/gem/internal/infra/breaker"
	"github.com/gemral/gem/internal/infra/cache"
	"github.com/gemral/gem/internal/infra/inflight"
	_ "github.com/gemral/gem/internal/infra/metrics" // Register Prometheus metrics
	"github.com/gemral/gem/internal/infra/sqlite"
)

// Daemon is the core gem runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB
	Backend domain.Backend
	Redis   *redis.Client
	Cache   *cache.Manager
	Server  *api.Server
	Health  *health.Checker

	Engagement    *engagement.Service
	AccountHealth *accounthealth.Service
	Insights      *insight.Service
	Onboarding    *onboarding.Service

	pg      *backend.Postgres
	breaker *breaker.Breaker
	logFile *os.File
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		d.logFile = f
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = gemHome()
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db

	if err := d.openBackend(); err != nil {
		d.Close()
		return nil, err
	}
	d.openRedis()

	// ─── Cache ─────────────────────────────────────────────────────────

	retention := parseDuration(cfg.Cache.Retention, cache.DefaultRetention)
	d.Cache = cache.NewManager(d.cacheStore(), retention)

	// ─── Services ──────────────────────────────────────────────────────

	guard := inflight.New(d.Redis, parseDuration(cfg.Backend.LockTTL, inflight.DefaultLockTTL))
	d.Engagement = engagement.NewService(d.Backend, engagement.NewCatalog(), guard)
	d.AccountHealth = accounthealth.NewService(d.Backend, d.Cache,
		parseDuration(cfg.Cache.HealthTTL, cache.DefaultHealthTTL))
	d.Insights = insight.NewService(d.Backend, d.AccountHealth, d.Cache, insight.Config{
		Locale:       insight.ParseLocale(cfg.Insights.Locale),
		MaxInsights:  cfg.Insights.MaxInsights,
		MaxNextSteps: cfg.Insights.MaxNextSteps,
		AnalyticsTTL: parseDuration(cfg.Cache.AnalyticsTTL, cache.DefaultAnalyticsTTL),
	})
	d.Onboarding = onboarding.NewService(db)

	// ─── Health ────────────────────────────────────────────────────────

	checks := []health.Check{health.SQLite(db), health.DataDir(dataDir), health.Breaker(d.breaker)}
	if d.pg != nil {
		checks = append(checks, health.Postgres(d.pg))
	}
	if d.Redis != nil {
		checks = append(checks, health.Redis(d.Redis))
	}
	d.Health = health.NewChecker(checks...)

	// ─── API ───────────────────────────────────────────────────────────

	srv := api.NewServer(api.Services{
		Engagement:    d.Engagement,
		AccountHealth: d.AccountHealth,
		Insights:      d.Insights,
		Onboarding:    d.Onboarding,
		Cache:         d.Cache,
		Checker:       d.Health,
	})
	srv.SetTimeout(parseDuration(cfg.Server.RequestTimeout, 30*time.Second))
	if cfg.Metrics.Prometheus {
		srv.EnableMetrics()
	}
	if cfg.Auth.JWTSecret != "" {
		srv.SetJWTSecret(cfg.Auth.JWTSecret)
	}
	d.Server = srv

	return d, nil
}

// openBackend connects the remote backend. With driver "auto" and no
// database URL the in-memory simulator is used.
func (d *Daemon) openBackend() error {
	cfg := d.Config.Backend
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = "memory"
		if cfg.DatabaseURL != "" {
			driver = "postgres"
		}
	}

	d.breaker = breaker.New("backend", breaker.Config{
		FailureThreshold: cfg.BreakerThreshold,
		ResetTimeout:     parseDuration(cfg.BreakerReset, 30*time.Second),
	})

	switch driver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("backend driver postgres requires database_url or DATABASE_URL")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := backend.NewPostgres(ctx, backend.PostgresConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.MaxConns,
			CallTimeout: parseDuration(cfg.CallTimeout, 5*time.Second),
		})
		if err != nil {
			return fmt.Errorf("connect backend: %w", err)
		}
		d.pg = pg
		d.Backend = backend.Instrument(pg, d.breaker)
	case "memory":
		fmt.Fprintf(os.Stderr, "WARNING: no DATABASE_URL, using in-memory backend (data is not persisted)\n")
		d.Backend = backend.Instrument(backend.NewMemory(), d.breaker)
	default:
		return fmt.Errorf("unknown backend driver %q", driver)
	}
	return nil
}

// openRedis connects redis when configured. A failure is logged and the
// daemon continues without it.
func (d *Daemon) openRedis() {
	url := d.Config.Cache.RedisURL
	if url == "" {
		return
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[daemon] WARNING: invalid redis url: %v (redis disabled)", err)
		return
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[daemon] WARNING: redis unreachable: %v (redis disabled)", err)
		_ = rdb.Close()
		return
	}
	d.Redis = rdb
}

// cacheStore picks the cache store. redis falls back to sqlite when no
// client is connected.
func (d *Daemon) cacheStore() cache.Store {
	switch d.Config.Cache.Store {
	case "memory":
		return cache.NewMemoryStore()
	case "redis":
		if d.Redis != nil {
			return cache.NewRedisStore(d.Redis)
		}
		log.Printf("[daemon] WARNING: cache store redis without a connection, using sqlite")
	}
	return d.DB.CacheStore()
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	if d.Config.Cache.Store == "" || d.Config.Cache.Store == "sqlite" {
		go d.purgeLoop(ctx, parseDuration(d.Config.Cache.PurgeInterval, time.Hour))
	}

	addr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		d.Close()
	}()

	fmt.Printf("gem serving on http://%s\n", addr)
	if d.pg == nil {
		fmt.Printf("  Backend: in-memory\n")
	}
	if d.Config.Metrics.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// purgeLoop drops cache rows past retention.
func (d *Daemon) purgeLoop(ctx context.Context, every time.Duration) {
	store := d.DB.CacheStore()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Printf("[daemon] cache purge failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[daemon] purged %d expired cache entries", n)
			}
		}
	}
}

// DataDir returns the directory holding the device store.
func (d *Daemon) DataDir() string {
	if d.Config.Storage.Dir != "" {
		return d.Config.Storage.Dir
	}
	return filepath.Clean(gemHome())
}

// Close shuts down all daemon resources. Safe to call more than once.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.pg != nil {
		d.pg.Close()
		d.pg = nil
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
		d.Redis = nil
	}
	if d.DB != nil {
		_ = d.DB.Close()
		d.DB = nil
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
		d.logFile = nil
	}
}
