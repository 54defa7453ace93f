// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, cache, the
// chat agent, vector search, events and metrics) that the pipeline and API require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/pkg/cache"
	"github.com/JaimeStill/scribe/pkg/database"
	"github.com/JaimeStill/scribe/pkg/events"
	"github.com/JaimeStill/scribe/pkg/lease"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/llm"
	"github.com/JaimeStill/scribe/pkg/metrics"
	"github.com/JaimeStill/scribe/pkg/storage"
	"github.com/JaimeStill/scribe/pkg/vector"
)

// Infrastructure holds the core systems required by all domain modules.
// Redis is nil when no cache address is configured; Cache and Locker then
// fall back to process memory.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Redis     *redis.Client
	Cache     cache.Cache
	Locker    lease.Locker
	LLM       *llm.Agent
	Vector    vector.System
	Events    events.System
	Metrics   *metrics.Registry
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(cfg.Level())

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	var (
		rdb    *redis.Client
		c      cache.Cache
		locker lease.Locker
	)
	if cfg.Cache.Remote() {
		rdb = cache.Dial(&cfg.Cache)
		c = cache.NewRedis(rdb, cfg.Cache.Prefix)
		locker = lease.NewRedis(rdb, cfg.Cache.Prefix, cfg.Pipeline.LeaseDuration(), logger)
	} else {
		c = cache.NewMemory()
		locker = lease.NewLocal()
	}

	embedder := llm.New(&cfg.LLM, logger)

	vec, err := vector.New(lc.Context(), &cfg.Vector, embedder, c, logger)
	if err != nil {
		return nil, fmt.Errorf("vector init failed: %w", err)
	}

	pub, err := events.New(&cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("events init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Redis:     rdb,
		Cache:     c,
		Locker:    locker,
		LLM:       llm.NewAgent(cfg.Agent.Agent(), &cfg.LLM, logger),
		Vector:    vec,
		Events:    pub,
		Metrics:   metrics.New("scribe"),
	}, nil
}

// NewLogger builds the process logger: slog text output on stderr at level.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Vector.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("vector start failed: %w", err)
	}
	if err := i.Events.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("events start failed: %w", err)
	}
	if i.Redis != nil {
		i.startRedis()
	}
	return nil
}

func (i *Infrastructure) startRedis() {
	logger := i.Logger.With("system", "redis")

	i.Lifecycle.OnStartup(func() {
		if err := i.Redis.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			return
		}
		logger.Info("redis connected", "addr", i.Redis.Options().Addr)
	})

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.Redis.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
		}
	})
}
