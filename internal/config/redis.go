package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
)

// InitJobStore returns the configured job store. A nil store means requests
// are scored synchronously; an unreachable Redis at startup is not fatal
// because availability is re-checked per request.
func InitJobStore(ctx context.Context, cfg *Config, log *zap.Logger) (jobstore.Store, func() error) {
	noop := func() error { return nil }

	if cfg.Redis.Backend == "memory" {
		log.Warn("⚠️ Using in-memory job store, jobs are lost on restart and not shared between instances")
		return jobstore.NewMemoryStore(cfg.Redis.JobTTL), noop
	}

	if cfg.Redis.Backend == "none" || !cfg.Redis.Enabled {
		log.Warn("⚠️ Job store disabled, scoring runs synchronously")
		return nil, noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := jobstore.NewRedisStore(client, cfg.Redis.JobTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Warn("⚠️ Redis not reachable, falling back to synchronous scoring until it recovers",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	} else {
		log.Info("✅ Redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	}

	return store, client.Close
}
