package main

import (
	"context"
	"fmt"
	"time"

	"langsite/config"
	"langsite/internal/handlers"
	"langsite/internal/logger"
	"langsite/internal/metrics"
	"langsite/internal/storage"
	"langsite/internal/validation"
)

const (
	redisKeyPrefix      = "langsite:"
	memoryCleanupPeriod = 10 * time.Minute
)

// storageBackend is the configured per-browser storage with its health probes.
type storageBackend struct {
	provider storage.Provider
	sizer    metrics.Sizer
	probes   map[string]handlers.ReadinessProbe
	close    func() error
}

func (b storageBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openStorage builds the provider selected by cfg.Storage.Backend.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storageBackend, error) {
	cookieOptions := storage.CookieOptions{Secure: cfg.CookieSecure, MaxAge: cfg.TTL}

	switch cfg.Backend {
	case validation.BackendCookie, "":
		return storageBackend{provider: storage.CookieProvider(cookieOptions)}, nil
	case validation.BackendMemory:
		store := storage.NewMemoryStore(cfg.TTL)
		go cleanupMemory(ctx, store)
		return storageBackend{
			provider: storage.NewSharedProvider(store, cookieOptions),
			sizer:    store,
		}, nil
	case validation.BackendRedis:
		client, err := storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return storageBackend{}, err
		}
		store := storage.NewRedisStore(client, redisKeyPrefix, cfg.TTL)
		return storageBackend{
			provider: storage.NewSharedProvider(store, cookieOptions),
			probes:   map[string]handlers.ReadinessProbe{"redis": store.Ping},
			close:    client.Close,
		}, nil
	case validation.BackendSQLite:
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return storageBackend{}, err
		}
		return storageBackend{
			provider: storage.NewSharedProvider(store, cookieOptions),
			probes:   map[string]handlers.ReadinessProbe{"sqlite": store.Ping},
			close:    store.Close,
		}, nil
	default:
		return storageBackend{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func cleanupMemory(ctx context.Context, store *storage.MemoryStore) {
	ticker := time.NewTicker(memoryCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Cleanup()
			logger.Get().Debug().Int("entries", store.Len()).Msg("memory storage cleaned up")
		}
	}
}
