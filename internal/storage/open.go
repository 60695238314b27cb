package storage

import (
	"context"
	"fmt"

	"github.com/Alias1177/PriceAlerts/internal/config"
)

// Open creates the backend selected by cfg.StorageBackend
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendPostgres:
		return NewPostgres(ctx, ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
	case config.BackendSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
