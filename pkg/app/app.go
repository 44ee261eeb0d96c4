// Package app wires configuration, persistence, storage and locking into a
// ready-to-serve router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/lock"
	"orgchart-backend/pkg/metrics"
	"orgchart-backend/pkg/router"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/storage"
	"orgchart-backend/pkg/utils"
)

// App 组装好的应用
type App struct {
	Router  http.Handler
	Service *services.Service
	Metrics *metrics.Metrics

	closers []func() error
}

// DatabaseConfig 从应用配置提取数据库配置
func DatabaseConfig(cfg *config.Config) database.DatabaseConfig {
	return database.DatabaseConfig{
		PostgresDSN:   cfg.PostgresDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		UseLocalDB:    cfg.UseLocalDB,
		LocalDataDir:  cfg.LocalDataDir,
		AutoMigrate:   cfg.AutoMigrate,
		Debug:         cfg.Debug,
	}
}

// New 创建应用；数据库连接来自进程级连接池
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	db, err := database.GetDatabase(ctx, DatabaseConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pictures, err := storage.NewFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure picture storage: %w", err)
	}

	a := &App{Metrics: metrics.New()}
	opts := []services.Option{
		services.WithPictures(pictures),
		services.WithMetrics(a.Metrics),
		services.WithLogger(log),
	}

	if cfg.RedisAddr != "" {
		locker, err := lock.NewRedisLocker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Warn("redis lock unavailable, falling back to in-process lock", "error", err)
		} else {
			opts = append(opts, services.WithLocker(locker))
			a.closers = append(a.closers, locker.Close)
		}
	}

	a.Service = services.New(db, opts...)
	a.Router = router.NewRouter(router.Deps{
		Config:    cfg,
		Service:   a.Service,
		Auth:      utils.NewJWTService(cfg.JWTSecret),
		Metrics:   a.Metrics,
		Logger:    log,
		UploadDir: pictures.LocalDir(),
	})
	return a, nil
}

// Close 释放 Redis 与数据库连接
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	database.ResetDatabase()
	return firstErr
}
