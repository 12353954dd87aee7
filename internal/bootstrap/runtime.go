// Package bootstrap wires the database, cache, image store and tracer a
// process needs before it can serve or seed.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"messenger/internal/cache"
	"messenger/internal/config"
	"messenger/internal/database"
	"messenger/internal/observability"
	"messenger/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves the cache disabled, as the seeder does.
	SkipRedis bool
	// ServiceName labels spans; empty disables tracing setup.
	ServiceName string
}

// Runtime holds the connected dependencies of a process.
type Runtime struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Images storage.ImageStore

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis, migrates the schema
// outside production and builds the configured image store.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{shutdownTracing: func(context.Context) error { return nil }}

	if opts.ServiceName != "" {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    opts.ServiceName,
			ServiceVersion: "1.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampling,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing setup failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if !cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	if !opts.SkipRedis && strings.TrimSpace(cfg.RedisURL) != "" {
		// Unreachable Redis leaves a nil client and the app runs uncached.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("image store setup failed: %w", err)
	}
	rt.Images = images

	observability.Logger.InfoContext(ctx, "runtime ready",
		slog.String("db", db.Dialector.Name()),
		slog.Bool("redis", rt.Redis != nil),
		slog.String("image_store", cfg.ImageStore),
	)
	return rt, nil
}

// Close flushes traces. The server closes the database and Redis itself.
func (r *Runtime) Close(ctx context.Context) error {
	return r.shutdownTracing(ctx)
}

// CloseDB closes the database pool for processes that never start a server.
func (r *Runtime) CloseDB() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
