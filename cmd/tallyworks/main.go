// Command tallyworks runs the back-office API service: the HTTP server
// and, when enabled, the cron-driven report scheduler.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/tallyworks/backoffice-api/config"
	"github.com/tallyworks/backoffice-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // fatal startup errors must reach the calling shell as a non-zero status
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsDev {
		logger = bootstrap.InitDevLogger()
	}

	logger.InfoContext(ctx, "starting tallyworks service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"enabled_services", bootstrap.GetEnabledServices(&cfg))

	if err := bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	db, redisClient, err := connectInfra(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer closeLogged(ctx, logger, "database", db)
	if redisClient != nil {
		defer closeLogged(ctx, logger, "redis", redisClient)
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:      &cfg,
		Services:    services,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
}

// connectInfra opens the shared infrastructure. Redis only backs the
// report result cache, so its connection is skipped when caching is off.
//
//nolint:ireturn // redis.UniversalClient keeps sentinel/cluster support flexible.
func connectInfra(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(cfg.Postgres, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	if !cfg.Reports.CacheResults {
		logger.InfoContext(ctx, "result caching disabled; skipping redis connection")
		return db, nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		err = fmt.Errorf("connect redis: %w", err)
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
		}
		return nil, nil, err
	}

	return db, redisClient, nil
}

func closeLogged(ctx context.Context, logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.ErrorContext(ctx, "close "+name+" failed", "error", err)
	}
}
