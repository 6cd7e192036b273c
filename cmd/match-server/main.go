// cmd/match-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sourcing-match/internal/adapters"
	"sourcing-match/internal/aggregate"
	"sourcing-match/internal/catalog"
	"sourcing-match/internal/common/config"
	"sourcing-match/internal/common/database"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/common/observability"
	"sourcing-match/internal/engine"
	"sourcing-match/internal/matchstore"
	"sourcing-match/internal/notify"
	"sourcing-match/internal/ranking"
	"sourcing-match/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting match server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Candidate Sources ---
	internalCatalog := catalog.New(
		esClient.Client,
		cfg.Database.Elasticsearch.Index,
		cfg.Matching.InternalPriority,
		log,
	)

	sources := []aggregate.Source{internalCatalog}
	for _, name := range []string{"ebay", "depop", "vinted"} {
		acfg, ok := cfg.Adapters[name]
		if !ok || !acfg.Enabled {
			zapLog.Info("marketplace adapter disabled", zap.String("source", name))
			continue
		}
		sources = append(sources, adapters.FromConfig(name, acfg, log))
		zapLog.Info("marketplace adapter enabled",
			zap.String("source", name),
			zap.String("baseUrl", acfg.BaseURL),
		)
	}

	aggregator := aggregate.New(
		time.Duration(cfg.Matching.AdapterTimeout)*time.Millisecond,
		log,
		sources...,
	)

	// --- Matching Pipeline ---
	ranker := ranking.NewRanker(ranking.WeightsFromConfig(cfg.Matching), log)

	store := matchstore.New(
		pg.DB,
		redis.Client,
		time.Duration(cfg.Database.Redis.CacheTTL)*time.Second,
		log,
	)
	writer := matchstore.NewWriter(store, cfg.Matching.PersistQueueSize, log)

	requests := matchstore.NewRequestStore(pg.DB, log)

	var notifier *notify.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = notify.New(ctx, cfg.Notifications, pg.DB, log)
		if err != nil {
			// Notifications are best-effort; the pipeline runs without them.
			zapLog.Warn("notifier init failed, notifications disabled", zap.Error(err))
			notifier = nil
		}
	}

	svc := engine.NewService(aggregator, ranker, writer, requests, cfg.Matching.TopN, cfg.Matching.ReverseThreshold, obs, log)

	srv := server.New(cfg.Server.Addr(), svc, store, notifier, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down http server", zap.Error(err))
	}

	// Drain queued match snapshots before releasing the database.
	if err := writer.Close(shutdownCtx); err != nil {
		zapLog.Error("Error draining persistence queue", zap.Error(err))
	}

	zapLog.Info("Match server stopped gracefully")
}
