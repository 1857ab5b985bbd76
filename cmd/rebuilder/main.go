// Command rebuilder runs the periodic full-merge index rebuild loop.
//
// It polls PostgreSQL for documents staged by the ingestion service,
// re-indexes and re-merges the whole corpus into a new generation directory,
// and atomically repoints a "current" symlink at it once the generation is
// complete. It exposes liveness/readiness endpoints so it can run as a
// long-lived deployment alongside the searcher and ingestion services.
//
// Usage:
//
//	go run ./cmd/rebuilder [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nilquery/ixora/internal/analytics"
	"github.com/nilquery/ixora/internal/ingestpipeline"
	"github.com/nilquery/ixora/pkg/config"
	"github.com/nilquery/ixora/pkg/health"
	"github.com/nilquery/ixora/pkg/kafka"
	"github.com/nilquery/ixora/pkg/logger"
	"github.com/nilquery/ixora/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting rebuilder service", "interval", cfg.Indexer.MergeInterval, "data_dir", cfg.Indexer.DataDir)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer producer.Close()
	collector := analytics.NewCollector(producer, 1000)
	collector.Start(ctx)
	defer collector.Close()

	rb := ingestpipeline.New(db, cfg.Indexer.DataDir, cfg.Indexer.PartSizeBytes, cfg.Indexer.CompressContent, collector)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	go rb.RunForever(ctx, cfg.Indexer.MergeInterval)

	slog.Info("rebuilder service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("rebuilder service stopped")
}
