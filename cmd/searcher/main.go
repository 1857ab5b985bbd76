// Command searcher serves queries against a merged index directory over
// HTTP, grounded on the teacher's search service wiring (config, logger,
// redis-backed query cache, analytics collector, health checks,
// middleware chain) with the index access layer swapped from the sharded
// in-memory engine to the block-index querier service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nilquery/ixora/internal/analytics"
	"github.com/nilquery/ixora/internal/querier"
	"github.com/nilquery/ixora/internal/searcher/cache"
	"github.com/nilquery/ixora/internal/searcher/handler"
	"github.com/nilquery/ixora/pkg/config"
	"github.com/nilquery/ixora/pkg/health"
	"github.com/nilquery/ixora/pkg/kafka"
	"github.com/nilquery/ixora/pkg/logger"
	"github.com/nilquery/ixora/pkg/middleware"
	pkgredis "github.com/nilquery/ixora/pkg/redis"
)

// resolveIndexDir prefers dataDir/current, the symlink the periodic
// rebuild loop (internal/ingestpipeline.Rebuilder) atomically repoints at
// its newest generation. Deployments that only ever run the one-shot
// cmd/indexer + cmd/merger pipeline never create that symlink, so this
// falls back to dataDir itself, which is where those tools write directly.
func resolveIndexDir(dataDir string) string {
	current := filepath.Join(dataDir, "current")
	if _, err := os.Lstat(current); err == nil {
		return current
	}
	return dataDir
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexDir := flag.String("index", "", "path to a merged index directory (defaults to indexer.dataDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("searcher")

	dir := *indexDir
	if dir == "" {
		dir = resolveIndexDir(cfg.Indexer.DataDir)
	}

	svc, err := querier.Open(dir)
	if err != nil {
		log.Error("failed to open index", "dir", dir, "error", err)
		os.Exit(1)
	}
	defer svc.Close()
	stats := svc.Stats()
	log.Info("index opened", "dir", dir, "doc_count", stats.DocCount, "avgdl", stats.AvgDL)

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		log.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	log.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if stats.DocCount > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents loaded", stats.DocCount)}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "empty index"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(svc, queryCache, collector, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("searcher listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("searcher stopped")
}
