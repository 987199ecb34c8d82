package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meera/framl/internal/cache"
	"github.com/meera/framl/internal/config"
	"github.com/meera/framl/internal/graph"
	"github.com/meera/framl/internal/graphview"
	"github.com/meera/framl/internal/logging"
	"github.com/meera/framl/internal/metrics"
	"github.com/meera/framl/internal/repository"
	"github.com/meera/framl/internal/server"
	"github.com/meera/framl/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if graphClient != nil {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}
	}()

	var registry *metrics.Registry
	if cfg.HTTP.MetricsEnabled {
		registry = metrics.NewRegistry()
	}

	graphCache := buildCache(logger, cfg)
	if graphCache != nil {
		defer func() {
			if err := graphCache.Close(); err != nil {
				logger.Warn("closing cache failed", "error", err)
			}
		}()
	}

	repo := repository.New(graphClient)
	relationshipService := service.NewRelationshipService(repo)

	assembly := graphview.DefaultOptions()
	assembly.UserGroupCap = cfg.View.UserGroupCap
	assembly.ContextGroupCap = cfg.View.ContextGroupCap

	var snapshotCache service.SnapshotCache
	if graphCache != nil {
		snapshotCache = graphCache
	}
	var observer service.BuildObserver
	if registry != nil {
		observer = registry
	}
	graphService := service.NewGraphService(repo, snapshotCache, observer, logger, service.GraphServiceOptions{
		UserLimit:        cfg.View.SnapshotUsers,
		TransactionLimit: cfg.View.SnapshotTxs,
		Assembly:         assembly,
	})

	apiHandlers := server.NewAPIHandlers(logger, relationshipService, graphService)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Client: graphClient},
		API:              apiHandlers,
		Metrics:          registry,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

// buildCache returns nil when no Redis address is configured; graph views are
// then assembled fresh on every request.
func buildCache(logger *slog.Logger, cfg config.Config) *cache.RedisCache {
	if cfg.Cache.Addr == "" {
		return nil
	}
	redisCache, err := cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache", "error", err)
		return nil
	}
	logger.Info("graph cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL.String())
	return redisCache
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
