package main

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nutriground/backend/config"
	httpDelivery "github.com/nutriground/backend/internal/delivery/http"
	"github.com/nutriground/backend/internal/domain"
	"github.com/nutriground/backend/internal/infrastructure/arbiter"
	"github.com/nutriground/backend/internal/infrastructure/cache"
	"github.com/nutriground/backend/internal/infrastructure/fdc"
	"github.com/nutriground/backend/internal/logging"
	"github.com/nutriground/backend/internal/metrics"
	"github.com/nutriground/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting nutriground backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cacheType", cfg.Cache.Type),
		zap.Bool("arbiterEnabled", cfg.Arbiter.Enabled))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var searchCache domain.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatal("redis cache unavailable", zap.Error(err))
		}
		defer redisCache.Close() //nolint:errcheck
		searchCache = redisCache
	default:
		searchCache = cache.NewMemoryCache()
	}

	fdcClient := fdc.NewClient(cfg.FDC, logger)
	searchClient := fdc.NewCachedClient(fdcClient, searchCache, cfg.Cache.TTL, logger, m)

	var tieBreaker domain.Arbiter
	if cfg.Arbiter.Enabled {
		tieBreaker = arbiter.NewClient(cfg.Arbiter, logger)
		logger.Info("arbiter enabled", zap.String("model", cfg.Arbiter.Model))
	}

	normalizer := usecase.NewNormalizer(logger)
	matcher := usecase.NewMatcher(searchClient, tieBreaker, normalizer, logger, m, usecase.MatcherConfig{
		AcceptThreshold: cfg.Matching.AcceptThreshold,
		LooseThreshold:  cfg.Matching.LooseThreshold,
		NearTieRatio:    cfg.Matching.NearTieRatio,
	})
	resolver := usecase.NewPortionResolver(normalizer, logger, m)
	validator := usecase.NewValidator(normalizer, logger)
	grounding := usecase.NewGroundingService(normalizer, resolver, matcher, validator, logger, cfg.Matching.Parallelism)

	handler := httpDelivery.NewHandler(grounding, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger, registry)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
