// Package di provides dependency injection for clients and services.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/clientdata"
	"github.com/aristath/finlens/internal/clients/marketdata"
	"github.com/aristath/finlens/internal/clients/openai"
	"github.com/aristath/finlens/internal/clients/yahoo"
	"github.com/aristath/finlens/internal/config"
	"github.com/aristath/finlens/internal/memo"
	"github.com/aristath/finlens/internal/modules/charts"
	"github.com/aristath/finlens/internal/modules/commentary"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
)

// NewMemoCache builds the configured memo cache backend
func NewMemoCache(cfg config.CacheConfig, log zerolog.Logger) (memo.Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		cache, err := memo.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			cache.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return cache, nil

	default:
		cache, err := memo.NewLRU(cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to create lru cache: %w", err)
		}
		return cache, nil
	}
}

// InitializeServices creates clients and services on top of the databases
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.CacheDB == nil {
		return fmt.Errorf("container has no cache database")
	}

	// Caches
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	memoCache, err := NewMemoCache(cfg.Cache, log)
	if err != nil {
		return err
	}
	container.MemoCache = memoCache
	container.Memoizer = memo.NewMemoizer(memoCache, cfg.Cache.TTL, log)

	// Clients
	container.MarketDataClient = marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.Delay, container.ClientDataRepo, log)
	sources := []optimization.PriceSource{container.MarketDataClient}
	if cfg.MarketData.YahooSuffix != "" {
		container.YahooClient = yahoo.NewClient(cfg.MarketData.YahooSuffix, log)
		sources = append(sources, container.YahooClient)
	}
	container.PriceSource = optimization.NewChainedPriceSource(log, sources...)
	container.OpenAIClient = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log)

	// Services
	container.OptimizationService = optimization.NewService(
		container.PriceSource,
		container.Memoizer,
		cfg.Optimizer.RiskFreeRate,
		cfg.Optimizer.NumPortfolios,
		log,
	)
	container.OptimizationService.SetMaxPortfolios(cfg.Optimizer.MaxPortfolios)
	container.ScoringService = scoring.NewService(container.MarketDataClient, container.Memoizer, log)
	container.ChartsService = charts.NewService(log)
	container.CommentaryService = commentary.NewService(container.OpenAIClient, container.ScoringService, log)

	log.Info().
		Str("cache_backend", container.Memoizer.Backend()).
		Bool("yahoo_fallback", container.YahooClient != nil).
		Bool("commentary", container.OpenAIClient.Enabled()).
		Msg("Services initialized")

	return nil
}
