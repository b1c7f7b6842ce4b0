/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the CLI for access to services.
 */
package di

import (
	"github.com/aristath/finlens/internal/clientdata"
	"github.com/aristath/finlens/internal/clients/marketdata"
	"github.com/aristath/finlens/internal/clients/openai"
	"github.com/aristath/finlens/internal/clients/yahoo"
	"github.com/aristath/finlens/internal/database"
	"github.com/aristath/finlens/internal/memo"
	"github.com/aristath/finlens/internal/modules/charts"
	"github.com/aristath/finlens/internal/modules/commentary"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
	"github.com/aristath/finlens/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: a single cache database (provider responses with expiry)
 * - Caches: the memo cache (LRU or Redis) shared by the services
 * - Clients: market data API, Yahoo Finance fallback, OpenAI
 * - Services: optimization, scoring, charts, commentary
 */
type Container struct {
	// Databases
	CacheDB *database.DB // Provider response cache (prices, statements, holdings, ownership, valuation)

	// Caches
	ClientDataRepo *clientdata.Repository // Persistent provider cache with stale fallback
	MemoCache      memo.Cache             // Computation cache backend
	Memoizer       *memo.Memoizer         // Memoization helper injected into services

	// Clients - External API integrations
	MarketDataClient *marketdata.Client
	YahooClient      *yahoo.Client // nil when the Yahoo fallback is disabled
	OpenAIClient     *openai.Client
	PriceSource      optimization.PriceSource // market data first, then Yahoo

	// Services - Business logic layer
	OptimizationService *optimization.Service
	ScoringService      *scoring.Service
	ChartsService       *charts.Service
	CommentaryService   *commentary.Service
}

// JobInstances holds the registered background jobs for manual triggering
type JobInstances struct {
	Scheduler     *scheduler.Scheduler
	CacheCleanup  scheduler.Job
	WALCheckpoint scheduler.Job
}

// All returns the registered jobs
func (j *JobInstances) All() []scheduler.Job {
	if j == nil {
		return nil
	}
	var jobs []scheduler.Job
	for _, job := range []scheduler.Job{j.CacheCleanup, j.WALCheckpoint} {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if closer, ok := c.MemoCache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
