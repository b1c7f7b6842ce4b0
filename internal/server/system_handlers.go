// Package server provides the HTTP server and routing for FinLens.
package server

import (
	"context"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/finlens/internal/clientdata"
	"github.com/aristath/finlens/internal/di"
	"github.com/aristath/finlens/internal/scheduler"
	"github.com/aristath/finlens/internal/utils"
)

// SystemHandlers handles system-wide monitoring and maintenance endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	container   *di.Container
	jobs        map[string]scheduler.Job
	runner      *scheduler.Scheduler
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, container *di.Container, jobs *di.JobInstances) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		container:   container,
		jobs:        make(map[string]scheduler.Job),
	}
	if jobs != nil {
		h.runner = jobs.Scheduler
		for _, job := range jobs.All() {
			h.jobs[job.Name()] = job
		}
	}
	return h
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/database/stats", h.HandleDatabaseStats)
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string   `json:"status"` // "healthy" or "unhealthy"
	UptimeSeconds int64    `json:"uptime_seconds"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	CacheBackend  string   `json:"cache_backend"`
	Commentary    bool     `json:"commentary_enabled"`
	YahooFallback bool     `json:"yahoo_fallback"`
	Jobs          []string `json:"jobs"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	FreelistCount int64   `json:"freelist_count"`
	Healthy       bool    `json:"healthy"`
}

// CacheStatsResponse represents provider cache occupancy
type CacheStatsResponse struct {
	Backend string                            `json:"backend"`
	Tables  map[string]clientdata.TableCounts `json:"tables"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Jobs:          make([]string, 0, len(h.jobs)),
	}
	for name := range h.jobs {
		response.Jobs = append(response.Jobs, name)
	}
	sort.Strings(response.Jobs)

	if c := h.container; c != nil {
		if c.Memoizer != nil {
			response.CacheBackend = c.Memoizer.Backend()
		}
		response.Commentary = c.OpenAIClient != nil && c.OpenAIClient.Enabled()
		response.YahooFallback = c.YahooClient != nil

		if c.CacheDB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := c.CacheDB.QuickCheck(ctx); err != nil {
				h.log.Warn().Err(err).Msg("Cache database integrity check failed")
				response.Status = "unhealthy"
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, response, h.log)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	if h.container != nil && h.container.CacheDB != nil {
		db := h.container.CacheDB
		info := DBInfo{Name: db.Name(), Path: db.Path()}

		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
		} else {
			info.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
			info.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
			info.PageCount = stats.PageCount
			info.FreelistCount = stats.FreelistCount
		}
		if _, err := os.Stat(db.Path()); err == nil {
			info.Healthy = db.QuickCheck(r.Context()) == nil
		}

		totalSizeMB += info.SizeMB + info.WALSizeMB
		databases = append(databases, info)
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	utils.WriteJSON(w, http.StatusOK, response, h.log)
}

// HandleCacheStats handles GET /api/system/cache/stats
func (h *SystemHandlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	response := CacheStatsResponse{Tables: map[string]clientdata.TableCounts{}}

	if h.container != nil {
		if h.container.Memoizer != nil {
			response.Backend = h.container.Memoizer.Backend()
		}
		if h.container.ClientDataRepo != nil {
			counts, err := h.container.ClientDataRepo.Counts(r.Context())
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to count cache entries")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			response.Tables = counts
		}
	}

	utils.WriteJSON(w, http.StatusOK, response, h.log)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Job not registered: " + name,
		}, h.log)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	var err error
	if h.runner != nil {
		err = h.runner.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed successfully",
	}, h.log)
}

// getSystemStats returns CPU and memory usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// Average across all CPUs over 100ms to keep the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
