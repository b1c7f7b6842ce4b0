// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/clientdata"
	"github.com/aristath/finlens/internal/config"
	"github.com/aristath/finlens/internal/scheduler"
)

// RegisterJobs creates the maintenance jobs and schedules them.
// The returned scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{Scheduler: scheduler.New(log)}

	var purgers []clientdata.ExpiredPurger
	if purger, ok := container.MemoCache.(clientdata.ExpiredPurger); ok {
		purgers = append(purgers, purger)
	}
	instances.CacheCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log, purgers...)
	instances.WALCheckpoint = scheduler.NewWALCheckpointJob(log, container.CacheDB)

	if err := instances.Scheduler.AddJob(cfg.CleanupSchedule, instances.CacheCleanup); err != nil {
		return nil, err
	}
	if err := instances.Scheduler.AddJob("0 0 * * * *", instances.WALCheckpoint); err != nil {
		return nil, err
	}

	return instances, nil
}
