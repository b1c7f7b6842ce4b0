package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/utils"
)

// ExpiredPurger drops expired entries from an in-process cache
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// CleanupJob removes expired entries from all client data tables and from
// any in-process caches registered with it.
// It is scheduled on CLEANUP_SCHEDULE.
type CleanupJob struct {
	repo    *Repository
	purgers []ExpiredPurger
	timeout time.Duration
	log     zerolog.Logger
}

// NewCleanupJob creates a new client data cleanup job. nil purgers are ignored.
func NewCleanupJob(repo *Repository, log zerolog.Logger, purgers ...ExpiredPurger) *CleanupJob {
	j := &CleanupJob{
		repo:    repo,
		timeout: 2 * time.Minute,
		log:     log.With().Str("job", "client_data_cleanup").Logger(),
	}
	for _, p := range purgers {
		if p != nil {
			j.purgers = append(j.purgers, p)
		}
	}
	return j
}

// Run executes the cleanup job, removing all expired entries from all tables.
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	done := utils.MeasureDBQuery("delete_all_expired", j.log)
	results, err := j.repo.DeleteAllExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired client data")
		return err
	}

	var totalDeleted int64
	for table, count := range results {
		if count > 0 {
			j.log.Info().
				Str("table", table).
				Int64("deleted", count).
				Msg("Cleaned up expired cache entries")
			totalDeleted += count
		}
	}
	done(totalDeleted)

	for _, p := range j.purgers {
		purged, err := p.PurgeExpired(ctx)
		if err != nil {
			j.log.Warn().Err(err).Msg("Failed to purge expired memo entries")
			continue
		}
		totalDeleted += int64(purged)
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Client data cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
