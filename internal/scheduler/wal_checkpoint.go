package scheduler

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Checkpointer is a database that supports WAL checkpoints
type Checkpointer interface {
	Name() string
	WALCheckpoint(mode string) error
}

// WALCheckpointJob truncates the write-ahead log of each database so the WAL
// files of long-running processes stay small.
type WALCheckpointJob struct {
	databases []Checkpointer
	mode      string
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a checkpoint job. Nil databases are ignored.
func NewWALCheckpointJob(log zerolog.Logger, databases ...Checkpointer) *WALCheckpointJob {
	dbs := make([]Checkpointer, 0, len(databases))
	for _, db := range databases {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return &WALCheckpointJob{
		databases: dbs,
		mode:      "TRUNCATE",
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every database, continuing past failures
func (j *WALCheckpointJob) Run() error {
	var errs []error
	for _, db := range j.databases {
		if err := db.WALCheckpoint(j.mode); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to checkpoint WAL")
			errs = append(errs, err)
			continue
		}
	}

	j.log.Debug().
		Int("databases", len(j.databases)).
		Int("failed", len(errs)).
		Msg("WAL checkpoint complete")

	if len(errs) > 0 {
		return fmt.Errorf("wal checkpoint failed for %d database(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}
