package clientdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	purged int
	err    error
	calls  int
}

func (f *fakePurger) PurgeExpired(context.Context) (int, error) {
	f.calls++
	return f.purged, f.err
}

func TestCleanupJobName(t *testing.T) {
	repo, _ := newTestRepository(t, time.Now())
	assert.Equal(t, "client_data_cleanup", NewCleanupJob(repo, zerolog.Nop()).Name())
}

func TestCleanupJobRun(t *testing.T) {
	now := time.Now()
	repo, db := newTestRepository(t, now)
	ctx := context.Background()

	for _, table := range AllTables {
		require.NoError(t, repo.Store(ctx, table, "expired", 1, -time.Hour))
		require.NoError(t, repo.Store(ctx, table, "fresh", 1, time.Hour))
	}

	purger := &fakePurger{purged: 3}
	job := NewCleanupJob(repo, zerolog.Nop(), purger, nil)
	require.NoError(t, job.Run())

	for _, table := range AllTables {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 1, count, table)
	}
	assert.Equal(t, 1, purger.calls)
}

func TestCleanupJobRun_EmptyTables(t *testing.T) {
	repo, _ := newTestRepository(t, time.Now())
	assert.NoError(t, NewCleanupJob(repo, zerolog.Nop()).Run())
}

func TestCleanupJobRun_PurgerErrorIsNotFatal(t *testing.T) {
	repo, _ := newTestRepository(t, time.Now())
	purger := &fakePurger{err: errors.New("redis down")}

	assert.NoError(t, NewCleanupJob(repo, zerolog.Nop(), purger).Run())
	assert.Equal(t, 1, purger.calls)
}

func TestCleanupJobRun_DatabaseClosed(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	require.NoError(t, db.Close())

	assert.Error(t, NewCleanupJob(repo, zerolog.Nop()).Run())
}
