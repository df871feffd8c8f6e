package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	memCache "encore/internal/cache/memory"
	"encore/internal/domain"
	"encore/internal/logger"
	repository "encore/internal/repository/iface"
	historyRepo "encore/internal/repository/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightlyCleanup_PrunesEveryJob(t *testing.T) {
	log := logger.NewNopLogger()
	history := historyRepo.NewRunHistoryRepository(memCache.NewMemoryCache(), 50, log)
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 2, 0, 0, 0, time.UTC)

	for _, id := range []string{"crm-sync", "chat-availability"} {
		for _, age := range []time.Duration{72 * time.Hour, 36 * time.Hour, time.Hour} {
			rec := domain.NewRunRecord(id, now.Add(-age))
			rec.Finish(domain.RunOutcomeSuccess, now.Add(-age), nil)
			require.NoError(t, history.Append(ctx, rec))
		}
	}

	job := NewNightlyCleanup(history, func() []string {
		return []string{"crm-sync", "chat-availability", "nightly-cleanup"}
	}, 48*time.Hour, log)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(ctx))

	for _, id := range []string{"crm-sync", "chat-availability"} {
		runs, err := history.Recent(ctx, id, 10)
		require.NoError(t, err)
		assert.Len(t, runs, 2, id)
	}
}

type brokenHistory struct {
	repository.RunHistoryRepository
	failFor string
	pruned  []string
}

func (b *brokenHistory) Prune(ctx context.Context, jobID string, olderThan time.Time) (int, error) {
	if jobID == b.failFor {
		return 0, errors.New("redis timeout")
	}
	b.pruned = append(b.pruned, jobID)
	return 1, nil
}

func TestNightlyCleanup_ContinuesPastFailures(t *testing.T) {
	history := &brokenHistory{failFor: "crm-sync"}
	job := NewNightlyCleanup(history, func() []string {
		return []string{"chat-availability", "crm-sync", "nightly-cleanup"}
	}, 24*time.Hour, logger.NewNopLogger())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm-sync")
	assert.Equal(t, []string{"chat-availability", "nightly-cleanup"}, history.pruned)
}
