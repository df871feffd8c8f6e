package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"encore/internal/logger"
	repository "encore/internal/repository/iface"
)

// NightlyCleanupID is the registry id of the run history cleanup job
const NightlyCleanupID = "nightly-cleanup"

// NightlyCleanup prunes run history older than the retention window for every job
type NightlyCleanup struct {
	history   repository.RunHistoryRepository
	jobIDs    func() []string
	retention time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// NewNightlyCleanup creates the cleanup task. jobIDs is read on every run.
func NewNightlyCleanup(history repository.RunHistoryRepository, jobIDs func() []string, retention time.Duration, log logger.Logger) *NightlyCleanup {
	return &NightlyCleanup{
		history:   history,
		jobIDs:    jobIDs,
		retention: retention,
		now:       time.Now,
		logger:    log.With(logger.String("job", NightlyCleanupID)),
	}
}

func (j *NightlyCleanup) ID() string { return NightlyCleanupID }

// Run prunes every job and reports all failures together
func (j *NightlyCleanup) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	var (
		errs  []error
		total int
	)
	for _, id := range j.jobIDs() {
		removed, err := j.history.Prune(ctx, id, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("prune %s: %w", id, err))
			continue
		}
		total += removed
	}

	j.logger.Info("run history pruned",
		logger.Time("cutoff", cutoff),
		logger.Int("removed", total),
		logger.Int("failed", len(errs)),
	)

	return errors.Join(errs...)
}
