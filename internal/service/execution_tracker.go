package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/registry"
	repository "encore/internal/repository/iface"
)

const defaultStoreTimeout = 5 * time.Second

// TrackerConfig tunes the execution tracker
type TrackerConfig struct {
	// SoftTimeout logs a warning when a run takes longer. Zero disables it.
	SoftTimeout time.Duration
	// StoreTimeout bounds each bookkeeping and history write.
	StoreTimeout time.Duration
}

// ExecutionTracker wraps every fire of a job with bookkeeping, an overlap guard,
// panic recovery and failure alerting
type ExecutionTracker struct {
	repo         repository.JobDefinitionRepository
	history      repository.RunHistoryRepository
	notifier     AlertNotifier
	softTimeout  time.Duration
	storeTimeout time.Duration
	now          func() time.Time
	logger       logger.Logger

	mu      sync.Mutex
	running map[string]struct{}
}

// NewExecutionTracker creates a tracker. history may be nil.
func NewExecutionTracker(
	repo repository.JobDefinitionRepository,
	history repository.RunHistoryRepository,
	notifier AlertNotifier,
	cfg TrackerConfig,
	log logger.Logger,
) *ExecutionTracker {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	return &ExecutionTracker{
		repo:         repo,
		history:      history,
		notifier:     notifier,
		softTimeout:  cfg.SoftTimeout,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
		logger:       log.With(logger.String("component", "execution_tracker")),
		running:      make(map[string]struct{}),
	}
}

// Execute runs task once for def and returns the resulting run record.
// Handler, persistence and notification errors never escape; they end up in the
// record, the job's bookkeeping and the logs.
func (t *ExecutionTracker) Execute(ctx context.Context, def *domain.JobDefinition, task registry.Task) *domain.RunRecord {
	firedAt := t.now()
	record := domain.NewRunRecord(def.ID, firedAt)
	log := t.logger.With(
		logger.String("job_id", def.ID),
		logger.String("run_id", record.RunID),
	)

	if !t.tryAcquire(def.ID) {
		log.Warn("job still running, skipping this fire")
		record.Finish(domain.RunOutcomeSkipped, firedAt, nil)
		t.appendHistory(record, log)
		return record
	}

	released := false
	release := func() {
		if !released {
			t.release(def.ID)
			released = true
		}
	}
	defer release()

	t.persist(log, "mark running", func(ctx context.Context) error {
		return t.repo.MarkRunning(ctx, def.ID, firedAt)
	})

	log.Info("job started")

	var timer *time.Timer
	if t.softTimeout > 0 {
		timer = time.AfterFunc(t.softTimeout, func() {
			log.Warn("job exceeded soft timeout",
				logger.Duration("soft_timeout", t.softTimeout),
			)
		})
	}

	runErr := invoke(registry.WithRunID(ctx, record.RunID), task)

	if timer != nil {
		timer.Stop()
	}
	finishedAt := t.now()

	if runErr == nil {
		t.persist(log, "mark succeeded", func(ctx context.Context) error {
			return t.repo.MarkSucceeded(ctx, def.ID)
		})
		record.Finish(domain.RunOutcomeSuccess, finishedAt, nil)
		t.appendHistory(record, log)
		log.Info("job finished",
			logger.Int64("duration_ms", record.DurationMS),
		)
		return record
	}

	log.Error("job failed",
		logger.Int64("duration_ms", finishedAt.Sub(firedAt).Milliseconds()),
		logger.Error(runErr),
	)

	t.persist(log, "mark failed", func(ctx context.Context) error {
		return t.repo.MarkFailed(ctx, def.ID, runErr.Error())
	})
	record.Finish(domain.RunOutcomeError, finishedAt, runErr)
	t.appendHistory(record, log)

	// the next fire of this job must not wait on alert delivery
	release()

	report := domain.FailureReport{
		RunID:       record.RunID,
		JobID:       def.ID,
		JobName:     def.Name,
		Schedule:    def.Schedule,
		Description: def.Description,
		Error:       runErr.Error(),
		FailedAt:    finishedAt,
	}
	if err := t.notifier.NotifyFailure(context.Background(), report); err != nil {
		log.Error("failed to dispatch failure alert", logger.Error(err))
	}

	return record
}

// IsRunning reports whether a run of id currently holds the overlap guard
func (t *ExecutionTracker) IsRunning(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[id]
	return ok
}

func (t *ExecutionTracker) tryAcquire(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *ExecutionTracker) release(id string) {
	t.mu.Lock()
	delete(t.running, id)
	t.mu.Unlock()
}

func (t *ExecutionTracker) persist(log logger.Logger, op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.storeTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		log.Error("failed to persist job bookkeeping",
			logger.String("op", op),
			logger.Error(err),
		)
	}
}

func (t *ExecutionTracker) appendHistory(record *domain.RunRecord, log logger.Logger) {
	if t.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.storeTimeout)
	defer cancel()

	if err := t.history.Append(ctx, record); err != nil {
		log.Warn("failed to append run history", logger.Error(err))
	}
}

// invoke runs the task, converting a panic into an error
func invoke(ctx context.Context, task registry.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task.Run(ctx)
}
