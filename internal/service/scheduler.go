package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/registry"
	repository "encore/internal/repository/iface"

	"github.com/robfig/cron/v3"
)

var (
	// ErrUnknownJob is returned for a job id with no registered task
	ErrUnknownJob = errors.New("unknown job")
	// ErrInvalidSchedule is returned for a schedule the cron parser rejects
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// scheduleParser accepts standard 5-field expressions and descriptors such as @daily or @every 10m
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// IScheduler is the scheduler surface used by the admin handlers and the reload watcher
type IScheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	StartJob(ctx context.Context, def *domain.JobDefinition) error
	StopJob(id string)
	StartAll(ctx context.Context) error
	Reload(ctx context.Context) error
	ListActive() []string
	NextRun(id string) (time.Time, bool)
	ValidateSchedule(expr string) error
	Trigger(ctx context.Context, id string) error
}

// Scheduler keeps exactly one cron entry per enabled, registered job definition
type Scheduler struct {
	registry *registry.Registry
	repo     repository.JobDefinitionRepository
	tracker  *ExecutionTracker
	cron     *cron.Cron
	location *time.Location
	now      func() time.Time
	logger   logger.Logger

	mu      sync.Mutex
	handles map[string]cron.EntryID
}

// NewScheduler creates a scheduler evaluating every schedule in location
func NewScheduler(
	reg *registry.Registry,
	repo repository.JobDefinitionRepository,
	tracker *ExecutionTracker,
	location *time.Location,
	log logger.Logger,
) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	cronLogger := logger.NewCronLogger(log)

	return &Scheduler{
		registry: reg,
		repo:     repo,
		tracker:  tracker,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithParser(scheduleParser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		location: location,
		now:      time.Now,
		logger:   log.With(logger.String("component", "scheduler")),
		handles:  make(map[string]cron.EntryID),
	}
}

// Start begins dispatching fires
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started",
		logger.String("timezone", s.location.String()),
	)
	return nil
}

// Stop halts dispatching and waits for in-flight runs to return or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop interrupted: %w", ctx.Err())
	}
}

// StartJob (re)arms def. Any entry already held for the id is removed first.
// Inactive definitions are left unscheduled without error.
func (s *Scheduler) StartJob(ctx context.Context, def *domain.JobDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startJobLocked(def)
}

// StopJob removes the live entry for id, if there is one
func (s *Scheduler) StopJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopJobLocked(id)
}

// StartAll schedules every definition in the store. A bad definition is logged
// and skipped; only a failure to read the store is returned.
func (s *Scheduler) StartAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startAllLocked(ctx)
}

// Reload rebuilds every live entry from the store. When the store cannot be read
// the current entries are kept. Runs already in flight are not interrupted.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("reloading job definitions")
	defs, err := s.loadDefinitions(ctx)
	if err != nil {
		s.logger.Warn("reload aborted, keeping current schedule",
			logger.Int("active", len(s.handles)),
		)
		return err
	}

	for id := range s.handles {
		s.stopJobLocked(id)
	}
	s.handles = make(map[string]cron.EntryID)

	s.armLocked(defs)
	return nil
}

// ListActive returns the sorted ids of jobs holding a live entry
func (s *Scheduler) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NextRun returns the next fire time of id in the operational timezone
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.handles[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Schedule.Next(s.now().In(s.location)), true
}

// ValidateSchedule checks that expr parses with the scheduler's parser
func (s *Scheduler) ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return nil
}

// Trigger runs id once, out of band, through the execution tracker.
// Disabled jobs may be triggered; a run already in flight makes this fire a skip.
func (s *Scheduler) Trigger(ctx context.Context, id string) error {
	task, ok := s.registry.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", id, err)
	}

	s.logger.Info("manual trigger",
		logger.String("job_id", id),
	)

	go s.tracker.Execute(context.Background(), def, task)
	return nil
}

func (s *Scheduler) startAllLocked(ctx context.Context) error {
	defs, err := s.loadDefinitions(ctx)
	if err != nil {
		return err
	}
	s.armLocked(defs)
	return nil
}

func (s *Scheduler) loadDefinitions(ctx context.Context) ([]*domain.JobDefinition, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to load job definitions", logger.Error(err))
		return nil, fmt.Errorf("failed to load job definitions: %w", err)
	}
	return defs, nil
}

func (s *Scheduler) armLocked(defs []*domain.JobDefinition) {
	for _, def := range defs {
		// per-job configuration errors are already logged
		_ = s.startJobLocked(def)
	}

	s.logger.Info("job definitions scheduled",
		logger.Int("definitions", len(defs)),
		logger.Int("active", len(s.handles)),
	)
}

func (s *Scheduler) startJobLocked(def *domain.JobDefinition) error {
	s.stopJobLocked(def.ID)

	task, ok := s.registry.Lookup(def.ID)
	if !ok {
		s.logger.Warn("no task registered for job, skipping",
			logger.String("job_id", def.ID),
		)
		return fmt.Errorf("%w: %s", ErrUnknownJob, def.ID)
	}

	if !def.IsActive {
		s.logger.Debug("job disabled, not scheduling",
			logger.String("job_id", def.ID),
		)
		return nil
	}

	schedule, err := scheduleParser.Parse(def.Schedule)
	if err != nil {
		s.logger.Error("invalid schedule, job not scheduled",
			logger.String("job_id", def.ID),
			logger.String("schedule", def.Schedule),
			logger.Error(err),
		)
		return fmt.Errorf("%w %q for job %s: %v", ErrInvalidSchedule, def.Schedule, def.ID, err)
	}

	snapshot := def.Clone()
	entryID := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.tracker.Execute(context.Background(), snapshot, task)
	}))
	s.handles[def.ID] = entryID

	s.logger.Info("job scheduled",
		logger.String("job_id", def.ID),
		logger.String("schedule", def.Schedule),
		logger.Time("next_run_at", schedule.Next(s.now().In(s.location))),
	)
	return nil
}

func (s *Scheduler) stopJobLocked(id string) {
	entryID, ok := s.handles[id]
	if !ok {
		return
	}
	s.cron.Remove(entryID)
	delete(s.handles, id)

	s.logger.Debug("job unscheduled",
		logger.String("job_id", id),
	)
}
