package handler

import (
	"context"
	"errors"
	"strconv"

	"encore/commons/error_handler"
	"encore/commons/handler"
	"encore/internal/domain"
	"encore/internal/dto"
	"encore/internal/logger"
	"encore/internal/repository"
	repositoryIface "encore/internal/repository/iface"
	"encore/internal/service"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// RunningChecker reports whether a job currently has a run in flight
type RunningChecker interface {
	IsRunning(id string) bool
}

type JobHandler struct {
	scheduler service.IScheduler
	repo      repositoryIface.JobDefinitionRepository
	history   repositoryIface.RunHistoryRepository
	running   RunningChecker
	logger    logger.Logger
}

// NewJobHandler creates the administrative job handler
func NewJobHandler(
	scheduler service.IScheduler,
	repo repositoryIface.JobDefinitionRepository,
	history repositoryIface.RunHistoryRepository,
	running RunningChecker,
	log logger.Logger,
) *JobHandler {
	return &JobHandler{
		scheduler: scheduler,
		repo:      repo,
		history:   history,
		running:   running,
		logger:    log.With(logger.String("component", "job_handler")),
	}
}

// ListJobsService returns every job definition with its live state
func (h *JobHandler) ListJobsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.JobListResponse, *error_handler.ErrorCollection) {
	defs, err := h.repo.List(ctx)
	if err != nil {
		h.logger.WithContext(ctx).Error("failed to list jobs", logger.Error(err))
		return dto.JobListResponse{}, error_handler.NewInternalError("Failed to list jobs")
	}

	active := make(map[string]struct{})
	for _, id := range h.scheduler.ListActive() {
		active[id] = struct{}{}
	}

	jobs := make([]dto.JobResponse, 0, len(defs))
	for _, def := range defs {
		_, scheduled := active[def.ID]
		jobs = append(jobs, h.toResponse(def, scheduled))
	}

	return dto.JobListResponse{
		Jobs: jobs,
		Meta: dto.ListMeta{Count: len(jobs)},
	}, nil
}

// GetJobService returns a single job
func (h *JobHandler) GetJobService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.JobResponse, *error_handler.ErrorCollection) {
	jobID := ioutil.PathParam("job_id")

	def, err := h.repo.GetByID(ctx, jobID)
	if err != nil {
		return dto.JobResponse{}, h.mapError(ctx, jobID, "get job", err)
	}

	return h.toResponse(def, h.isScheduled(jobID)), nil
}

// EnableJobService marks a job active and reloads the schedule
func (h *JobHandler) EnableJobService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.JobResponse, *error_handler.ErrorCollection) {
	return h.setActive(ctx, ioutil.PathParam("job_id"), true)
}

// DisableJobService marks a job inactive and reloads the schedule
func (h *JobHandler) DisableJobService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.JobResponse, *error_handler.ErrorCollection) {
	return h.setActive(ctx, ioutil.PathParam("job_id"), false)
}

func (h *JobHandler) setActive(ctx context.Context, jobID string, active bool) (dto.JobResponse, *error_handler.ErrorCollection) {
	h.logger.WithContext(ctx).Info("updating job active flag",
		logger.String("job_id", jobID),
		logger.Bool("is_active", active))

	if err := h.repo.SetActive(ctx, jobID, active); err != nil {
		return dto.JobResponse{}, h.mapError(ctx, jobID, "set active", err)
	}

	return h.reloadAndGet(ctx, jobID)
}

// UpdateScheduleService validates and stores a new cron expression, then reloads
func (h *JobHandler) UpdateScheduleService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.UpdateScheduleRequest],
) (dto.JobResponse, *error_handler.ErrorCollection) {
	jobID := ioutil.PathParam("job_id")
	schedule := ioutil.Body.Schedule

	if err := h.scheduler.ValidateSchedule(schedule); err != nil {
		h.logger.WithContext(ctx).Warn("rejected schedule update",
			logger.String("job_id", jobID),
			logger.String("schedule", schedule),
			logger.Error(err))
		return dto.JobResponse{}, error_handler.NewValidationError(err.Error())
	}

	if err := h.repo.SetSchedule(ctx, jobID, schedule); err != nil {
		return dto.JobResponse{}, h.mapError(ctx, jobID, "set schedule", err)
	}

	h.logger.WithContext(ctx).Info("job schedule updated",
		logger.String("job_id", jobID),
		logger.String("schedule", schedule))

	return h.reloadAndGet(ctx, jobID)
}

// TriggerJobService starts an out-of-band run
func (h *JobHandler) TriggerJobService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.TriggerJobResponse, *error_handler.ErrorCollection) {
	jobID := ioutil.PathParam("job_id")

	if err := h.scheduler.Trigger(ctx, jobID); err != nil {
		return dto.TriggerJobResponse{}, h.mapError(ctx, jobID, "trigger", err)
	}

	return dto.TriggerJobResponse{
		JobID:   jobID,
		Message: "Job run started",
	}, nil
}

// ReloadService rebuilds the whole schedule from the store
func (h *JobHandler) ReloadService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.ReloadResponse, *error_handler.ErrorCollection) {
	if err := h.scheduler.Reload(ctx); err != nil {
		h.logger.WithContext(ctx).Error("reload failed", logger.Error(err))
		return dto.ReloadResponse{}, error_handler.NewInternalError("Failed to reload jobs")
	}

	return dto.ReloadResponse{Active: h.scheduler.ListActive()}, nil
}

// ListRunsService returns the most recent runs of a job, newest first
func (h *JobHandler) ListRunsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.RunListResponse, *error_handler.ErrorCollection) {
	jobID := ioutil.PathParam("job_id")

	limit := defaultRunsLimit
	if raw := ioutil.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRunsLimit {
			return dto.RunListResponse{}, error_handler.NewValidationError("limit must be between 1 and 100")
		}
		limit = n
	}

	if _, err := h.repo.GetByID(ctx, jobID); err != nil {
		return dto.RunListResponse{}, h.mapError(ctx, jobID, "get job", err)
	}

	runs, err := h.history.Recent(ctx, jobID, limit)
	if err != nil {
		h.logger.WithContext(ctx).Error("failed to read run history",
			logger.String("job_id", jobID),
			logger.Error(err))
		return dto.RunListResponse{}, error_handler.NewInternalError("Failed to read run history")
	}
	if runs == nil {
		runs = []*domain.RunRecord{}
	}

	return dto.RunListResponse{
		JobID: jobID,
		Runs:  runs,
		Meta:  dto.ListMeta{Count: len(runs)},
	}, nil
}

func (h *JobHandler) reloadAndGet(ctx context.Context, jobID string) (dto.JobResponse, *error_handler.ErrorCollection) {
	if err := h.scheduler.Reload(ctx); err != nil {
		h.logger.WithContext(ctx).Error("reload failed", logger.Error(err))
		return dto.JobResponse{}, error_handler.NewInternalError("Job updated but reload failed")
	}

	def, err := h.repo.GetByID(ctx, jobID)
	if err != nil {
		return dto.JobResponse{}, h.mapError(ctx, jobID, "get job", err)
	}
	return h.toResponse(def, h.isScheduled(jobID)), nil
}

func (h *JobHandler) isScheduled(jobID string) bool {
	for _, id := range h.scheduler.ListActive() {
		if id == jobID {
			return true
		}
	}
	return false
}

func (h *JobHandler) toResponse(def *domain.JobDefinition, scheduled bool) dto.JobResponse {
	resp := dto.JobResponse{
		ID:          def.ID,
		Name:        def.Name,
		Schedule:    def.Schedule,
		Description: def.Description,
		IsActive:    def.IsActive,
		Scheduled:   scheduled,
		Running:     h.running.IsRunning(def.ID),
		LastRunAt:   def.LastRunAt,
		LastStatus:  def.LastStatus,
		LastError:   def.LastError,
	}
	if next, ok := h.scheduler.NextRun(def.ID); ok {
		resp.NextRunAt = &next
	}
	return resp
}

func (h *JobHandler) mapError(ctx context.Context, jobID, op string, err error) *error_handler.ErrorCollection {
	switch {
	case repository.IsNotFoundError(err), errors.Is(err, service.ErrUnknownJob):
		return error_handler.NewNotFoundError("Job not found: " + jobID)
	case errors.Is(err, service.ErrInvalidSchedule):
		return error_handler.NewValidationError(err.Error())
	default:
		h.logger.WithContext(ctx).Error("job operation failed",
			logger.String("op", op),
			logger.String("job_id", jobID),
			logger.Error(err))
		return error_handler.NewInternalError("Internal server error")
	}
}
