package dto

import (
	"time"

	"encore/internal/domain"
)

// JobResponse is a job definition plus its live scheduling state
type JobResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Schedule    string           `json:"schedule"`
	Description string           `json:"description,omitempty"`
	IsActive    bool             `json:"is_active"`
	Scheduled   bool             `json:"scheduled"`
	Running     bool             `json:"running"`
	NextRunAt   *time.Time       `json:"next_run_at,omitempty"`
	LastRunAt   *time.Time       `json:"last_run_at,omitempty"`
	LastStatus  domain.JobStatus `json:"last_status"`
	LastError   *string          `json:"last_error,omitempty"`
}

type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
	Meta ListMeta      `json:"meta"`
}

// UpdateScheduleRequest replaces a job's cron expression
type UpdateScheduleRequest struct {
	Schedule string `json:"schedule" binding:"required"`
}

type TriggerJobResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type ReloadResponse struct {
	Active []string `json:"active"`
}

type RunListResponse struct {
	JobID string              `json:"job_id"`
	Runs  []*domain.RunRecord `json:"runs"`
	Meta  ListMeta            `json:"meta"`
}
