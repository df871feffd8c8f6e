package domain

import "time"

// JobStatus is the persisted outcome of a job's most recent execution
type JobStatus string

const (
	JobStatusNever   JobStatus = "never"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusError   JobStatus = "error"
)

// JobDefinition is the persistent configuration and run bookkeeping of one scheduled job
type JobDefinition struct {
	ID          string     `json:"id" dynamodbav:"id" yaml:"id"`
	Name        string     `json:"name" dynamodbav:"name" yaml:"name"`
	Schedule    string     `json:"schedule" dynamodbav:"schedule" yaml:"schedule"`
	IsActive    bool       `json:"is_active" dynamodbav:"is_active" yaml:"is_active"`
	Description string     `json:"description,omitempty" dynamodbav:"description,omitempty" yaml:"description"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty" dynamodbav:"last_run_at,omitempty" yaml:"-"`
	LastStatus  JobStatus  `json:"last_status" dynamodbav:"last_status" yaml:"-"`
	LastError   *string    `json:"last_error,omitempty" dynamodbav:"last_error,omitempty" yaml:"-"`
}

// NewJobDefinition creates a definition that has never run
func NewJobDefinition(id, name, schedule, description string, active bool) *JobDefinition {
	return &JobDefinition{
		ID:          id,
		Name:        name,
		Schedule:    schedule,
		IsActive:    active,
		Description: description,
		LastStatus:  JobStatusNever,
	}
}

// Clone returns a deep copy so callers can't mutate stored bookkeeping
func (j *JobDefinition) Clone() *JobDefinition {
	if j == nil {
		return nil
	}
	cp := *j
	if j.LastRunAt != nil {
		at := *j.LastRunAt
		cp.LastRunAt = &at
	}
	if j.LastError != nil {
		msg := *j.LastError
		cp.LastError = &msg
	}
	return &cp
}
