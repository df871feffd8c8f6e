package domain

import "time"

// FailureReport is what the alert dispatcher receives when a job run fails
type FailureReport struct {
	RunID       string    `json:"run_id"`
	JobID       string    `json:"job_id"`
	JobName     string    `json:"job_name"`
	Schedule    string    `json:"schedule"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}
