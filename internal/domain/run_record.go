package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunOutcome is the result of a single fire as kept in run history
type RunOutcome string

const (
	RunOutcomeSuccess RunOutcome = "success"
	RunOutcomeError   RunOutcome = "error"
	// RunOutcomeSkipped marks a fire dropped because the previous run was still going.
	// It is only ever recorded in run history, never in the job's bookkeeping.
	RunOutcomeSkipped RunOutcome = "skipped"
)

// RunRecord is one entry of a job's run history
type RunRecord struct {
	RunID      string     `json:"run_id"`
	JobID      string     `json:"job_id"`
	FiredAt    time.Time  `json:"fired_at"`
	FinishedAt time.Time  `json:"finished_at"`
	DurationMS int64      `json:"duration_ms"`
	Outcome    RunOutcome `json:"outcome"`
	Error      string     `json:"error,omitempty"`
}

// NewRunRecord starts a record for a fire of jobID
func NewRunRecord(jobID string, firedAt time.Time) *RunRecord {
	return &RunRecord{
		RunID:   uuid.New().String(),
		JobID:   jobID,
		FiredAt: firedAt,
	}
}

// Finish stamps the outcome and duration
func (r *RunRecord) Finish(outcome RunOutcome, finishedAt time.Time, err error) {
	r.Outcome = outcome
	r.FinishedAt = finishedAt
	r.DurationMS = finishedAt.Sub(r.FiredAt).Milliseconds()
	if err != nil {
		r.Error = err.Error()
	}
}
