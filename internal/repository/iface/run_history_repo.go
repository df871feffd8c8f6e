package repository

import (
	"context"
	"time"

	"encore/internal/domain"
)

// RunHistoryRepository keeps a bounded list of recent runs per job
type RunHistoryRepository interface {
	Append(ctx context.Context, record *domain.RunRecord) error
	Recent(ctx context.Context, jobID string, limit int) ([]*domain.RunRecord, error)
	Prune(ctx context.Context, jobID string, olderThan time.Time) (int, error)
}
