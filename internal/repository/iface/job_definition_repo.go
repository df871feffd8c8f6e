package repository

import (
	"context"
	"time"

	"encore/internal/domain"
)

// JobDefinitionRepository is the only way other components read or mutate job definitions
type JobDefinitionRepository interface {
	List(ctx context.Context) ([]*domain.JobDefinition, error)
	GetByID(ctx context.Context, id string) (*domain.JobDefinition, error)

	// CreateIfAbsent inserts def unless a definition with the same id exists.
	// It reports whether the row was created.
	CreateIfAbsent(ctx context.Context, def *domain.JobDefinition) (bool, error)

	// Run bookkeeping
	MarkRunning(ctx context.Context, id string, at time.Time) error
	MarkSucceeded(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, message string) error

	// Administrative configuration
	SetActive(ctx context.Context, id string, active bool) error
	SetSchedule(ctx context.Context, id string, schedule string) error
}
