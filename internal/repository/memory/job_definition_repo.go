package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/repository"
	repositoryIface "encore/internal/repository/iface"
)

type jobDefinitionRepository struct {
	mu     sync.RWMutex
	defs   map[string]*domain.JobDefinition
	logger logger.Logger
}

// NewJobDefinitionRepository creates a process-local store, used by the "memory" driver and in tests
func NewJobDefinitionRepository(log logger.Logger, defs ...*domain.JobDefinition) repositoryIface.JobDefinitionRepository {
	r := &jobDefinitionRepository{
		defs:   make(map[string]*domain.JobDefinition, len(defs)),
		logger: log.With(logger.String("component", "memory_job_repository")),
	}
	for _, def := range defs {
		r.defs[def.ID] = def.Clone()
	}
	return r
}

func (r *jobDefinitionRepository) List(ctx context.Context) ([]*domain.JobDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*domain.JobDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def.Clone())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func (r *jobDefinitionRepository) GetByID(ctx context.Context, id string) (*domain.JobDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return def.Clone(), nil
}

func (r *jobDefinitionRepository) CreateIfAbsent(ctx context.Context, def *domain.JobDefinition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.ID]; exists {
		return false, nil
	}
	stored := def.Clone()
	if stored.LastStatus == "" {
		stored.LastStatus = domain.JobStatusNever
	}
	r.defs[def.ID] = stored
	return true, nil
}

func (r *jobDefinitionRepository) MarkRunning(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(def *domain.JobDefinition) {
		def.LastRunAt = &at
		def.LastStatus = domain.JobStatusRunning
	})
}

func (r *jobDefinitionRepository) MarkSucceeded(ctx context.Context, id string) error {
	return r.update(id, func(def *domain.JobDefinition) {
		def.LastStatus = domain.JobStatusSuccess
		def.LastError = nil
	})
}

func (r *jobDefinitionRepository) MarkFailed(ctx context.Context, id string, message string) error {
	return r.update(id, func(def *domain.JobDefinition) {
		def.LastStatus = domain.JobStatusError
		def.LastError = &message
	})
}

func (r *jobDefinitionRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(id, func(def *domain.JobDefinition) {
		def.IsActive = active
	})
}

func (r *jobDefinitionRepository) SetSchedule(ctx context.Context, id string, schedule string) error {
	return r.update(id, func(def *domain.JobDefinition) {
		def.Schedule = schedule
	})
}

func (r *jobDefinitionRepository) update(id string, mutate func(def *domain.JobDefinition)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[id]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	mutate(def)
	return nil
}
