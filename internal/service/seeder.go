package service

import (
	"context"
	"fmt"

	"encore/internal/domain"
	"encore/internal/logger"
	repository "encore/internal/repository/iface"
)

// Seeder inserts the deploy-time job definitions without overwriting admin edits
type Seeder struct {
	repo   repository.JobDefinitionRepository
	logger logger.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(repo repository.JobDefinitionRepository, log logger.Logger) *Seeder {
	return &Seeder{
		repo:   repo,
		logger: log.With(logger.String("component", "seeder")),
	}
}

// Seed creates every definition that does not exist yet and returns how many were created
func (s *Seeder) Seed(ctx context.Context, defs []*domain.JobDefinition) (int, error) {
	created := 0
	for _, def := range defs {
		if def.ID == "" {
			return created, fmt.Errorf("seed definition without id")
		}

		seed := domain.NewJobDefinition(def.ID, def.Name, def.Schedule, def.Description, def.IsActive)
		ok, err := s.repo.CreateIfAbsent(ctx, seed)
		if err != nil {
			return created, fmt.Errorf("failed to seed job %s: %w", def.ID, err)
		}
		if ok {
			created++
			s.logger.Info("seeded job definition",
				logger.String("job_id", def.ID),
				logger.String("schedule", def.Schedule),
				logger.Bool("is_active", def.IsActive),
			)
		}
	}

	s.logger.Info("job definitions seeded",
		logger.Int("seeds", len(defs)),
		logger.Int("created", created),
	)
	return created, nil
}
