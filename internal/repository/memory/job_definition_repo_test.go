package memory

import (
	"context"
	"testing"

	"encore/internal/domain"
	"encore/internal/logger"
	repositoryIface "encore/internal/repository/iface"
	"encore/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobDefinitionContract(t *testing.T) {
	repotest.RunJobDefinitionContract(t, func(t *testing.T) repositoryIface.JobDefinitionRepository {
		return NewJobDefinitionRepository(logger.NewNopLogger())
	})
}

func TestReturnedDefinitionsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewJobDefinitionRepository(logger.NewNopLogger(),
		domain.NewJobDefinition("crm-sync", "CRM sync", "@hourly", "", true))

	def, err := repo.GetByID(ctx, "crm-sync")
	require.NoError(t, err)
	def.IsActive = false

	again, err := repo.GetByID(ctx, "crm-sync")
	require.NoError(t, err)
	assert.True(t, again.IsActive)
}
