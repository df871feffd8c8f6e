package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"encore/internal/domain"
	"encore/internal/logger"
	repositoryIface "encore/internal/repository/iface"
	"encore/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	store, err := Open(context.Background(), MemoryPath, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJobDefinitionContract(t *testing.T) {
	repotest.RunJobDefinitionContract(t, func(t *testing.T) repositoryIface.JobDefinitionRepository {
		return openMemory(t)
	})
}

func TestOpenFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "jobs.db")

	store, err := Open(ctx, path, logger.NewNopLogger())
	require.NoError(t, err)
	_, err = store.CreateIfAbsent(ctx, domain.NewJobDefinition("crm-sync", "CRM sync", "*/15 * * * *", "", true))
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, "crm-sync", "timeout"))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path, logger.NewNopLogger())
	require.NoError(t, err)
	defer store.Close()

	def, err := store.GetByID(ctx, "crm-sync")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusError, def.LastStatus)
	require.NotNil(t, def.LastError)
	assert.Equal(t, "timeout", *def.LastError)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", logger.NewNopLogger())
	assert.Error(t, err)
}
