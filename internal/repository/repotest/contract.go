// Package repotest holds the behaviour every JobDefinitionRepository implementation must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"encore/internal/domain"
	"encore/internal/repository"
	repositoryIface "encore/internal/repository/iface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunJobDefinitionContract exercises repo. newRepo must return an empty repository.
func RunJobDefinitionContract(t *testing.T, newRepo func(t *testing.T) repositoryIface.JobDefinitionRepository) {
	ctx := context.Background()
	seed := domain.NewJobDefinition("nightly-cleanup", "Nightly cleanup", "0 2 * * *", "prunes run history", true)

	t.Run("CreateIfAbsent inserts once", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.CreateIfAbsent(ctx, seed)
		require.NoError(t, err)
		assert.True(t, created)

		changed := seed.Clone()
		changed.Schedule = "0 3 * * *"
		created, err = repo.CreateIfAbsent(ctx, changed)
		require.NoError(t, err)
		assert.False(t, created)

		got, err := repo.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, "0 2 * * *", got.Schedule)
		assert.Equal(t, domain.JobStatusNever, got.LastStatus)
		assert.Equal(t, "prunes run history", got.Description)
		assert.True(t, got.IsActive)
		assert.Nil(t, got.LastRunAt)
		assert.Nil(t, got.LastError)
	})

	t.Run("GetByID unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, "missing")
		assert.True(t, repository.IsNotFoundError(err))
	})

	t.Run("List is sorted by id", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"crm-sync", "chat-availability", "nightly-cleanup"} {
			_, err := repo.CreateIfAbsent(ctx, domain.NewJobDefinition(id, id, "@hourly", "", true))
			require.NoError(t, err)
		}

		defs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 3)
		assert.Equal(t, "chat-availability", defs[0].ID)
		assert.Equal(t, "crm-sync", defs[1].ID)
		assert.Equal(t, "nightly-cleanup", defs[2].ID)
	})

	t.Run("run bookkeeping transitions", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.CreateIfAbsent(ctx, seed)
		require.NoError(t, err)

		at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkRunning(ctx, seed.ID, at))

		got, err := repo.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusRunning, got.LastStatus)
		require.NotNil(t, got.LastRunAt)
		assert.True(t, at.Equal(*got.LastRunAt))

		require.NoError(t, repo.MarkFailed(ctx, seed.ID, "disk full"))
		got, err = repo.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusError, got.LastStatus)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "disk full", *got.LastError)

		require.NoError(t, repo.MarkSucceeded(ctx, seed.ID))
		got, err = repo.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusSuccess, got.LastStatus)
		assert.Nil(t, got.LastError)
		require.NotNil(t, got.LastRunAt)
		assert.True(t, at.Equal(*got.LastRunAt))
	})

	t.Run("admin configuration", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.CreateIfAbsent(ctx, seed)
		require.NoError(t, err)

		require.NoError(t, repo.SetActive(ctx, seed.ID, false))
		require.NoError(t, repo.SetSchedule(ctx, seed.ID, "30 1 * * *"))

		got, err := repo.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, "30 1 * * *", got.Schedule)
	})

	t.Run("updates on unknown id", func(t *testing.T) {
		repo := newRepo(t)

		assert.True(t, repository.IsNotFoundError(repo.MarkRunning(ctx, "missing", time.Now())))
		assert.True(t, repository.IsNotFoundError(repo.MarkSucceeded(ctx, "missing")))
		assert.True(t, repository.IsNotFoundError(repo.MarkFailed(ctx, "missing", "x")))
		assert.True(t, repository.IsNotFoundError(repo.SetActive(ctx, "missing", true)))
		assert.True(t, repository.IsNotFoundError(repo.SetSchedule(ctx, "missing", "@daily")))
	})
}
