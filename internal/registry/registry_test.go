package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context) error { return nil }

func TestNewRegistry(t *testing.T) {
	reg, err := New(
		NewTaskFunc("nightly-cleanup", noop),
		NewTaskFunc("crm-sync", noop),
	)
	require.NoError(t, err)

	task, ok := reg.Lookup("crm-sync")
	require.True(t, ok)
	assert.Equal(t, "crm-sync", task.ID())

	_, ok = reg.Lookup("backup")
	assert.False(t, ok)

	assert.Equal(t, []string{"crm-sync", "nightly-cleanup"}, reg.IDs())
}

func TestNewRegistryRejectsBadTasks(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
	}{
		{name: "duplicate id", tasks: []Task{NewTaskFunc("a", noop), NewTaskFunc("a", noop)}},
		{name: "empty id", tasks: []Task{NewTaskFunc("", noop)}},
		{name: "nil task", tasks: []Task{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tasks...)
			assert.Error(t, err)
		})
	}
}

func TestRunID(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))

	ctx := WithRunID(context.Background(), "run-1")
	assert.Equal(t, "run-1", RunID(ctx))
}
