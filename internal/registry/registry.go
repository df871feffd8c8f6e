package registry

import (
	"context"
	"fmt"
	"sort"
)

// Task is a unit of scheduled business logic registered under a stable job id
type Task interface {
	ID() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a plain function into a Task
type TaskFunc struct {
	id string
	fn func(ctx context.Context) error
}

// NewTaskFunc wraps fn as a Task with the given id
func NewTaskFunc(id string, fn func(ctx context.Context) error) Task {
	return &TaskFunc{id: id, fn: fn}
}

func (t *TaskFunc) ID() string { return t.id }

func (t *TaskFunc) Run(ctx context.Context) error { return t.fn(ctx) }

// Registry maps job ids to tasks. It is filled once at startup and read-only afterwards.
type Registry struct {
	tasks map[string]Task
}

// New builds a registry from tasks, rejecting empty or duplicate ids
func New(tasks ...Task) (*Registry, error) {
	r := &Registry{tasks: make(map[string]Task, len(tasks))}
	for _, task := range tasks {
		if err := r.register(task); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(task Task) error {
	if task == nil || task.ID() == "" {
		return fmt.Errorf("task must have an id")
	}
	if _, exists := r.tasks[task.ID()]; exists {
		return fmt.Errorf("task %q registered twice", task.ID())
	}
	r.tasks[task.ID()] = task
	return nil
}

// Lookup returns the task registered under id
func (r *Registry) Lookup(id string) (Task, bool) {
	task, ok := r.tasks[id]
	return task, ok
}

// IDs returns all registered ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type runIDKey struct{}

// WithRunID attaches the id of the current run to ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the id of the run executing under ctx, if any
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
