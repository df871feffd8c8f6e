package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"encore/internal/domain"
	repository "encore/internal/repository/iface"
	"encore/internal/slack"
)

type mockNotifier struct {
	mu      sync.Mutex
	reports []domain.FailureReport
	err     error
}

func (m *mockNotifier) NotifyFailure(ctx context.Context, report domain.FailureReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return m.err
}

func (m *mockNotifier) Reports() []domain.FailureReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FailureReport(nil), m.reports...)
}

type mockSlack struct {
	mu   sync.Mutex
	sent []slack.Message
	err  error
}

func (m *mockSlack) Send(ctx context.Context, msg slack.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockSlack) Sent() []slack.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]slack.Message(nil), m.sent...)
}

var errStoreDown = errors.New("store unavailable")

// failingRepo delegates reads and fails every bookkeeping write
type failingRepo struct {
	repository.JobDefinitionRepository
}

func (f *failingRepo) MarkRunning(ctx context.Context, id string, at time.Time) error {
	return errStoreDown
}

func (f *failingRepo) MarkSucceeded(ctx context.Context, id string) error {
	return errStoreDown
}

func (f *failingRepo) MarkFailed(ctx context.Context, id string, message string) error {
	return errStoreDown
}

type mockCoordinator struct {
	mu       sync.Mutex
	nodes    map[string][]byte
	handlers map[string]func([]byte)
	closed   bool
}

func newMockCoordinator() *mockCoordinator {
	return &mockCoordinator{
		nodes:    make(map[string][]byte),
		handlers: make(map[string]func([]byte)),
	}
}

func (m *mockCoordinator) CreateNode(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[path]; !ok {
		m.nodes[path] = data
	}
	return nil
}

func (m *mockCoordinator) GetNode(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.nodes[path]
	if !ok {
		return nil, errors.New("node not found")
	}
	return data, nil
}

func (m *mockCoordinator) WatchNode(path string, handler func([]byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
	return nil
}

func (m *mockCoordinator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// set updates the node and fires its watch synchronously
func (m *mockCoordinator) set(path string, data []byte) {
	m.mu.Lock()
	m.nodes[path] = data
	handler := m.handlers[path]
	m.mu.Unlock()
	if handler != nil {
		handler(data)
	}
}

type countingReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingReloader) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}
