package service

import (
	"context"
	"fmt"
	"time"

	coordinator "encore/internal/coordinator/iface"
	"encore/internal/logger"
)

const reloadTimeout = 30 * time.Second

// Reloader rebuilds the live schedule from the store
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadWatcher reloads the scheduler whenever the data of a ZooKeeper node changes
type ReloadWatcher struct {
	coordinator coordinator.Coordinator
	reloader    Reloader
	path        string
	logger      logger.Logger
}

// NewReloadWatcher creates a watcher on path
func NewReloadWatcher(coord coordinator.Coordinator, reloader Reloader, path string, log logger.Logger) *ReloadWatcher {
	return &ReloadWatcher{
		coordinator: coord,
		reloader:    reloader,
		path:        path,
		logger:      log.With(logger.String("component", "reload_watcher")),
	}
}

// Start makes sure the node exists and installs the watch
func (w *ReloadWatcher) Start(ctx context.Context) error {
	if err := w.coordinator.CreateNode(w.path, []byte{}); err != nil {
		return fmt.Errorf("failed to create reload node: %w", err)
	}

	if err := w.coordinator.WatchNode(w.path, w.handleReloadTrigger); err != nil {
		return fmt.Errorf("failed to watch reload node: %w", err)
	}

	w.logger.Info("watching for reload triggers",
		logger.String("path", w.path),
	)
	return nil
}

// Stop closes the coordinator connection, which ends the watch
func (w *ReloadWatcher) Stop(ctx context.Context) error {
	return w.coordinator.Close()
}

func (w *ReloadWatcher) handleReloadTrigger(data []byte) {
	w.logger.Info("reload triggered",
		logger.String("path", w.path),
		logger.String("data", string(data)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if err := w.reloader.Reload(ctx); err != nil {
		w.logger.Error("reload failed", logger.Error(err))
	}
}
