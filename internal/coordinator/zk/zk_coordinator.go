package zk

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	coordinator "encore/internal/coordinator/iface"
	"encore/internal/logger"

	"github.com/go-zookeeper/zk"
)

const (
	watchRetryMin = 500 * time.Millisecond
	watchRetryMax = 30 * time.Second
)

// nodeReader is the part of *zk.Conn the watch loop needs
type nodeReader interface {
	Get(path string) ([]byte, *zk.Stat, error)
	GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error)
}

type zkCoordinator struct {
	conn   *zk.Conn
	logger logger.Logger

	retryMin  time.Duration
	retryMax  time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewZKCoordinator creates a new ZooKeeper coordinator
func NewZKCoordinator(servers []string, sessionTimeout time.Duration, log logger.Logger) (coordinator.Coordinator, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}

	log.Info("connected to zookeeper",
		logger.Any("servers", servers),
	)

	return &zkCoordinator{
		conn:     conn,
		logger:   log.With(logger.String("component", "zk_coordinator")),
		retryMin: watchRetryMin,
		retryMax: watchRetryMax,
		done:     make(chan struct{}),
	}, nil
}

// CreateNode creates path (and missing parents). An existing node is not an error.
func (c *zkCoordinator) CreateNode(path string, data []byte) error {
	c.logger.Debug("creating zk node",
		logger.String("path", path),
	)

	if err := c.ensureParentPath(path); err != nil {
		return err
	}

	_, err := c.conn.Create(path, data, 0, zk.WorldACL(zk.PermAll))
	if err != nil {
		if errors.Is(err, zk.ErrNodeExists) {
			c.logger.Debug("node already exists",
				logger.String("path", path),
			)
			return nil
		}
		return fmt.Errorf("failed to create node: %w", err)
	}

	c.logger.Info("created zk node",
		logger.String("path", path),
	)

	return nil
}

func (c *zkCoordinator) GetNode(path string) ([]byte, error) {
	data, _, err := c.conn.Get(path)
	if err != nil {
		if errors.Is(err, zk.ErrNoNode) {
			return nil, fmt.Errorf("node not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return data, nil
}

// WatchNode calls handler with the new data every time the node's data changes.
// The watch is re-armed after each event and after a lost session; it ends
// only when the coordinator is closed.
func (c *zkCoordinator) WatchNode(path string, handler func([]byte)) error {
	c.logger.Info("setting up watch on zk node",
		logger.String("path", path),
	)

	go c.watchLoop(c.conn, path, handler)

	return nil
}

// watchLoop keeps a data watch on path armed. When the watch had been lost the
// handler is called with the current data once it is re-armed, since changes
// made in between produced no event.
func (c *zkCoordinator) watchLoop(conn nodeReader, path string, handler func([]byte)) {
	backoff := c.retryMin
	resync := false

	for {
		data, _, events, err := conn.GetW(path)
		if err != nil {
			if isClosing(err) {
				c.logger.Info("zk connection closed, watch ended", logger.String("path", path))
				return
			}
			c.logger.Warn("failed to watch node, retrying",
				logger.String("path", path),
				logger.Duration("retry_in", backoff),
				logger.Error(err),
			)
			if !c.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.retryMax)
			resync = true
			continue
		}
		backoff = c.retryMin

		if resync {
			resync = false
			c.logger.Info("zk watch re-armed, resyncing", logger.String("path", path))
			handler(data)
		}

		var event zk.Event
		var ok bool
		select {
		case event, ok = <-events:
		case <-c.done:
			return
		}
		if !ok {
			resync = true
			if !c.sleep(backoff) {
				return
			}
			continue
		}

		c.logger.Debug("received zk event",
			logger.String("path", event.Path),
			logger.String("type", event.Type.String()),
		)

		if event.Type == zk.EventNotWatching {
			if isClosing(event.Err) {
				c.logger.Info("zk connection closed, watch ended", logger.String("path", path))
				return
			}
			c.logger.Warn("zk watch lost, re-arming",
				logger.String("path", path),
				logger.String("state", event.State.String()),
				logger.Error(event.Err),
			)
			resync = true
			if !c.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.retryMax)
			continue
		}
		if event.Type != zk.EventNodeDataChanged {
			continue
		}

		data, _, err = conn.Get(event.Path)
		if err != nil {
			c.logger.Error("failed to get updated node data",
				logger.String("path", event.Path),
				logger.Error(err),
			)
			continue
		}

		c.logger.Info("node data changed, triggering handler",
			logger.String("path", event.Path),
		)

		handler(data)
	}
}

// sleep waits d and reports false if the coordinator was closed meanwhile
func (c *zkCoordinator) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func isClosing(err error) bool {
	return errors.Is(err, zk.ErrClosing) || errors.Is(err, zk.ErrConnectionClosed)
}

func (c *zkCoordinator) Close() error {
	c.logger.Info("closing zookeeper connection")
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
	return nil
}

// ensureParentPath creates parent directories if they don't exist
func (c *zkCoordinator) ensureParentPath(path string) error {
	parentPath := parentOf(path)
	if parentPath == "/" {
		return nil
	}

	exists, _, err := c.conn.Exists(parentPath)
	if err != nil {
		return fmt.Errorf("failed to check parent path: %w", err)
	}

	if !exists {
		if err := c.ensureParentPath(parentPath); err != nil {
			return err
		}

		_, err := c.conn.Create(parentPath, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return fmt.Errorf("failed to create parent path: %w", err)
		}
	}

	return nil
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
