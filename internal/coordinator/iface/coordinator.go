package coordinator

// Coordinator is the ZooKeeper surface used for reload notifications
type Coordinator interface {
	CreateNode(path string, data []byte) error
	GetNode(path string) ([]byte, error)
	WatchNode(path string, handler func([]byte)) error
	Close() error
}
