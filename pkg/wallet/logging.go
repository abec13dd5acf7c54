package wallet

import "context"

// ManagerOption configures a Manager instance.
type ManagerOption func(*Manager)

// LifecycleLogger records connect and disconnect events emitted by Manager.
type LifecycleLogger interface {
	LogLifecycle(ctx context.Context, entry LifecycleLog)
}

// LifecycleLog describes a session state change.
type LifecycleLog struct {
	Operation  string
	Network    Network
	StorageDir string
	Status     string
	Error      error
}

// WithLifecycleLogger wires a logger that receives callbacks for every state change.
func WithLifecycleLogger(logger LifecycleLogger) ManagerOption {
	return func(manager *Manager) {
		manager.logger = logger
	}
}
