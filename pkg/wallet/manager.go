package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle position of the managed session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Manager owns the single wallet session of the process.
type Manager struct {
	connector Connector
	logger    LifecycleLogger

	mutex   sync.RWMutex
	state   State
	session Session
	network Network
}

// NewManager wires a Manager around a Connector.
func NewManager(connector Connector, options ...ManagerOption) (*Manager, error) {
	if connector == nil {
		return nil, fmt.Errorf("%w: connector dependency is nil", ErrInvalidManager)
	}
	manager := &Manager{connector: connector, state: StateDisconnected}
	for _, option := range options {
		if option != nil {
			option(manager)
		}
	}
	return manager, nil
}

// Connect opens the session. It fails if a session is already open or
// connecting; a failed attempt leaves the manager disconnected.
func (manager *Manager) Connect(ctx context.Context, request ConnectRequest) error {
	if err := request.Validate(); err != nil {
		return manager.finishConnect(ctx, request, WrapError(errorOperationManager, errorSubjectSession, errorCodeConnect, err))
	}

	manager.mutex.Lock()
	if manager.state != StateDisconnected {
		manager.mutex.Unlock()
		return ErrAlreadyConnected
	}
	manager.state = StateConnecting
	manager.mutex.Unlock()

	session, err := manager.connector.Connect(ctx, request)
	if err == nil && session == nil {
		err = errors.New("connector returned no session")
	}

	manager.mutex.Lock()
	if err != nil {
		manager.state = StateDisconnected
		manager.mutex.Unlock()
		if !errors.Is(err, ErrConnection) {
			err = fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return manager.finishConnect(ctx, request, WrapError(errorOperationManager, errorSubjectSession, errorCodeConnect, err))
	}
	manager.session = session
	manager.network = request.Config.Network
	manager.state = StateConnected
	manager.mutex.Unlock()

	return manager.finishConnect(ctx, request, nil)
}

func (manager *Manager) finishConnect(ctx context.Context, request ConnectRequest, err error) error {
	manager.logLifecycle(ctx, LifecycleLog{
		Operation:  operationConnect,
		Network:    request.Config.Network,
		StorageDir: request.StorageDir,
		Error:      err,
	})
	return err
}

// Session returns the active session or ErrNotConnected.
func (manager *Manager) Session() (Session, error) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	if manager.state != StateConnected || manager.session == nil {
		return nil, ErrNotConnected
	}
	return manager.session, nil
}

// Disconnect closes the active session. Without one it does nothing.
func (manager *Manager) Disconnect(ctx context.Context) error {
	manager.mutex.Lock()
	if manager.state != StateConnected || manager.session == nil {
		manager.mutex.Unlock()
		return nil
	}
	session := manager.session
	network := manager.network
	manager.session = nil
	manager.state = StateDisconnected
	manager.mutex.Unlock()

	err := WrapError(errorOperationManager, errorSubjectSession, errorCodeDisconnect, session.Disconnect(ctx))
	manager.logLifecycle(ctx, LifecycleLog{
		Operation: operationDisconnect,
		Network:   network,
		Error:     err,
	})
	return err
}

// State reports the current lifecycle state.
func (manager *Manager) State() State {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return manager.state
}

// Connected reports whether a session is available.
func (manager *Manager) Connected() bool {
	return manager.State() == StateConnected
}

func (manager *Manager) logLifecycle(ctx context.Context, entry LifecycleLog) {
	if manager.logger == nil {
		return
	}
	entry.Status = operationStatusOK
	if entry.Error != nil {
		entry.Status = operationStatusError
	}
	manager.logger.LogLifecycle(ctx, entry)
}
