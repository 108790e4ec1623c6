package system

import (
	"context"
	"fmt"
	"sync"
)

// Manager starts registered services in registration order and stops them in
// reverse order.
type Manager struct {
	mu       sync.Mutex
	services []Service
	names    map[string]bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{names: make(map[string]bool)}
}

// Register adds a service. Names must be unique.
func (m *Manager) Register(svc Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.names[svc.Name()] {
		return fmt.Errorf("service already registered: %s", svc.Name())
	}
	m.names[svc.Name()] = true
	m.services = append(m.services, svc)
	return nil
}

// Start starts all registered services. On failure the services already
// started are stopped in reverse order before returning.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	services := append([]Service(nil), m.services...)
	m.mu.Unlock()

	for i, svc := range services {
		if err := svc.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = services[j].Stop(ctx)
			}
			return fmt.Errorf("start service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// Stop stops all services in reverse registration order. The first error is
// returned but every service is still asked to stop.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	services := append([]Service(nil), m.services...)
	m.mu.Unlock()

	var firstErr error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop service %s: %w", services[i].Name(), err)
		}
	}
	return firstErr
}
