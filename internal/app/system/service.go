package system

import (
	"context"
	"fmt"

	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Service represents a lifecycle-managed component. All application modules
// must implement this interface so the system manager can start and stop them
// deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	services []Service
	names    map[string]bool
	started  int
	log      *logger.Logger
}

// NewManager constructs an empty manager.
func NewManager() *Manager {
	return &Manager{
		names: make(map[string]bool),
		log:   logger.NewDefault("system"),
	}
}

// Register adds a service to the start order. Names must be unique; not
// safe to call after Start.
func (m *Manager) Register(svc Service) error {
	if svc.Name() == "" {
		return fmt.Errorf("service has no name")
	}
	if m.names[svc.Name()] {
		return fmt.Errorf("service %s already registered", svc.Name())
	}
	m.names[svc.Name()] = true
	m.services = append(m.services, svc)
	return nil
}

// Start brings every registered service up. On failure, services already
// started are stopped in reverse before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	for i, svc := range m.services {
		m.log.WithField("service", svc.Name()).Info("starting service")
		if err := svc.Start(ctx); err != nil {
			m.started = i
			m.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
	}
	m.started = len(m.services)
	return nil
}

// Stop shuts all started services down in reverse order. Individual stop
// failures are logged; the first one is returned after everything has been
// given the chance to stop.
func (m *Manager) Stop(ctx context.Context) error {
	return m.stopStarted(ctx)
}

func (m *Manager) stopStarted(ctx context.Context) error {
	var firstErr error
	for i := m.started - 1; i >= 0; i-- {
		svc := m.services[i]
		m.log.WithField("service", svc.Name()).Info("stopping service")
		if err := svc.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Error("stop service")
			if firstErr == nil {
				firstErr = fmt.Errorf("stop %s: %w", svc.Name(), err)
			}
		}
	}
	m.started = 0
	return firstErr
}

// NoopService marks a component that needs no lifecycle hooks but should
// still appear in the manager's registry.
type NoopService struct {
	ServiceName string
}

func (s NoopService) Name() string                { return s.ServiceName }
func (s NoopService) Start(context.Context) error { return nil }
func (s NoopService) Stop(context.Context) error  { return nil }
