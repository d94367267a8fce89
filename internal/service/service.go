package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Service is a long-running part of the server, like the relay endpoint
// or a metrics exporter. Run must block until ctx is canceled or the
// service fails.
type Service interface {
	Run(ctx context.Context) error
}

// Func adapts a plain function to the Service interface.
type Func func(ctx context.Context) error

// Run calls f.
func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}

// Manager manages a collection of services.
type Manager struct {
	services []Service
	mu       sync.Mutex // Protects access to the services slice
	wg       *errgroup.Group
}

func NewManager() *Manager {
	return &Manager{services: make([]Service, 0)}
}

// Register adds a new service to the Manager.
func (sm *Manager) Register(s ...Service) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.services = append(sm.services, s...)
}

// Run runs all registered services concurrently using an errgroup. The
// first service to fail cancels the context of all others.
func (sm *Manager) Run(ctx context.Context) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.services) == 0 {
		return
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, s := range sm.services {
		group.Go(func() error {
			return s.Run(ctx)
		})
	}
	sm.wg = group
}

// Wait blocks until all services returned and reports the first error.
func (sm *Manager) Wait() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.services) == 0 {
		return nil
	}
	return sm.wg.Wait()
}
