// Package container is a minimal service container for the persistence
// runtime, plus the wire injector that assembles it from configuration.
package container

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateService indicates a second service with the same type key.
	ErrDuplicateService = errors.New("service already registered")

	// ErrNilService indicates Add was called with nil.
	ErrNilService = errors.New("nil service")
)

// Service is a container-managed service.
type Service interface {
	// ServiceType is the key the service is registered under.
	ServiceType() string

	// Cleanup releases the service's resources when the container shuts down.
	Cleanup()
}

// Container holds services keyed by type and cleans them up in reverse
// registration order.
type Container struct {
	mu       sync.RWMutex
	services []Service
	byType   map[string]Service
	cleaned  bool
}

// New creates an empty container.
func New() *Container {
	return &Container{byType: make(map[string]Service)}
}

// Add registers svc under its ServiceType.
func (c *Container) Add(svc Service) error {
	if svc == nil {
		return ErrNilService
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := svc.ServiceType()
	if _, exists := c.byType[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, key)
	}
	c.byType[key] = svc
	c.services = append(c.services, svc)
	return nil
}

// Get returns the service registered under key.
func (c *Container) Get(key string) (Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.byType[key]
	return svc, ok
}

// Lookup returns the service under key as a T.
func Lookup[T Service](c *Container, key string) (T, bool) {
	var zero T
	svc, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Types returns the registered keys in registration order.
func (c *Container) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, len(c.services))
	for i, svc := range c.services {
		keys[i] = svc.ServiceType()
	}
	return keys
}

// Cleanup calls Cleanup on every service, last registered first. Only the
// first call has any effect.
func (c *Container) Cleanup() {
	c.mu.Lock()
	if c.cleaned {
		c.mu.Unlock()
		return
	}
	c.cleaned = true
	services := c.services
	c.mu.Unlock()

	for i := len(services) - 1; i >= 0; i-- {
		services[i].Cleanup()
	}
}
