package persistunit

import (
	"context"
	"log/slog"
)

// ServiceType is the key under which Services registers with a container.
const ServiceType = "persistunit.InjectionServices"

// InjectionPoint describes where a persistence resource is injected.
// The only thing the registry needs from it is the unit name.
type InjectionPoint interface {
	UnitName() (string, error)
}

// UnitName is an InjectionPoint with a fixed unit name.
type UnitName string

// UnitName returns the name itself.
func (n UnitName) UnitName() (string, error) {
	return string(n), nil
}

// Services serves persistence injection points from a Registry.
// It resolves factories for unit injection points and opens fresh sessions
// for context injection points.
type Services struct {
	registry *Registry
}

// NewServices creates injection services backed by registry.
func NewServices(registry *Registry) *Services {
	return &Services{registry: registry}
}

// Registry returns the backing registry.
func (s *Services) Registry() *Registry {
	return s.registry
}

// ResolvePersistenceUnit returns the Factory for the injection point's unit.
func (s *Services) ResolvePersistenceUnit(ctx context.Context, ip InjectionPoint) (Factory, error) {
	unit, err := ip.UnitName()
	if err != nil {
		return nil, &InjectionError{Op: "unit", Err: err}
	}
	f, err := s.registry.Resolve(ctx, unit)
	if err != nil {
		return nil, &InjectionError{Op: "unit", Unit: unit, Err: err}
	}
	return f, nil
}

// ResolvePersistenceContext opens a fresh session for the injection point's
// unit. The caller owns the session and must close it.
func (s *Services) ResolvePersistenceContext(ctx context.Context, ip InjectionPoint) (Session, error) {
	sess, _, err := s.createSession(ctx, ip)
	return sess, err
}

func (s *Services) createSession(ctx context.Context, ip InjectionPoint) (Session, ReleaseFunc, error) {
	unit, err := ip.UnitName()
	if err != nil {
		return nil, nil, &InjectionError{Op: "context", Err: err}
	}
	sess, release, err := s.registry.CreateDerivedResource(ctx, unit)
	if err != nil {
		return nil, nil, &InjectionError{Op: "context", Unit: unit, Err: err}
	}
	return sess, release, nil
}

// RegisterPersistenceUnitInjectionPoint returns a reference factory whose
// references resolve the unit's Factory.
func (s *Services) RegisterPersistenceUnitInjectionPoint(ip InjectionPoint) ReferenceFactory[Factory] {
	return ReferenceFactoryFunc[Factory](func() Reference[Factory] {
		return &unitReference{services: s, ip: ip}
	})
}

// RegisterPersistenceContextInjectionPoint returns a reference factory whose
// references each own one session, opened on first use.
func (s *Services) RegisterPersistenceContextInjectionPoint(ip InjectionPoint) ReferenceFactory[Session] {
	return ReferenceFactoryFunc[Session](func() Reference[Session] {
		return &contextReference{services: s, ip: ip}
	})
}

// ServiceType returns the container key for these services.
func (s *Services) ServiceType() string {
	return ServiceType
}

// Cleanup shuts the registry down. Close failures are logged, not returned.
func (s *Services) Cleanup() {
	if err := s.registry.Shutdown(); err != nil {
		if logger := s.registry.Logger(); logger != nil {
			logger.Error("persistence unit cleanup failed",
				slog.String("error", err.Error()))
		}
	}
}

func (s *Services) logSessionRelease(sess Session, err error) {
	logger := s.registry.Logger()
	if logger == nil {
		return
	}
	id := ""
	if sess != nil {
		id = sess.ID()
	}
	logger.Warn("session release failed",
		slog.String("session_id", id),
		slog.String("error", err.Error()))
}
