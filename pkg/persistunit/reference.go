package persistunit

import (
	"context"
	"sync"
)

// Reference is a handle to an injected resource. The container asks for the
// instance when the injection happens and releases the reference when the
// owning bean is destroyed.
type Reference[T any] interface {
	// Instance returns the referenced resource.
	Instance(ctx context.Context) (T, error)

	// Release disposes of the resource if the reference owns it.
	Release()
}

// ReferenceFactory creates one Reference per injection.
type ReferenceFactory[T any] interface {
	CreateResource() Reference[T]
}

// ReferenceFactoryFunc adapts a function to ReferenceFactory.
type ReferenceFactoryFunc[T any] func() Reference[T]

// CreateResource calls f.
func (f ReferenceFactoryFunc[T]) CreateResource() Reference[T] {
	return f()
}

// unitReference hands out the cached Factory for an injection point.
// The registry owns the factory, so Release does nothing.
type unitReference struct {
	services *Services
	ip       InjectionPoint
}

func (r *unitReference) Instance(ctx context.Context) (Factory, error) {
	return r.services.ResolvePersistenceUnit(ctx, r.ip)
}

func (r *unitReference) Release() {}

// contextReference opens one session on first use and keeps returning it.
// Release closes the session if one was opened.
type contextReference struct {
	services *Services
	ip       InjectionPoint

	mu       sync.Mutex
	session  Session
	release  ReleaseFunc
	released bool
}

func (r *contextReference) Instance(ctx context.Context) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, ErrReferenceReleased
	}
	if r.session != nil {
		return r.session, nil
	}

	s, release, err := r.services.createSession(ctx, r.ip)
	if err != nil {
		return nil, err
	}
	r.session, r.release = s, release
	return s, nil
}

func (r *contextReference) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	if r.release == nil {
		return
	}
	if err := r.release(); err != nil {
		r.services.logSessionRelease(r.session, err)
	}
	r.session = nil
}
