package naming

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for directory operations.
var (
	// ErrEmptyName indicates a bind or lookup with an empty name.
	ErrEmptyName = errors.New("naming: empty name")

	// ErrAlreadyBound indicates Bind was called for a name that is taken.
	ErrAlreadyBound = errors.New("naming: name already bound")

	// ErrNotBound indicates a lookup for a name with no binding.
	ErrNotBound = errors.New("naming: name not bound")

	// ErrWrongType indicates LookupAs found a binding of another type.
	ErrWrongType = errors.New("naming: bound object has unexpected type")
)

// Directory maps names to bound objects.
// It uses sync.RWMutex since lookups far outnumber binds.
type Directory struct {
	mu       sync.RWMutex
	bindings map[string]any
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		bindings: make(map[string]any),
	}
}

// Bind publishes obj under name. It fails with ErrAlreadyBound if the name
// is taken.
func (d *Directory) Bind(name string, obj any) error {
	if name == "" {
		return ErrEmptyName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.bindings[name]; ok {
		return fmt.Errorf("bind %q: %w", name, ErrAlreadyBound)
	}
	d.bindings[name] = obj
	return nil
}

// Rebind publishes obj under name, replacing any existing binding.
func (d *Directory) Rebind(name string, obj any) error {
	if name == "" {
		return ErrEmptyName
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[name] = obj
	return nil
}

// Lookup returns the object bound under name.
func (d *Directory) Lookup(name string) (any, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	obj, ok := d.bindings[name]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrNotBound)
	}
	return obj, nil
}

// LookupAs returns the object bound under name as a T.
func LookupAs[T any](d *Directory, name string) (T, error) {
	var zero T
	obj, err := d.Lookup(name)
	if err != nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("lookup %q: %w: got %T, want %T", name, ErrWrongType, obj, zero)
	}
	return v, nil
}

// Unbind removes the binding for name. Unbinding a missing name is a no-op.
func (d *Directory) Unbind(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings, name)
}

// IsBound returns true if name has a binding.
func (d *Directory) IsBound(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.bindings[name]
	return ok
}

// Names returns all bound names, sorted.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.bindings))
	for name := range d.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.bindings)
}

// Range calls fn for each binding until fn returns false.
// It iterates over a snapshot taken under the read lock.
func (d *Directory) Range(fn func(name string, obj any) bool) {
	d.mu.RLock()
	snapshot := make(map[string]any, len(d.bindings))
	for k, v := range d.bindings {
		snapshot[k] = v
	}
	d.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}
