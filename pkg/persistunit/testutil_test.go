package persistunit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// fakeFactory counts sessions and closes.
type fakeFactory struct {
	unit     string
	sessions atomic.Int32
	closes   atomic.Int32
	closeErr error
	newErr   error
}

func (f *fakeFactory) NewSession(context.Context) (Session, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	n := f.sessions.Add(1)
	return &fakeSession{id: fmt.Sprintf("%s-%d", f.unit, n)}, nil
}

func (f *fakeFactory) Close() error {
	f.closes.Add(1)
	return f.closeErr
}

type fakeSession struct {
	id     string
	closes atomic.Int32
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

// countingBuilder builds fakeFactory values and records each build per unit.
type countingBuilder struct {
	mu      sync.Mutex
	calls   map[string]int
	built   map[string]*fakeFactory
	fail    map[string]error
	unknown map[string]bool
}

func newCountingBuilder() *countingBuilder {
	return &countingBuilder{
		calls:   make(map[string]int),
		built:   make(map[string]*fakeFactory),
		fail:    make(map[string]error),
		unknown: make(map[string]bool),
	}
}

var errUnknownUnit = errors.New("unknown unit")

func (b *countingBuilder) Build(_ context.Context, unit string) (Factory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[unit]++
	if err, ok := b.fail[unit]; ok {
		return nil, err
	}
	if b.unknown[unit] {
		return nil, errUnknownUnit
	}
	f := &fakeFactory{unit: unit}
	b.built[unit] = f
	return f, nil
}

func (b *countingBuilder) Calls(unit string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[unit]
}

func (b *countingBuilder) Factory(unit string) *fakeFactory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.built[unit]
}

func (b *countingBuilder) SetFailure(unit string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, unit)
		return
	}
	b.fail[unit] = err
}
