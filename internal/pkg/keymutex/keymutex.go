// Package keymutex provides mutual exclusion per key. An entry lives only while
// some caller holds or waits for its key, so the map never outgrows the number
// of keys in use.
package keymutex

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

type Mutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

func New[K comparable]() *Mutex[K] {
	return &Mutex[K]{locks: make(map[K]*entry)}
}

// Lock blocks until key is free or ctx is done. The returned func releases the
// key and is safe to call more than once.
func (m *Mutex[K]) Lock(ctx context.Context, key K) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

// Len reports how many keys are currently held or awaited.
func (m *Mutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func (m *Mutex[K]) release(key K, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}
