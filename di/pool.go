package di

import (
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrPoolSize is returned when a scope pool is created with a non-positive
// size.
var ErrPoolSize = errors.New("di: scope pool size must be positive")

// ScopePool recycles child scopes of one parent container, for designs that
// open and close a scope per request. Acquire never blocks: when every
// pooled scope is out, it falls back to a plain Scope allocation.
type ScopePool struct {
	parent *Container
	idle   chan *Container
	size   int
}

// NewScopePool pre-builds size child scopes of parent.
func NewScopePool(parent *Container, size int) (*ScopePool, error) {
	if parent == nil {
		return nil, ErrNilContainer
	}
	if size < 1 {
		return nil, ErrPoolSize
	}
	p := &ScopePool{
		parent: parent,
		idle:   make(chan *Container, size),
		size:   size,
	}
	for i := 0; i < size; i++ {
		p.idle <- parent.Scope()
	}
	return p, nil
}

// Size reports the fixed pool capacity.
func (p *ScopePool) Size() int {
	return p.size
}

// Idle reports how many pooled scopes are available right now.
func (p *ScopePool) Idle() int {
	return len(p.idle)
}

// Acquire hands out an idle pooled scope, falling back to a freshly built
// scope when the pool is exhausted. It never blocks and never fails. Pair
// every Acquire with a deferred Release on the returned handle.
func (p *ScopePool) Acquire() *PooledScope {
	select {
	case c := <-p.idle:
		return &PooledScope{c: c, pool: p, pooled: true}
	default:
		if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
			lg.WithFields(logrus.Fields{
				"parent": p.parent.scopeID.String(),
				"size":   p.size,
			}).Debug("scope pool exhausted, allocating")
		}
		return &PooledScope{c: p.parent.Scope()}
	}
}

// PooledScope is one checked-out scope.
type PooledScope struct {
	c        *Container
	pool     *ScopePool
	pooled   bool
	released atomic.Bool
}

// Container is the scope to register into and resolve from while held.
func (ps *PooledScope) Container() *Container {
	return ps.c
}

// Release returns the scope to the pool, wiping its local registrations so
// the next holder starts empty. Only the first call does anything, so a
// deferred Release is safe next to an explicit one. Fallback scopes from an
// exhausted pool are simply dropped. A held scope that was locked or frozen
// cannot be recycled (lock is one-way); a fresh scope takes its pool slot.
func (ps *PooledScope) Release() {
	if ps.released.Swap(true) {
		return
	}
	if !ps.pooled {
		return
	}
	c := ps.c
	if c.IsLocked() {
		c = ps.pool.parent.Scope()
	} else {
		c.storage.reset()
	}
	ps.pool.idle <- c
}
