package di

import (
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Container is one scope in a container tree: its own storage, a depth
// (root = 0), a process-unique scope ID and a one-way lock flag. Containers
// are safe for concurrent use by any number of goroutines. The zero value is
// not usable; construct with New or Scope.
type Container struct {
	storage *serviceStorage
	scopeID ScopeID
	depth   int
	locked  atomic.Bool
	frozen  atomic.Pointer[Frozen]
}

// New creates an unlocked, empty root container.
func New() *Container {
	return NewWithCapacity(0)
}

// NewWithCapacity creates a root container with shard maps pre-sized for
// about capacity registrations, saving rehashes during a large setup phase.
func NewWithCapacity(capacity int) *Container {
	c := &Container{
		storage: newStorage(capacity),
		scopeID: nextScopeID(),
	}
	if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
		lg.WithFields(logrus.Fields{
			"scope": c.scopeID.String(),
			"depth": c.depth,
		}).Debug("container created")
	}
	return c
}

// Scope creates a child container: fresh empty storage, this container's
// storage as a weak parent, depth one deeper. The child resolves through its
// ancestors with the nearest registration winning; ancestors never observe
// the child's registrations. The child does not keep this container alive:
// if the parent is dropped and collected, the child's chain lookups simply
// end at the child.
func (c *Container) Scope() *Container {
	child := &Container{
		storage: newChildStorage(c.storage),
		scopeID: nextScopeID(),
		depth:   c.depth + 1,
	}
	if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
		lg.WithFields(logrus.Fields{
			"scope":  child.scopeID.String(),
			"parent": c.scopeID.String(),
			"depth":  child.depth,
		}).Debug("scope created")
	}
	return child
}

// Lock permanently forbids registration and removal on this container.
// Everything already registered keeps resolving. There is no unlock.
func (c *Container) Lock() {
	if c.locked.Swap(true) {
		return
	}
	if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
		lg.WithFields(logrus.Fields{
			"scope":    c.scopeID.String(),
			"services": c.storage.len(),
		}).Debug("container locked")
	}
}

// IsLocked reports whether Lock or Freeze has been called.
func (c *Container) IsLocked() bool {
	return c.locked.Load()
}

// Depth reports how many ancestors this container has.
func (c *Container) Depth() int {
	return c.depth
}

// ScopeID reports this container's process-unique identity.
func (c *Container) ScopeID() ScopeID {
	return c.scopeID
}

// Len counts registrations held directly by this container, excluding
// everything inherited from ancestors.
func (c *Container) Len() int {
	return c.storage.len()
}

// Keys snapshots the keys registered directly on this container, in no
// particular order.
func (c *Container) Keys() []TypeKey {
	return c.storage.localKeys()
}

// register is the shared write path behind the typed registration functions.
func (c *Container) register(key TypeKey, entry *anyFactory) error {
	if c.locked.Load() {
		return ErrLocked
	}
	if err := c.storage.register(key, entry); err != nil {
		return err
	}
	if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
		lg.WithFields(logrus.Fields{
			"service":  key.String(),
			"lifetime": entry.life.String(),
			"scope":    c.scopeID.String(),
			"depth":    c.depth,
		}).Debug("service registered")
	}
	return nil
}

// resolveLocation labels where a resolution was satisfied, for trace logs.
type resolveLocation uint8

const (
	locLocal resolveLocation = iota
	locParent
	locFrozen
	locCache
)

func (l resolveLocation) String() string {
	switch l {
	case locLocal:
		return "local"
	case locParent:
		return "parent"
	case locFrozen:
		return "frozen"
	case locCache:
		return "cache"
	}
	return "unknown"
}

// lookupEntry finds the entry for key through this container's current view:
// the frozen snapshot once installed, otherwise the live storage chain.
func (c *Container) lookupEntry(key TypeKey) (*anyFactory, resolveLocation, bool) {
	if fz := c.frozen.Load(); fz != nil {
		e, ok := fz.lookup(key)
		return e, locFrozen, ok
	}
	e, hops, ok := c.storage.lookupChain(key)
	if hops > 0 {
		return e, locParent, ok
	}
	return e, locLocal, ok
}

// getKey is the untyped resolution core shared by Get and Resolve.
func (c *Container) getKey(key TypeKey) (any, error) {
	e, loc, ok := c.lookupEntry(key)
	if !ok {
		return nil, NotFoundError{Service: key.String()}
	}
	v, err := e.resolve()
	if err != nil {
		return nil, err
	}
	traceResolved(c, key, e, loc)
	return v, nil
}

func traceResolved(c *Container, key TypeKey, e *anyFactory, loc resolveLocation) {
	lg := logger()
	if !lg.IsLevelEnabled(logrus.TraceLevel) {
		return
	}
	lg.WithFields(logrus.Fields{
		"service":  key.String(),
		"lifetime": e.life.String(),
		"scope":    c.scopeID.String(),
		"location": loc.String(),
	}).Trace("service resolved")
}

func keyWithName[T any](name string) TypeKey {
	if name == "" {
		return KeyOf[T]()
	}
	return NamedKeyOf[T](name)
}

// Singleton registers an already-built value under T. Every resolution
// returns this same instance. Fails with AlreadyRegisteredError when T is
// already registered directly on c, and with ErrLocked after Lock.
func Singleton[T any](c *Container, value *T) error {
	return SingletonNamed(c, "", value)
}

// SingletonNamed is Singleton under a name-qualified key, letting several
// values of one type coexist.
func SingletonNamed[T any](c *Container, name string, value *T) error {
	if c == nil {
		return ErrNilContainer
	}
	if value == nil {
		return ErrNilValue
	}
	key := keyWithName[T](name)
	return c.register(key, newSingletonEntry(key.String(), value))
}

// Lazy registers a factory under T. The first resolution runs it exactly
// once, even when many goroutines race; every resolution shares the produced
// instance. A panic inside the factory is terminal for the entry: later
// resolutions keep failing with the captured cause and the factory is never
// retried. The factory must not resolve T from the same container; that
// re-entrant construction deadlocks and is caller-forbidden.
func Lazy[T any](c *Container, factory func() *T) error {
	return LazyNamed(c, "", factory)
}

// LazyNamed is Lazy under a name-qualified key.
func LazyNamed[T any](c *Container, name string, factory func() *T) error {
	if c == nil {
		return ErrNilContainer
	}
	if factory == nil {
		return ErrNilFactory
	}
	key := keyWithName[T](name)
	return c.register(key, newLazyEntry(key.String(), func() any { return factory() }))
}

// Transient registers a factory under T that runs on every resolution, each
// call producing a fresh instance owned by that caller alone. A panic inside
// the factory fails only the resolution that triggered it.
func Transient[T any](c *Container, factory func() *T) error {
	return TransientNamed(c, "", factory)
}

// TransientNamed is Transient under a name-qualified key.
func TransientNamed[T any](c *Container, name string, factory func() *T) error {
	if c == nil {
		return ErrNilContainer
	}
	if factory == nil {
		return ErrNilFactory
	}
	key := keyWithName[T](name)
	return c.register(key, newTransientEntry(key.String(), func() any { return factory() }))
}

// Get resolves T from c: the container's own registrations first, then the
// ancestor chain, nearest registration winning. Returns NotFoundError when T
// is absent from the whole chain and FactoryPanickedError when a factory
// fails.
func Get[T any](c *Container) (*T, error) {
	return GetNamed[T](c, "")
}

// GetNamed is Get under a name-qualified key.
func GetNamed[T any](c *Container, name string) (*T, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	v, err := c.getKey(keyWithName[T](name))
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// TryGet resolves T like Get but converts absence into (nil, nil), so
// callers can probe for optional services without error plumbing. Factory
// failures still surface: a broken service is not a missing one.
func TryGet[T any](c *Container) (*T, error) {
	return TryGetNamed[T](c, "")
}

// TryGetNamed is TryGet under a name-qualified key.
func TryGetNamed[T any](c *Container, name string) (*T, error) {
	v, err := GetNamed[T](c, name)
	if err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// MustGet resolves T like Get and panics on any failure. Meant for
// composition roots where a missing service is a programming error.
func MustGet[T any](c *Container) *T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// MustGetNamed is MustGet under a name-qualified key.
func MustGetNamed[T any](c *Container, name string) *T {
	v, err := GetNamed[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Contains reports whether T is resolvable from c or any ancestor. It only
// inspects the maps: no lazy or transient factory runs.
func Contains[T any](c *Container) bool {
	return ContainsNamed[T](c, "")
}

// ContainsNamed is Contains under a name-qualified key.
func ContainsNamed[T any](c *Container, name string) bool {
	if c == nil {
		return false
	}
	key := keyWithName[T](name)
	if fz := c.frozen.Load(); fz != nil {
		_, ok := fz.lookup(key)
		return ok
	}
	return c.storage.containsChain(key)
}

// Remove deletes the registration of T held directly by c, reporting whether
// one existed. Ancestors and children are unaffected. Locked containers are
// immutable, so Remove on them reports false.
func Remove[T any](c *Container) bool {
	return RemoveNamed[T](c, "")
}

// RemoveNamed is Remove under a name-qualified key.
func RemoveNamed[T any](c *Container, name string) bool {
	if c == nil || c.locked.Load() {
		return false
	}
	return c.storage.remove(keyWithName[T](name))
}
