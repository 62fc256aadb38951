package di

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// hotCacheSlots is the fixed capacity of a Resolver's direct-mapped cache.
const hotCacheSlots = 4

type cacheSlot struct {
	key       TypeKey
	storageID uint64 // 0 marks an empty slot
	gen       uint64
	value     any
}

// Resolver is a per-goroutine resolution handle over one container. It keeps
// a small direct-mapped cache of already-resolved shared values keyed by
// (service key, container identity, container generation), so repeat lookups
// skip the shared maps entirely.
//
// A Resolver must not be shared between goroutines; it carries no
// synchronization at all. Create one per goroutine with Container.Resolver;
// they are cheap.
//
// Staleness: every local registration and removal bumps the container's
// generation counter, and a slot only hits when the generation it recorded
// is still current. A hit therefore never returns a value the container
// itself no longer resolves to. Mutating an ancestor after a slot was filled
// is not detected until that slot is overwritten or Reset is called; treat
// resolvers as request-lived in designs that mutate ancestors mid-flight.
type Resolver struct {
	c     *Container
	slots [hotCacheSlots]cacheSlot
}

// Resolver returns a fresh resolution handle bound to this container.
func (c *Container) Resolver() *Resolver {
	return &Resolver{c: c}
}

// Container reports the container this resolver resolves from.
func (r *Resolver) Container() *Container {
	return r.c
}

// Reset drops every cached slot. The resolver remains usable.
func (r *Resolver) Reset() {
	r.slots = [hotCacheSlots]cacheSlot{}
}

// slotIndex picks the direct-mapped slot for a key queried through a given
// storage, spreading the storage identity so the same type cached from two
// scopes does not always collide.
func slotIndex(key TypeKey, storageID uint64) int {
	h := key.hash ^ (storageID * 0x9e3779b97f4a7c15)
	h ^= h >> 33
	return int(h & (hotCacheSlots - 1))
}

func (r *Resolver) resolveKey(key TypeKey) (any, error) {
	st := r.c.storage
	idx := slotIndex(key, st.id)

	// The generation is read before resolving so that a racing local
	// mutation invalidates the slot instead of hiding behind it.
	gen := st.gen.Load()
	if s := &r.slots[idx]; s.storageID == st.id && s.gen == gen && s.key == key {
		if lg := logger(); lg.IsLevelEnabled(logrus.TraceLevel) {
			lg.WithFields(logrus.Fields{
				"service":  key.String(),
				"scope":    r.c.scopeID.String(),
				"location": locCache.String(),
			}).Trace("service resolved")
		}
		return s.value, nil
	}

	e, loc, ok := r.c.lookupEntry(key)
	if !ok {
		return nil, NotFoundError{Service: key.String()}
	}
	v, err := e.resolve()
	if err != nil {
		return nil, err
	}
	if e.shareable() {
		r.slots[idx] = cacheSlot{key: key, storageID: st.id, gen: gen, value: v}
	}
	traceResolved(r.c, key, e, loc)
	return v, nil
}

// Resolve resolves T through r's cache: a hit returns the cached shared
// instance without touching the container; a miss runs normal resolution and
// a shareable result (singleton or lazy) fills the slot, unconditionally
// evicting the previous occupant. Transient values are never cached; each
// call still produces a fresh instance.
func Resolve[T any](r *Resolver) (*T, error) {
	return ResolveNamed[T](r, "")
}

// ResolveNamed is Resolve under a name-qualified key.
func ResolveNamed[T any](r *Resolver, name string) (*T, error) {
	if r == nil {
		return nil, ErrNilResolver
	}
	v, err := r.resolveKey(keyWithName[T](name))
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// TryResolve is Resolve with absence converted to (nil, nil), mirroring
// TryGet. Factory failures still surface.
func TryResolve[T any](r *Resolver) (*T, error) {
	return TryResolveNamed[T](r, "")
}

// TryResolveNamed is TryResolve under a name-qualified key.
func TryResolveNamed[T any](r *Resolver, name string) (*T, error) {
	v, err := ResolveNamed[T](r, name)
	if err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
