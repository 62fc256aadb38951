package di

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"
)

// ErrFrozenBuild is returned when a perfect-hash index cannot be constructed
// for a container's key set. Reaching it requires distinct keys whose 64-bit
// hashes fully collide, which in practice does not happen.
var ErrFrozenBuild = errors.New("di: could not build frozen index")

// maxDisplacement bounds the per-bucket seed search during a frozen build.
const maxDisplacement = 1 << 20

// Frozen is an immutable view of everything a container could resolve at the
// moment it was frozen, indexed by a minimal perfect hash over those keys.
// Probes never allocate and never take a lock: one displacement fetch, one
// seat fetch, one key comparison. Keys outside the frozen set miss on the
// comparison and report NotFound. Even when an ancestor gains the key
// afterwards, a frozen container does not see it.
//
// Entries are shared with the live storage, so a lazy service materialized
// through either view publishes the same instance to both.
type Frozen struct {
	n       int
	g       []uint64 // bucket -> displacement; 0 marks an empty bucket
	keys    []TypeKey
	entries []*anyFactory
}

// mixSeed derives the seat hash for a displacement d from a key hash.
func mixSeed(h, d uint64) uint64 {
	h ^= d
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}

// newFrozen builds the perfect-hash index over a chain-visible entry set.
func newFrozen(all map[TypeKey]*anyFactory) (*Frozen, error) {
	n := len(all)
	fz := &Frozen{n: n}
	if n == 0 {
		return fz, nil
	}

	keys := make([]TypeKey, 0, n)
	for k := range all {
		keys = append(keys, k)
	}
	// Deterministic build order: map iteration must not leak into the index.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].hash != keys[j].hash {
			return keys[i].hash < keys[j].hash
		}
		return keys[i].String() < keys[j].String()
	})

	buckets := make([][]int, n)
	for i, k := range keys {
		b := int(k.hash % uint64(n))
		buckets[b] = append(buckets[b], i)
	}

	// Largest buckets claim seats first; small ones fill the gaps.
	order := make([]int, 0, n)
	for b, members := range buckets {
		if len(members) > 0 {
			order = append(order, b)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		bi, bj := order[i], order[j]
		if len(buckets[bi]) != len(buckets[bj]) {
			return len(buckets[bi]) > len(buckets[bj])
		}
		return bi < bj
	})

	fz.g = make([]uint64, n)
	fz.keys = make([]TypeKey, n)
	fz.entries = make([]*anyFactory, n)
	taken := make([]bool, n)
	seats := make([]int, 0, 8)

	for _, b := range order {
		members := buckets[b]
	search:
		for d := uint64(1); ; d++ {
			if d > maxDisplacement {
				return nil, ErrFrozenBuild
			}
			seats = seats[:0]
			for _, idx := range members {
				seat := int(mixSeed(keys[idx].hash, d) % uint64(n))
				if taken[seat] {
					continue search
				}
				for _, s := range seats {
					if s == seat {
						continue search
					}
				}
				seats = append(seats, seat)
			}
			for i, idx := range members {
				seat := seats[i]
				taken[seat] = true
				fz.keys[seat] = keys[idx]
				fz.entries[seat] = all[keys[idx]]
			}
			fz.g[b] = d
			break
		}
	}
	return fz, nil
}

// lookup probes the index for key.
func (fz *Frozen) lookup(key TypeKey) (*anyFactory, bool) {
	if fz.n == 0 {
		return nil, false
	}
	d := fz.g[key.hash%uint64(fz.n)]
	if d == 0 {
		return nil, false
	}
	seat := mixSeed(key.hash, d) % uint64(fz.n)
	if fz.keys[seat] != key {
		return nil, false
	}
	return fz.entries[seat], true
}

// Len counts the services captured at freeze time.
func (fz *Frozen) Len() int {
	return fz.n
}

// Keys returns the captured keys in seat order. Every seat is occupied: the
// index is minimal, n keys in n seats.
func (fz *Frozen) Keys() []TypeKey {
	return append([]TypeKey(nil), fz.keys...)
}

// ContainsKey reports whether key was visible at freeze time. No factory runs.
func (fz *Frozen) ContainsKey(key TypeKey) bool {
	_, ok := fz.lookup(key)
	return ok
}

// ResolveKey materializes the captured entry for key. Keys outside the
// frozen set fail with NotFoundError regardless of what live containers
// hold.
func (fz *Frozen) ResolveKey(key TypeKey) (any, error) {
	e, ok := fz.lookup(key)
	if !ok {
		return nil, NotFoundError{Service: key.String()}
	}
	return e.resolve()
}

// ResolveFrozen resolves T from a frozen view.
func ResolveFrozen[T any](fz *Frozen) (*T, error) {
	return ResolveFrozenNamed[T](fz, "")
}

// ResolveFrozenNamed is ResolveFrozen under a name-qualified key.
func ResolveFrozenNamed[T any](fz *Frozen, name string) (*T, error) {
	v, err := fz.ResolveKey(keyWithName[T](name))
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// ContainsFrozen reports whether T was visible at freeze time.
func ContainsFrozen[T any](fz *Frozen) bool {
	return fz.ContainsKey(KeyOf[T]())
}

// Freeze locks the container and installs an immutable perfect-hash view of
// everything visible from it at this moment: its own entries plus the
// ancestor chain with nearest-wins shadowing applied. From then on the
// container resolves through the snapshot: later ancestor registrations are
// invisible, and keys absent at freeze time stay NotFound. Freeze is
// idempotent; concurrent calls agree on one view.
func (c *Container) Freeze() (*Frozen, error) {
	c.Lock()
	if fz := c.frozen.Load(); fz != nil {
		return fz, nil
	}
	fz, err := newFrozen(c.storage.chainEntries())
	if err != nil {
		return nil, err
	}
	if !c.frozen.CompareAndSwap(nil, fz) {
		return c.frozen.Load(), nil
	}
	if lg := logger(); lg.IsLevelEnabled(logrus.DebugLevel) {
		lg.WithFields(logrus.Fields{
			"scope":    c.scopeID.String(),
			"services": fz.Len(),
		}).Debug("container frozen")
	}
	return fz, nil
}
