package di

import (
	"sync"
	"sync/atomic"
	"weak"
)

// storageShards is deliberately small. Scoped designs create containers per
// request, so cheap construction and a low per-scope footprint matter more
// than write throughput on a structure that is read-mostly after setup.
const storageShards = 4

// storageIDs hands every storage a process-unique identity. Resolver cache
// slots key on it; IDs start at 1 so that ID 0 always means an empty slot.
var storageIDs atomic.Uint64

type shard struct {
	mu      sync.RWMutex
	entries map[TypeKey]*anyFactory
}

// serviceStorage owns the sharded key-to-entry map of one container plus a weak
// link to the parent container's storage. The link never keeps a parent
// alive: once the parent is collected, chain lookups treat it as absent.
type serviceStorage struct {
	id uint64

	// gen counts local mutations (register, remove, reset). Resolver slots
	// record the generation they observed and refuse to hit when it moved.
	gen atomic.Uint64

	shards [storageShards]shard
	parent weak.Pointer[serviceStorage]
}

func newStorage(capacity int) *serviceStorage {
	s := &serviceStorage{id: storageIDs.Add(1)}
	per := 0
	if capacity > 0 {
		per = (capacity + storageShards - 1) / storageShards
	}
	for i := range s.shards {
		s.shards[i].entries = make(map[TypeKey]*anyFactory, per)
	}
	return s
}

func newChildStorage(parent *serviceStorage) *serviceStorage {
	s := newStorage(0)
	s.parent = weak.Make(parent)
	return s
}

func (s *serviceStorage) shardFor(key TypeKey) *shard {
	return &s.shards[key.hash&(storageShards-1)]
}

// register inserts the entry if the key is absent locally. Ancestors are not
// consulted: registering a key an ancestor holds shadows it for this scope.
func (s *serviceStorage) register(key TypeKey, entry *anyFactory) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	if _, dup := sh.entries[key]; dup {
		sh.mu.Unlock()
		return AlreadyRegisteredError{Service: key.String()}
	}
	sh.entries[key] = entry
	sh.mu.Unlock()
	s.gen.Add(1)
	return nil
}

// lookup returns the local entry for key.
func (s *serviceStorage) lookup(key TypeKey) (*anyFactory, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()
	return e, ok
}

// lookupChain walks this storage and then its ancestors for key, nearest
// first, and reports how many hops up the chain the entry was found (0 for
// local). The walk is a loop rather than recursion so deep scope trees do
// not grow the stack, and it stops as soon as a parent link fails to
// upgrade: a collected parent means the chain simply ends there.
func (s *serviceStorage) lookupChain(key TypeKey) (*anyFactory, int, bool) {
	hops := 0
	for cur := s; cur != nil; cur = cur.parent.Value() {
		if e, ok := cur.lookup(key); ok {
			return e, hops, true
		}
		hops++
	}
	return nil, 0, false
}

// containsChain reports whether key is visible anywhere in the chain. It
// only inspects the maps; no factory runs.
func (s *serviceStorage) containsChain(key TypeKey) bool {
	for cur := s; cur != nil; cur = cur.parent.Value() {
		if _, ok := cur.lookup(key); ok {
			return true
		}
	}
	return false
}

// remove deletes a local registration, reporting whether one existed.
// Ancestors and children are untouched.
func (s *serviceStorage) remove(key TypeKey) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	_, ok := sh.entries[key]
	if ok {
		delete(sh.entries, key)
	}
	sh.mu.Unlock()
	if ok {
		s.gen.Add(1)
	}
	return ok
}

// reset wipes every local registration for pool reuse. The single generation
// bump is what invalidates cached slots pointing at this storage.
func (s *serviceStorage) reset() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}
	s.gen.Add(1)
}

// len counts local registrations.
func (s *serviceStorage) len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// localKeys snapshots the local key set.
func (s *serviceStorage) localKeys() []TypeKey {
	keys := make([]TypeKey, 0, s.len())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k := range sh.entries {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	return keys
}

// chainEntries collects the chain-visible entry set with nearest-wins
// shadowing applied, for building a frozen view.
func (s *serviceStorage) chainEntries() map[TypeKey]*anyFactory {
	out := make(map[TypeKey]*anyFactory)
	for cur := s; cur != nil; cur = cur.parent.Value() {
		for i := range cur.shards {
			sh := &cur.shards[i]
			sh.mu.RLock()
			for k, e := range sh.entries {
				if _, taken := out[k]; !taken {
					out[k] = e
				}
			}
			sh.mu.RUnlock()
		}
	}
	return out
}
