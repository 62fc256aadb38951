package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCfg struct{ port int }
type cachedDB struct{ dsn string }

//
// -----------------------------------------------------------------------------
// Slot fill and hit
// -----------------------------------------------------------------------------

// TestResolver_CachesSharedValues verifies a miss fills the slot and the next
// call hits it without consulting storage.
func TestResolver_CachesSharedValues(t *testing.T) {
	t.Parallel()

	c := New()
	cfg := &cachedCfg{port: 80}
	require.NoError(t, Singleton(c, cfg))

	r := c.Resolver()
	key := KeyOf[cachedCfg]()

	first, err := Resolve[cachedCfg](r)
	require.NoError(t, err)
	assert.Same(t, cfg, first)

	slot := &r.slots[slotIndex(key, c.storage.id)]
	require.Equal(t, key, slot.key)
	require.Equal(t, c.storage.id, slot.storageID)
	assert.Same(t, cfg, slot.value.(*cachedCfg))

	// Poison the cached value to prove the hit path returns the slot, not a
	// fresh storage lookup.
	slot.value = &cachedCfg{port: 81}
	second, err := Resolve[cachedCfg](r)
	require.NoError(t, err)
	assert.Equal(t, 81, second.port)
}

// TestResolver_TransientNeverCached verifies transient resolutions leave the
// slot untouched and stay fresh per call.
func TestResolver_TransientNeverCached(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, Transient(c, func() *cachedDB { return &cachedDB{dsn: "mem"} }))

	r := c.Resolver()
	first, err := Resolve[cachedDB](r)
	require.NoError(t, err)
	second, err := Resolve[cachedDB](r)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	for i := range r.slots {
		assert.Zero(t, r.slots[i].storageID)
	}
}

//
// -----------------------------------------------------------------------------
// Invalidation
// -----------------------------------------------------------------------------

// TestResolver_RemoveInvalidates verifies a local removal makes the slot miss
// even though key and storage still match.
func TestResolver_RemoveInvalidates(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, Singleton(c, &cachedCfg{port: 80}))

	r := c.Resolver()
	_, err := Resolve[cachedCfg](r)
	require.NoError(t, err)

	require.True(t, Remove[cachedCfg](c))

	_, err = Resolve[cachedCfg](r)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
}

// TestResolver_OverrideInvalidates verifies registering over a removed key
// moves the generation so the stale instance is not served.
func TestResolver_OverrideInvalidates(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, Singleton(c, &cachedCfg{port: 80}))

	r := c.Resolver()
	_, err := Resolve[cachedCfg](r)
	require.NoError(t, err)

	require.True(t, Remove[cachedCfg](c))
	require.NoError(t, Singleton(c, &cachedCfg{port: 443}))

	got, err := Resolve[cachedCfg](r)
	require.NoError(t, err)
	assert.Equal(t, 443, got.port)
}

// TestResolver_UnrelatedRegistrationEvictsByGeneration verifies the
// conservative contract: any local mutation, related or not, makes existing
// slots refill.
func TestResolver_UnrelatedRegistrationEvictsByGeneration(t *testing.T) {
	t.Parallel()

	c := New()
	cfg := &cachedCfg{port: 80}
	require.NoError(t, Singleton(c, cfg))

	r := c.Resolver()
	_, err := Resolve[cachedCfg](r)
	require.NoError(t, err)
	filled := r.slots[slotIndex(KeyOf[cachedCfg](), c.storage.id)].gen

	require.NoError(t, Singleton(c, &cachedDB{dsn: "pg"}))

	got, err := Resolve[cachedCfg](r)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
	refilled := r.slots[slotIndex(KeyOf[cachedCfg](), c.storage.id)].gen
	assert.Greater(t, refilled, filled)
}

//
// -----------------------------------------------------------------------------
// Reset / guards
// -----------------------------------------------------------------------------

// TestResolver_Reset verifies Reset empties every slot but keeps the binding.
func TestResolver_Reset(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, Singleton(c, &cachedCfg{port: 80}))

	r := c.Resolver()
	_, err := Resolve[cachedCfg](r)
	require.NoError(t, err)

	r.Reset()
	for i := range r.slots {
		assert.Zero(t, r.slots[i].storageID)
	}
	assert.Same(t, c, r.Container())

	_, err = Resolve[cachedCfg](r)
	assert.NoError(t, err)
}

// TestResolver_NilGuards verifies nil resolvers fail with ErrNilResolver and
// TryResolve keeps the absence contract.
func TestResolver_NilGuards(t *testing.T) {
	t.Parallel()

	_, err := Resolve[cachedCfg](nil)
	assert.ErrorIs(t, err, ErrNilResolver)

	r := New().Resolver()
	v, err := TryResolve[cachedCfg](r)
	require.NoError(t, err)
	assert.Nil(t, v)
}

//
// -----------------------------------------------------------------------------
// slotIndex
// -----------------------------------------------------------------------------

// TestSlotIndex_InRangeAndStorageSensitive verifies indices stay in range and
// the storage identity participates in slot selection.
func TestSlotIndex_InRangeAndStorageSensitive(t *testing.T) {
	t.Parallel()

	key := KeyOf[cachedCfg]()
	seen := map[int]bool{}
	for id := uint64(1); id <= 64; id++ {
		idx := slotIndex(key, id)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, hotCacheSlots)
		seen[idx] = true
	}
	assert.Greater(t, len(seen), 1, "storage identity should move the slot")
}
