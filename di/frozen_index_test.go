package di

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frozenProbe struct{ n int }

func frozenFixture(n int) map[TypeKey]*anyFactory {
	all := make(map[TypeKey]*anyFactory, n)
	rt := reflect.TypeOf(frozenProbe{})
	for i := 0; i < n; i++ {
		key := KeyFor(rt, "svc-"+strconv.Itoa(i))
		all[key] = newSingletonEntry(key.String(), &frozenProbe{n: i})
	}
	return all
}

//
// -----------------------------------------------------------------------------
// newFrozen
// -----------------------------------------------------------------------------

// TestNewFrozen_Bijection verifies every input key lands on its own seat and
// resolves back to its own entry.
func TestNewFrozen_Bijection(t *testing.T) {
	t.Parallel()

	all := frozenFixture(10)
	fz, err := newFrozen(all)
	require.NoError(t, err)
	require.Equal(t, 10, fz.Len())

	seen := map[TypeKey]bool{}
	for _, k := range fz.Keys() {
		require.False(t, seen[k], "seat order must not repeat a key")
		seen[k] = true
	}
	require.Len(t, seen, 10, "minimal index: every seat occupied exactly once")

	for key, entry := range all {
		got, ok := fz.lookup(key)
		require.True(t, ok, "key %s must probe to its seat", key)
		assert.Same(t, entry, got)
	}
}

// TestNewFrozen_Deterministic verifies two builds over the same set produce
// the same index regardless of map iteration order.
func TestNewFrozen_Deterministic(t *testing.T) {
	t.Parallel()

	all := frozenFixture(16)
	a, err := newFrozen(all)
	require.NoError(t, err)
	b, err := newFrozen(all)
	require.NoError(t, err)

	assert.Equal(t, a.g, b.g)
	assert.Equal(t, a.keys, b.keys)
}

// TestNewFrozen_SmallSets verifies the empty and single-key cases.
func TestNewFrozen_SmallSets(t *testing.T) {
	t.Parallel()

	empty, err := newFrozen(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Keys())
	_, ok := empty.lookup(KeyOf[frozenProbe]())
	assert.False(t, ok)

	all := frozenFixture(1)
	one, err := newFrozen(all)
	require.NoError(t, err)
	require.Equal(t, 1, one.Len())
	for key := range all {
		assert.True(t, one.ContainsKey(key))
	}
}

//
// -----------------------------------------------------------------------------
// lookup
// -----------------------------------------------------------------------------

// TestFrozenLookup_RejectsAbsentKeys verifies probes for keys outside the set
// miss on the key comparison even when they land on an occupied seat.
func TestFrozenLookup_RejectsAbsentKeys(t *testing.T) {
	t.Parallel()

	fz, err := newFrozen(frozenFixture(8))
	require.NoError(t, err)

	rt := reflect.TypeOf(frozenProbe{})
	for i := 100; i < 140; i++ {
		key := KeyFor(rt, "absent-"+strconv.Itoa(i))
		_, ok := fz.lookup(key)
		require.False(t, ok, "absent key %s must not resolve", key)
		assert.False(t, fz.ContainsKey(key))
	}
	_, err = fz.ResolveKey(KeyOf[frozenProbe]())
	var nf NotFoundError
	assert.ErrorAs(t, err, &nf)
}
