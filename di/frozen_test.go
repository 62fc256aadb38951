package di_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/pegasusheavy/dependency-injector/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Freeze basics

func TestFreeze_LocksAndKeepsResolving(t *testing.T) {
	t.Parallel()

	c := di.New()
	cfg := &testConfig{Port: 8080}
	require.NoError(t, di.Singleton(c, cfg))

	fz, err := c.Freeze()
	require.NoError(t, err)
	require.NotNil(t, fz)

	assert.True(t, c.IsLocked())
	assert.ErrorIs(t, di.Singleton(c, &testDatabase{}), di.ErrLocked)

	// Both the container and the frozen view serve the captured instance.
	v, err := di.Get[testConfig](c)
	require.NoError(t, err)
	assert.Same(t, cfg, v)

	fv, err := di.ResolveFrozen[testConfig](fz)
	require.NoError(t, err)
	assert.Same(t, cfg, fv)
	assert.True(t, di.ContainsFrozen[testConfig](fz))
	assert.Equal(t, 1, fz.Len())
}

func TestFreeze_CapturesAncestorChain(t *testing.T) {
	t.Parallel()

	root := di.New()
	require.NoError(t, di.Singleton(root, &testConfig{Port: 8080}))
	require.NoError(t, di.Singleton(root, &testLogger{Level: "info"}))

	child := root.Scope()
	require.NoError(t, di.Singleton(child, &testConfig{Port: 9999}))
	require.NoError(t, di.Singleton(child, &testRequestID{ID: "req-7"}))

	fz, err := child.Freeze()
	require.NoError(t, err)
	assert.Equal(t, 3, fz.Len(), "chain union with shadowing collapsed")

	// The child's override wins in the snapshot.
	cfg, err := di.ResolveFrozen[testConfig](fz)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)

	lg, err := di.Get[testLogger](child)
	require.NoError(t, err)
	assert.Equal(t, "info", lg.Level)
}

func TestFreeze_LaterParentAdditionsInvisible(t *testing.T) {
	t.Parallel()

	root := di.New()
	require.NoError(t, di.Singleton(root, &testConfig{Port: 8080}))

	child := root.Scope()
	_, err := child.Freeze()
	require.NoError(t, err)

	// The root is still unlocked; its new registration resolves there but
	// never through the frozen child.
	require.NoError(t, di.Singleton(root, &testCache{Size: 10}))

	assert.True(t, di.Contains[testCache](root))
	assert.False(t, di.Contains[testCache](child))
	_, err = di.Get[testCache](child)
	var nf di.NotFoundError
	assert.True(t, errors.As(err, &nf))

	v, err := di.Get[testConfig](child)
	require.NoError(t, err)
	assert.Equal(t, 8080, v.Port)
}

func TestFreeze_Idempotent(t *testing.T) {
	t.Parallel()

	c := di.New()
	require.NoError(t, di.Singleton(c, &testConfig{}))

	first, err := c.Freeze()
	require.NoError(t, err)
	second, err := c.Freeze()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFreeze_EmptyContainer(t *testing.T) {
	t.Parallel()

	fz, err := di.New().Freeze()
	require.NoError(t, err)
	assert.Equal(t, 0, fz.Len())
	assert.Empty(t, fz.Keys())

	_, err = di.ResolveFrozen[testConfig](fz)
	var nf di.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

// Interaction with lifetimes

func TestFreeze_LazySharedAcrossViews(t *testing.T) {
	t.Parallel()

	c := di.New()
	var runs atomic.Int64
	require.NoError(t, di.Lazy(c, func() *testDatabase {
		runs.Add(1)
		return &testDatabase{DSN: "postgres://frozen"}
	}))

	fz, err := c.Freeze()
	require.NoError(t, err)
	assert.EqualValues(t, 0, runs.Load(), "freezing must not run factories")

	fromFrozen, err := di.ResolveFrozen[testDatabase](fz)
	require.NoError(t, err)
	fromContainer, err := di.Get[testDatabase](c)
	require.NoError(t, err)

	assert.Same(t, fromFrozen, fromContainer)
	assert.EqualValues(t, 1, runs.Load())
}

func TestFreeze_TransientStaysTransient(t *testing.T) {
	t.Parallel()

	c := di.New()
	require.NoError(t, di.Transient(c, func() *testDatabase { return &testDatabase{DSN: "mem"} }))

	fz, err := c.Freeze()
	require.NoError(t, err)

	first, err := di.ResolveFrozen[testDatabase](fz)
	require.NoError(t, err)
	second, err := di.ResolveFrozen[testDatabase](fz)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestFreeze_NamedServices(t *testing.T) {
	t.Parallel()

	c := di.New()
	require.NoError(t, di.SingletonNamed(c, "primary", &testDatabase{DSN: "primary"}))
	require.NoError(t, di.SingletonNamed(c, "replica", &testDatabase{DSN: "replica"}))

	fz, err := c.Freeze()
	require.NoError(t, err)
	require.Equal(t, 2, fz.Len())

	primary, err := di.ResolveFrozenNamed[testDatabase](fz, "primary")
	require.NoError(t, err)
	assert.Equal(t, "primary", primary.DSN)

	_, err = di.ResolveFrozenNamed[testDatabase](fz, "standby")
	var nf di.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.False(t, di.ContainsFrozen[testDatabase](fz), "unnamed key was never registered")
}
