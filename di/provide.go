package di

import (
	"errors"
	"fmt"
)

// Registration is one wiring step applied to a container. The Provide
// constructors build them; Apply, ScopeWith, Build and Install consume them.
// A nil Registration is a no-op.
type Registration func(*Container) error

// ProvideSingleton returns a Registration that registers value under T.
func ProvideSingleton[T any](value *T) Registration {
	return func(c *Container) error { return Singleton(c, value) }
}

// ProvideSingletonNamed is ProvideSingleton under a name-qualified key.
func ProvideSingletonNamed[T any](name string, value *T) Registration {
	return func(c *Container) error { return SingletonNamed(c, name, value) }
}

// ProvideLazy returns a Registration that registers factory under T as a
// lazy singleton.
func ProvideLazy[T any](factory func() *T) Registration {
	return func(c *Container) error { return Lazy(c, factory) }
}

// ProvideLazyNamed is ProvideLazy under a name-qualified key.
func ProvideLazyNamed[T any](name string, factory func() *T) Registration {
	return func(c *Container) error { return LazyNamed(c, name, factory) }
}

// ProvideTransient returns a Registration that registers factory under T
// with per-resolution construction.
func ProvideTransient[T any](factory func() *T) Registration {
	return func(c *Container) error { return Transient(c, factory) }
}

// ProvideTransientNamed is ProvideTransient under a name-qualified key.
func ProvideTransientNamed[T any](name string, factory func() *T) Registration {
	return func(c *Container) error { return TransientNamed(c, name, factory) }
}

// Register registers factory under T with the given lifetime. The singleton
// lifetime invokes factory once, immediately, and registers its result; lazy
// defers that call to first resolution; transient re-invokes it per
// resolution.
func Register[T any](c *Container, life Lifetime, factory func() *T) error {
	if c == nil {
		return ErrNilContainer
	}
	if factory == nil {
		return ErrNilFactory
	}
	switch life {
	case LifetimeSingleton:
		return Singleton(c, factory())
	case LifetimeLazy:
		return Lazy(c, factory)
	case LifetimeTransient:
		return Transient(c, factory)
	}
	return fmt.Errorf("di: unknown lifetime %d", uint8(life))
}

// Ensure registers factory under T unless T is already registered directly
// on c. It reports whether a new registration happened; an existing one is
// not an error. Locked containers still fail with ErrLocked.
func Ensure[T any](c *Container, life Lifetime, factory func() *T) (bool, error) {
	err := Register(c, life, factory)
	if err == nil {
		return true, nil
	}
	var dup AlreadyRegisteredError
	if errors.As(err, &dup) {
		return false, nil
	}
	return false, err
}

// Apply runs registrations against c in order, stopping at the first error.
// Steps before the failure remain registered.
func (c *Container) Apply(regs ...Registration) error {
	if c == nil {
		return ErrNilContainer
	}
	for _, reg := range regs {
		if reg == nil {
			continue
		}
		if err := reg(c); err != nil {
			return err
		}
	}
	return nil
}

// ScopeWith creates a child scope with registrations already applied. On a
// registration error the child is discarded and the error returned.
func (c *Container) ScopeWith(regs ...Registration) (*Container, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	child := c.Scope()
	if err := child.Apply(regs...); err != nil {
		return nil, err
	}
	return child, nil
}

// Build constructs a locked composition root: a fresh root container with
// all registrations applied, locked before it is returned. Use it when the
// full object graph is known up front and registration after startup should
// be impossible.
func Build(regs ...Registration) (*Container, error) {
	c := New()
	if err := c.Apply(regs...); err != nil {
		return nil, err
	}
	c.Lock()
	return c, nil
}

// Module groups related registrations under one installable unit.
type Module interface {
	// Register wires the module's services into c.
	Register(c *Container) error
}

// ModuleFunc adapts a plain function to Module.
type ModuleFunc func(*Container) error

// Register implements Module.
func (f ModuleFunc) Register(c *Container) error { return f(c) }

// Install applies modules to c in order, stopping at the first error. Nil
// modules are skipped.
func Install(c *Container, mods ...Module) error {
	if c == nil {
		return ErrNilContainer
	}
	for _, m := range mods {
		if m == nil {
			continue
		}
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}
