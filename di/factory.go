package di

import "sync"

// Lifetime selects how a registration materializes its value.
type Lifetime uint8

const (
	// LifetimeSingleton shares one instance fixed at registration time.
	LifetimeSingleton Lifetime = iota
	// LifetimeLazy shares one instance built on first resolution.
	LifetimeLazy
	// LifetimeTransient builds a fresh instance on every resolution.
	LifetimeTransient
)

// String reports the lifetime name used in logs and reports.
func (l Lifetime) String() string {
	switch l {
	case LifetimeSingleton:
		return "singleton"
	case LifetimeLazy:
		return "lazy"
	case LifetimeTransient:
		return "transient"
	}
	return "unknown"
}

// anyFactory is one storage entry: the lifetime state machine behind a key.
// Values are type-erased; only the typed registration functions construct
// entries, so the value behind a key is always the key's own type and typed
// accessors may assert directly.
type anyFactory struct {
	life    Lifetime
	service string // rendered key, for error values and log fields

	// value holds the singleton instance from construction time, or the lazy
	// instance once published by once. Transient entries never set it.
	value any

	// factory builds lazy and transient values. Nil for singletons.
	factory func() any

	// once guards lazy materialization: the winner runs factory exactly
	// once, losers block until the value or the terminal error is published.
	once sync.Once

	// err is the terminal failure of a lazy entry, written inside once.
	err error
}

func newSingletonEntry(service string, value any) *anyFactory {
	return &anyFactory{life: LifetimeSingleton, service: service, value: value}
}

func newLazyEntry(service string, factory func() any) *anyFactory {
	return &anyFactory{life: LifetimeLazy, service: service, factory: factory}
}

func newTransientEntry(service string, factory func() any) *anyFactory {
	return &anyFactory{life: LifetimeTransient, service: service, factory: factory}
}

// resolve materializes the entry's value according to its lifetime.
func (f *anyFactory) resolve() (any, error) {
	switch f.life {
	case LifetimeSingleton:
		return f.value, nil

	case LifetimeLazy:
		f.once.Do(func() {
			defer func() {
				if r := recover(); r != nil {
					f.err = FactoryPanickedError{Service: f.service, Cause: r}
				}
			}()
			f.value = f.factory()
		})
		if f.err != nil {
			return nil, f.err
		}
		return f.value, nil

	case LifetimeTransient:
		return f.call()
	}
	panic("di: entry with invalid lifetime")
}

// call runs a transient factory, converting a panic into an error for this
// call only.
func (f *anyFactory) call() (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, FactoryPanickedError{Service: f.service, Cause: r}
		}
	}()
	return f.factory(), nil
}

// shareable reports whether a resolved value may be retained by caches.
// Transient values are owned by the caller that resolved them and must never
// be handed to a second caller.
func (f *anyFactory) shareable() bool {
	return f.life != LifetimeTransient
}
