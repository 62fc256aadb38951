package di

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrLocked is returned when registering into a locked container.
	// Locking is one-way; there is no unlock.
	ErrLocked = errors.New("di: container is locked")

	// ErrNilContainer is returned when an operation receives a nil container.
	ErrNilContainer = errors.New("di: nil container")

	// ErrNilValue is returned when a singleton registration receives a nil value.
	ErrNilValue = errors.New("di: nil service value")

	// ErrNilFactory is returned when a lazy or transient registration receives
	// a nil factory.
	ErrNilFactory = errors.New("di: nil service factory")

	// ErrNilResolver is returned when a typed resolution receives a nil Resolver.
	ErrNilResolver = errors.New("di: nil resolver")
)

// NotFoundError reports that a service is absent from a container and its
// entire ancestor chain. Callers that treat absence as routine should use
// TryGet, which converts this error into an empty result.
type NotFoundError struct {
	// Service is the rendered key of the missing service.
	Service string
}

func (e NotFoundError) Error() string {
	return "di: service not found " + strconv.Quote(e.Service)
}

// AlreadyRegisteredError reports a second registration of the same key on the
// same container. Registering a key that an ancestor holds is not a conflict;
// that is the override mechanism.
type AlreadyRegisteredError struct {
	// Service is the rendered key of the conflicting registration.
	Service string
}

func (e AlreadyRegisteredError) Error() string {
	return "di: service already registered " + strconv.Quote(e.Service)
}

// FactoryPanickedError reports that a lazy or transient factory panicked
// while materializing a service. For lazy entries the failure is terminal:
// every later resolution returns the same error and the factory is never
// retried. For transient entries it applies to the failing call only.
type FactoryPanickedError struct {
	// Service is the rendered key of the failing service.
	Service string
	// Cause is the recovered panic value.
	Cause any
}

func (e FactoryPanickedError) Error() string {
	return fmt.Sprintf("di: factory for %q panicked: %v", e.Service, e.Cause)
}
