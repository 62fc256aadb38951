package dijson

import (
	"encoding/json"
	"errors"

	"github.com/pegasusheavy/dependency-injector/di"
	"github.com/tidwall/gjson"
)

// Code classifies registry failures for callers that branch on kinds. The
// zero value means success and never appears inside a returned *Error.
type Code int

const (
	// CodeOK reports success.
	CodeOK Code = 0
	// CodeNotFound reports an unknown service name.
	CodeNotFound Code = 1
	// CodeInvalidArgument reports a rejected input: empty name, nil target,
	// nil registry, or a write to a locked container.
	CodeInvalidArgument Code = 2
	// CodeAlreadyRegistered reports a duplicate name on the same registry.
	CodeAlreadyRegistered Code = 3
	// CodeInternal reports a failure inside the container itself.
	CodeInternal Code = 4
	// CodeSerialization reports malformed JSON, in either direction.
	CodeSerialization Code = 5
)

// String renders the code's wire name.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "service not found"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeAlreadyRegistered:
		return "service already registered"
	case CodeInternal:
		return "internal error"
	case CodeSerialization:
		return "serialization error"
	}
	return "unknown error code"
}

// Error is the registry's failure value: a Code plus a human-readable
// message, wrapping the underlying container error when one exists.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return "dijson: " + e.Code.String() + ": " + e.Message
	}
	return "dijson: " + e.Code.String()
}

// Unwrap exposes the container error behind this one, when any, so
// errors.As still reaches di.NotFoundError and friends.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the Code from err, CodeOK for nil and CodeInternal for
// errors that did not come from a registry.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeInternal
}

// wrapErr translates a container error into the registry's code model.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var nf di.NotFoundError
	if errors.As(err, &nf) {
		return &Error{Code: CodeNotFound, Message: nf.Service, cause: err}
	}
	var dup di.AlreadyRegisteredError
	if errors.As(err, &dup) {
		return &Error{Code: CodeAlreadyRegistered, Message: dup.Service, cause: err}
	}
	if errors.Is(err, di.ErrLocked) || errors.Is(err, di.ErrNilContainer) {
		return &Error{Code: CodeInvalidArgument, Message: err.Error(), cause: err}
	}
	return &Error{Code: CodeInternal, Message: err.Error(), cause: err}
}

// Registry is the string-keyed JSON view over one container. It is safe for
// concurrent use exactly as the container underneath it is.
type Registry struct {
	c *di.Container
}

// New creates a registry over a fresh root container.
func New() *Registry {
	return &Registry{c: di.New()}
}

// Wrap exposes an existing container through the JSON boundary. Documents
// registered here live next to the container's typed services; the two
// key spaces cannot collide.
func Wrap(c *di.Container) *Registry {
	return &Registry{c: c}
}

// Container is the container underneath, for handing to typed code.
func (r *Registry) Container() *di.Container {
	if r == nil {
		return nil
	}
	return r.c
}

func (r *Registry) guard(name string) error {
	if r == nil || r.c == nil {
		return &Error{Code: CodeInvalidArgument, Message: "nil registry"}
	}
	if name == "" {
		return &Error{Code: CodeInvalidArgument, Message: "empty service name"}
	}
	return nil
}

func (r *Registry) store(name string, doc json.RawMessage) error {
	return wrapErr(di.SingletonNamed(r.c, name, &doc))
}

// Register stores data as the document behind name. The bytes must be a
// single valid JSON value; the registry keeps its own copy, so the caller
// may reuse the buffer.
func (r *Registry) Register(name string, data []byte) error {
	if err := r.guard(name); err != nil {
		return err
	}
	if !json.Valid(data) {
		return &Error{Code: CodeSerialization, Message: "invalid JSON for " + name}
	}
	doc := make(json.RawMessage, len(data))
	copy(doc, data)
	return r.store(name, doc)
}

// RegisterValue marshals value and stores the result behind name.
func (r *Registry) RegisterValue(name string, value any) error {
	if err := r.guard(name); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Code: CodeSerialization, Message: err.Error(), cause: err}
	}
	return r.store(name, data)
}

// Resolve returns the document behind name. The returned slice is the
// caller's to keep; mutating it does not affect the stored document.
func (r *Registry) Resolve(name string) ([]byte, error) {
	if err := r.guard(name); err != nil {
		return nil, err
	}
	doc, err := di.GetNamed[json.RawMessage](r.c, name)
	if err != nil {
		return nil, wrapErr(err)
	}
	out := make([]byte, len(*doc))
	copy(out, *doc)
	return out, nil
}

// TryResolve is Resolve with absence collapsed to nil.
func (r *Registry) TryResolve(name string) []byte {
	data, err := r.Resolve(name)
	if err != nil {
		return nil
	}
	return data
}

// ResolveInto resolves name and unmarshals the document into target.
func (r *Registry) ResolveInto(name string, target any) error {
	if target == nil {
		return &Error{Code: CodeInvalidArgument, Message: "nil target for " + name}
	}
	data, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeSerialization, Message: err.Error(), cause: err}
	}
	return nil
}

// Lookup resolves name and evaluates a gjson path inside the document.
// An existing service with a missing path is not an error; the result
// reports Exists() == false.
func (r *Registry) Lookup(name, path string) (gjson.Result, error) {
	if err := r.guard(name); err != nil {
		return gjson.Result{}, err
	}
	doc, err := di.GetNamed[json.RawMessage](r.c, name)
	if err != nil {
		return gjson.Result{}, wrapErr(err)
	}
	return gjson.GetBytes(*doc, path), nil
}

// Contains reports whether name is visible from this registry, through the
// scope chain like any container lookup.
func (r *Registry) Contains(name string) bool {
	if r == nil || r.c == nil || name == "" {
		return false
	}
	return di.ContainsNamed[json.RawMessage](r.c, name)
}

// Remove drops a locally registered document, reporting whether one
// existed. Inherited documents are out of reach, as with any scope.
func (r *Registry) Remove(name string) bool {
	if r == nil || r.c == nil || name == "" {
		return false
	}
	return di.RemoveNamed[json.RawMessage](r.c, name)
}

// Count reports the number of services registered directly on this
// registry's container, typed ones included.
func (r *Registry) Count() int {
	if r == nil || r.c == nil {
		return 0
	}
	return r.c.Len()
}

// Scope opens a child registry: it sees this registry's documents, may
// shadow them, and stays invisible to it.
func (r *Registry) Scope() *Registry {
	if r == nil || r.c == nil {
		return nil
	}
	return &Registry{c: r.c.Scope()}
}

// Lock forbids further registration, permanently.
func (r *Registry) Lock() {
	if r == nil || r.c == nil {
		return
	}
	r.c.Lock()
}
