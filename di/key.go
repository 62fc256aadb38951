package di

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// TypeKey identifies a registered service: the service's Go type plus an
// optional registration name. Two keys are equal exactly when they carry the
// same type and the same name. The embedded hash is a routing hint (shard
// selection, cache slots, frozen seats) and is never trusted on its own:
// every probe that starts from a hash finishes with a full key comparison.
type TypeKey struct {
	rtype reflect.Type
	name  string
	hash  uint64
}

// typeHashes memoizes the identity hash per reflect.Type so KeyOf stays a
// single map load on repeat use.
var typeHashes sync.Map // reflect.Type -> uint64

func typeHash(t reflect.Type) uint64 {
	if h, ok := typeHashes.Load(t); ok {
		return h.(uint64)
	}
	h := xxhash.Sum64String(t.PkgPath() + "/" + t.String())
	typeHashes.Store(t, h)
	return h
}

// KeyOf returns the key under which type T is registered.
func KeyOf[T any]() TypeKey {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return TypeKey{rtype: t, hash: typeHash(t)}
}

// NamedKeyOf returns the key for type T qualified by name, letting several
// services of the same type coexist in one container.
func NamedKeyOf[T any](name string) TypeKey {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return TypeKey{rtype: t, name: name, hash: typeHash(t) ^ xxhash.Sum64String(name)}
}

// KeyFor returns the key for a dynamically known type. The name may be empty.
func KeyFor(t reflect.Type, name string) TypeKey {
	k := TypeKey{rtype: t, name: name, hash: typeHash(t)}
	if name != "" {
		k.hash ^= xxhash.Sum64String(name)
	}
	return k
}

// Type reports the Go type the key stands for, nil for the zero key.
func (k TypeKey) Type() reflect.Type { return k.rtype }

// Name reports the registration name, empty for unnamed registrations.
func (k TypeKey) Name() string { return k.name }

// Hash reports the key's 64-bit routing hash.
func (k TypeKey) Hash() uint64 { return k.hash }

// String renders the type, plus the name when present, for errors and logs.
func (k TypeKey) String() string {
	if k.rtype == nil {
		return "<nil>"
	}
	if k.name == "" {
		return k.rtype.String()
	}
	return k.rtype.String() + "#" + k.name
}
