// Package di is a generic, thread-safe, type-keyed service container with
// three lifetimes (singleton, lazy, transient), hierarchical scopes with
// override shadowing, and a per-goroutine hot cache for repeat lookups.
//
// Design goals:
//
//   - Type-keyed registration: services are stored under their Go type (plus
//     an optional name), so wiring needs no string conventions and no tags.
//   - Predictable lifetimes: singletons are fixed at registration, lazy
//     singletons materialize exactly once even under concurrent first access,
//     transients are built fresh on every resolution.
//   - Hierarchical scopes: a child container sees everything its ancestors
//     registered, ancestors never see the child, and the nearest registration
//     always wins. Parent links are weak, so dropping a parent container
//     never leaks a scope tree and a child observing a collected parent
//     fails closed.
//   - Cheap repeat lookups: a Resolver carries a small fixed-size cache keyed
//     by type and container identity, skipping the shared maps entirely on a
//     hit. Locked containers can additionally be frozen into an immutable
//     perfect-hash view with allocation-free probes.
//
// Notes on performance:
//
//   - Storage is sharded; writers only contend when they hit the same shard.
//   - Error values are plain structs whose Error methods use string
//     concatenation and strconv.Quote, keeping the miss path allocation-light.
//   - Resolution never takes a container-wide lock. The only wait anywhere is
//     a concurrent lazy first materialization, bounded by the factory itself.
//
// The typed API is exposed as top-level generic functions (Singleton, Lazy,
// Transient, Get, TryGet, Contains, Remove, Resolve) because Go methods
// cannot take type parameters. Registration helpers (ProvideSingleton,
// Apply, ScopeWith, Build, Install) compose wiring in the same functional
// style.
//
// Import
//
//	"github.com/pegasusheavy/dependency-injector/di"
package di
