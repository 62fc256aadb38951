// Package di provides a generic, thread-safe dependency injection container
// for Go.
//
// This repository is organized around one core library and two boundary
// packages:
//
//   - di: the type-keyed container itself (lifetimes, scopes, resolver,
//     frozen views, scope pooling, registration helpers)
//   - dijson: a string-keyed JSON facade over a container, for boundaries
//     that cannot share Go types
//   - dilog: logrus wiring for the container's structured event stream
//
// The goal is to keep wiring explicit (usually in your composition root /
// main), make resolution cheap enough for hot paths, and keep the surface
// area intentionally small.
//
// Start with the examples in the repo for end-to-end wiring style.
//
// Package di See subpackages:
//   - di, dijson, dilog: library packages
//   - cmd/dicheck: manifest-driven wiring verification for pipelines
//   - examples/*: runnable examples (basic lifetimes, request scopes, pooling)
package di
