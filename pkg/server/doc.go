// Package server implements the Citadel worker runtime: per-worker accept
// loops, the per-connection service factory, and the shared immutable
// configuration.
//
// Each Worker owns one accept loop pinned to an OS thread. Connections
// accepted by a worker are dispatched onto that worker's Handle, which
// tracks every in-flight exchange the worker owns. State reachable only
// from a single exchange never needs locking; the only data shared across
// workers is the read-only Config.
//
// Failure containment is strict: a failure while driving one connection
// discards that connection's work only, and a worker terminating does not
// affect its siblings. The only fatal conditions for a worker are failing
// to obtain its accept stream and the stream ending terminally.
package server
