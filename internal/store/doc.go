// Package store defines the persistence contracts the engine depends on and
// the sentinel errors every backing implementation maps its driver failures
// to. The engine only sees these interfaces; the postgres package supplies
// the concrete implementations.
package store
