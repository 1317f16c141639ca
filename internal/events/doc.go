// Package events carries terminal failure records from the execution engine
// to whoever needs to react: structured-log reporting, metrics, credential
// invalidation. Handlers register on an in-memory emitter; the engine only
// knows the reporting interface, not the handlers.
package events
