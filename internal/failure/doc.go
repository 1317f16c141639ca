// Package failure turns opaque errors raised during a task attempt into
// structured records with a category, a severity, and a retry decision, and
// computes backoff delays for the attempts that are worth repeating.
package failure
