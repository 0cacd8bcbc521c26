// Package reactive implements the dependency-tracking engine and scheduler
// that back a fine-grained reactive runtime: effects record which (target,
// key) slots they read, writes to those slots re-run the effects that
// observed them, and a two-phase job scheduler batches and orders those
// re-runs into a single deterministic drain.
//
// A Runtime owns all of the process-wide mutable state (the target map, the
// active-effect chain, the scheduler queues) explicitly, rather than as
// package globals, so a host can run more than one independent reactive
// graph. Track and Trigger are the two entry points a proxy layer (not
// implemented by this package) calls on property reads and writes.
package reactive
