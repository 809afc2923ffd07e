// Package concurrency holds the lock-free task queue and the worker
// executor that storage backends use to schedule reads off the
// submitting thread. Nothing in this package knows about requests or
// completions; it moves opaque funcs from producers to workers.
package concurrency
