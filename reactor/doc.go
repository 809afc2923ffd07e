// Package reactor implements the per-thread core of the engine: a
// capacity-bounded submission path into a storage backend, a completion
// sink fed by the backend's own concurrency, and a blocking
// wait-for-N-completions primitive with one-at-a-time draining.
//
// One Reactor is owned by exactly one host thread for Submit, Wait and
// DrainOne. Wait is the sole suspension point; Submit and DrainOne never
// block. Backend completions may arrive on any goroutine.
package reactor
