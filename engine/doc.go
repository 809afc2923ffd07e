// Package engine exposes the host-facing surface of the storage bridge.
// Every value crossing this package is integer-sized, matching the
// calling convention of a poll-driven benchmarking host that loads the
// engine behind a foreign-function boundary: reactors and file sessions
// travel as opaque tokens, correlation values as uintptrs, failures as
// zero tokens or non-zero error codes.
//
// The expected call sequence per host thread is Init, Open, then cycles
// of Queue / AwaitCompletions / GetEvent, and finally CloseFile and
// Cleanup.
package engine
