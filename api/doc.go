// Package api defines the contracts shared by the stornado engine:
// the storage Backend abstraction, completion records, transfer
// directions, and the error taxonomy mirrored across the host boundary.
//
// The core never performs storage I/O itself. It submits reads against
// an api.Object and relies on exactly one completion callback per
// submitted read, whenever the backend gets around to it.
package api
