// Package control provides runtime observability for the engine: a
// thread-safe metrics registry that reactors publish their counters to.
package control
