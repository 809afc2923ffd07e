// Package pool provides reusable byte buffers for read requests,
// including block-aligned buffers for direct I/O.
package pool
