// Package file implements the local-filesystem storage backend: paths
// resolve to regular files and reads run as positional preads on a
// worker pool.
package file
