// File: api/completion.go
//
// Completion records and transfer directions for submitted requests.

package api

// Direction is the transfer direction of a submitted request. Only
// DirRead is admissible; the values mirror the host's data-direction
// enumeration so rejections map back without translation.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
	DirTrim
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirRead:
		return "read"
	case DirWrite:
		return "write"
	case DirTrim:
		return "trim"
	default:
		return "invalid"
	}
}

// Completion is the terminal outcome of one request, as drained by the
// host. Correlation is the opaque value supplied at submission; Bytes is
// the number of bytes delivered; Err is nil for a successful read.
type Completion struct {
	Correlation any
	Bytes       int64
	Err         error
}
