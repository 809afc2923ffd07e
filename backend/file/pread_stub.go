//go:build !linux

// File: backend/file/pread_stub.go
//
// Portable read path for platforms without O_DIRECT/pread wiring.

package file

import (
	"errors"
	"io"
	"os"
)

func openFile(path string, direct bool) (*os.File, error) {
	if direct {
		return nil, errors.New("direct i/o is not supported on this platform")
	}
	return os.Open(path)
}

func pread(f *os.File, p []byte, off int64) (int, error) {
	n, err := f.ReadAt(p, off)
	if n == len(p) {
		// ReadAt may report io.EOF alongside a full read.
		return n, nil
	}
	if errors.Is(err, io.EOF) {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}
