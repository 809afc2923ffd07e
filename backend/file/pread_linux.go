//go:build linux

// File: backend/file/pread_linux.go
//
// Linux read path: raw pread(2) via golang.org/x/sys, plus O_DIRECT
// support.

package file

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

func openFile(path string, direct bool) (*os.File, error) {
	flags := os.O_RDONLY
	if direct {
		flags |= unix.O_DIRECT
	}
	return os.OpenFile(path, flags, 0)
}

// pread fills p from byte offset off, retrying short reads. The host
// sized the request, so hitting end of file before p is full is an
// error, not a truncated success.
func pread(f *os.File, p []byte, off int64) (int, error) {
	fd := int(f.Fd())
	total := 0
	for total < len(p) {
		n, err := unix.Pread(fd, p[total:], off+int64(total))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrUnexpectedEOF
		}
		total += n
	}
	return total, nil
}
