// File: pool/bytepool.go
//
// Fixed-size byte buffer pool with optional alignment. Direct I/O needs
// buffers aligned to the device block size; the pool over-allocates and
// reslices at the aligned offset so callers never see the slack.

package pool

import (
	"sync"
	"unsafe"
)

// BytePool hands out buffers of one fixed size.
type BytePool struct {
	size  int
	align int
	pool  sync.Pool
}

// NewBytePool creates a pool of size-byte buffers. align of zero or one
// means no alignment requirement; otherwise align must be a power of
// two and every buffer's base address is a multiple of it.
func NewBytePool(size, align int) *BytePool {
	b := &BytePool{size: size, align: align}
	b.pool.New = func() any {
		return b.alloc()
	}
	return b
}

// Get returns a buffer of the pool's fixed size.
func (b *BytePool) Get() []byte {
	return b.pool.Get().([]byte)
}

// Put returns a buffer to the pool. Buffers of a foreign size are
// dropped rather than recycled.
func (b *BytePool) Put(buf []byte) {
	if len(buf) != b.size {
		return
	}
	b.pool.Put(buf)
}

// Size returns the fixed buffer size.
func (b *BytePool) Size() int {
	return b.size
}

func (b *BytePool) alloc() []byte {
	if b.align <= 1 {
		return make([]byte, b.size)
	}
	raw := make([]byte, b.size+b.align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(b.align-1)); rem != 0 {
		off = b.align - rem
	}
	return raw[off : off+b.size : off+b.size]
}
