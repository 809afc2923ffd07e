// File: handle/table.go
//
// Generational handle table. Issues opaque non-zero uintptr tokens for
// objects that must cross an execution-domain boundary where only
// integer-sized values are safe to pass. Slots carry a generation
// counter so a token outliving its object resolves to ErrInvalidHandle
// instead of a recycled binding.

package handle

import (
	"sync"

	"github.com/stornado/stornado/api"
)

const (
	genShift  = 32
	slotMask  = (1 << genShift) - 1
	slotLimit = slotMask - 1
)

type slot struct {
	gen  uint32
	val  any
	live bool
}

// Table maps tokens to objects. It owns the mapping, never the object's
// resources: revoking a token does not tear the object down.
type Table struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Register stores v and returns its token. Tokens are never zero; zero
// is reserved so creating operations can signal allocation failure.
func (t *Table) Register(v any) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if len(t.slots) > slotLimit {
			return 0
		}
		t.slots = append(t.slots, slot{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.val = v
	s.live = true
	return token(idx, s.gen)
}

// Resolve returns the object bound to tok. Stale or unknown tokens fail
// with api.ErrInvalidHandle. Safe to call concurrently with Register and
// Revoke of unrelated tokens.
func (t *Table) Resolve(tok uintptr) (any, error) {
	idx, gen, ok := split(tok)
	if !ok {
		return nil, api.ErrInvalidHandle
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(idx) >= len(t.slots) {
		return nil, api.ErrInvalidHandle
	}
	s := &t.slots[idx]
	if !s.live || s.gen != gen {
		return nil, api.ErrInvalidHandle
	}
	return s.val, nil
}

// Revoke invalidates tok and recycles its slot under a new generation.
// Callers revoke only after the bound object is fully torn down.
func (t *Table) Revoke(tok uintptr) error {
	idx, gen, ok := split(tok)
	if !ok {
		return api.ErrInvalidHandle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(idx) >= len(t.slots) {
		return api.ErrInvalidHandle
	}
	s := &t.slots[idx]
	if !s.live || s.gen != gen {
		return api.ErrInvalidHandle
	}
	s.live = false
	s.val = nil
	s.gen++
	t.free = append(t.free, idx)
	return nil
}

// Len returns the number of live tokens.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots) - len(t.free)
}

// token packs slot index and generation. The index is stored offset by
// one so the zero token can never be issued.
func token(idx, gen uint32) uintptr {
	return uintptr(gen)<<genShift | uintptr(idx+1)
}

func split(tok uintptr) (idx, gen uint32, ok bool) {
	raw := uint32(tok & slotMask)
	if raw == 0 {
		return 0, 0, false
	}
	return raw - 1, uint32(tok >> genShift), true
}
