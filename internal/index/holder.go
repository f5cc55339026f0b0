package index

import "sync/atomic"

// Holder publishes the live index to concurrent readers. A rebuild fills a
// fresh Index off to the side and swaps it in atomically, so in-flight
// searches keep reading a stable snapshot.
type Holder struct {
	ptr atomic.Pointer[Index]
}

// NewHolder starts with an empty index so callers never see nil.
func NewHolder() *Holder {
	h := &Holder{}
	h.ptr.Store(New(0))
	return h
}

// Current returns the live index snapshot.
func (h *Holder) Current() *Index { return h.ptr.Load() }

// Swap replaces the live index.
func (h *Holder) Swap(ix *Index) { h.ptr.Store(ix) }
