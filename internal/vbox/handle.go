package vbox

import (
	"fmt"
	"sync"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// Handle owns one reference of a foreign interface. The reference is released
// exactly once; duplicating it goes through the foreign AddRef. Handles are
// only used by pointer, never copied.
type Handle struct {
	api  raw.API
	kind raw.Kind
	mu   sync.Mutex
	ptr  raw.Pointer
}

func newHandle(api raw.API, ptr raw.Pointer, kind raw.Kind) *Handle {
	return &Handle{api: api, ptr: ptr, kind: kind}
}

// Kind returns the interface kind of the handle.
func (h *Handle) Kind() raw.Kind { return h.kind }

// Released returns true when the reference has already been released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ptr.IsNull()
}

func (h *Handle) pointer() (raw.Pointer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ptr.IsNull() {
		return raw.Null, fmt.Errorf("%s: %w", h.kind, model.ErrReleased)
	}
	return h.ptr, nil
}

// Clone increments the foreign reference count and returns a new handle owning it.
func (h *Handle) Clone() (*Handle, error) {
	ptr, err := h.pointer()
	if err != nil {
		return nil, err
	}

	if _, code := h.api.AddRef(ptr); !code.Succeeded() {
		if code.Stale() {
			return nil, fmt.Errorf("%s add ref: %w", h.kind, model.ErrStale)
		}
		return nil, &model.ForeignError{Code: uint32(code), Method: h.kind.String() + "::AddRef", Message: code.String()}
	}

	return newHandle(h.api, ptr, h.kind), nil
}

// Release decrements the foreign reference count. Only the first call reaches
// the foreign side, the rest are no-ops.
func (h *Handle) Release() error {
	h.mu.Lock()
	ptr := h.ptr
	h.ptr = raw.Null
	h.mu.Unlock()

	if ptr.IsNull() {
		return nil
	}

	if _, code := h.api.Release(ptr); !code.Succeeded() {
		return &model.ForeignError{Code: uint32(code), Method: h.kind.String() + "::Release", Message: code.String()}
	}

	return nil
}
