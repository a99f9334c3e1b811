package services

import (
	"sync"

	"github.com/dmitrijs2005/veyra/internal/client/registry"
)

// handles maps registry instances to the one handle wrapping each, so callers
// can compare handles by pointer.
type handles[T any, H any] struct {
	mu   sync.Mutex
	m    map[*registry.Instance[T]]*H
	wrap func(*registry.Instance[T]) *H
}

func newHandles[T any, H any](wrap func(*registry.Instance[T]) *H) *handles[T, H] {
	return &handles[T, H]{m: make(map[*registry.Instance[T]]*H), wrap: wrap}
}

func (h *handles[T, H]) get(inst *registry.Instance[T]) *H {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.m[inst]; ok {
		return v
	}
	v := h.wrap(inst)
	h.m[inst] = v
	return v
}

// forget drops the handle of a removed instance. Holders keep their pointer.
func (h *handles[T, H]) forget(inst *registry.Instance[T]) {
	if inst == nil {
		return
	}
	h.mu.Lock()
	delete(h.m, inst)
	h.mu.Unlock()
}
