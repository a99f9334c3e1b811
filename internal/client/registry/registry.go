// Package registry keeps at most one live in-memory instance per remote
// entity. Entities are indexed by two natural keys (a primary and a
// secondary one) and both indexes always point at the same *Instance.
//
// Every method is synchronous and holds the registry lock only for the map
// read-modify-write, so no critical section ever spans network I/O.
package registry

import "sync"

// Instance is the canonical wrapper handed out for one remote entity.
// Holders share the pointer; the registry replaces the data in place so
// every holder observes updates and deletion.
type Instance[T any] struct {
	mu      sync.RWMutex
	data    T
	deleted bool
}

// Data returns the most recent record known for the entity.
func (i *Instance[T]) Data() T {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.data
}

// Deleted reports whether the entity was removed from the registry.
func (i *Instance[T]) Deleted() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.deleted
}

func (i *Instance[T]) set(data T) {
	i.mu.Lock()
	i.data = data
	i.mu.Unlock()
}

func (i *Instance[T]) markDeleted() {
	i.mu.Lock()
	i.deleted = true
	i.mu.Unlock()
}

// Registry maps a primary key P and a secondary key S to one Instance[T].
type Registry[P, S comparable, T any] struct {
	mu          sync.RWMutex
	primaryOf   func(T) P
	secondaryOf func(T) S
	byPrimary   map[P]*Instance[T]
	bySecondary map[S]*Instance[T]
}

// New builds an empty registry. primaryOf and secondaryOf extract the two
// keys from a record.
func New[P, S comparable, T any](primaryOf func(T) P, secondaryOf func(T) S) *Registry[P, S, T] {
	return &Registry[P, S, T]{
		primaryOf:   primaryOf,
		secondaryOf: secondaryOf,
		byPrimary:   make(map[P]*Instance[T]),
		bySecondary: make(map[S]*Instance[T]),
	}
}

// GetOrCreate returns the canonical instance for rec. A known entity has its
// data overwritten in place; an unknown one is inserted under both keys.
func (r *Registry[P, S, T]) GetOrCreate(rec T) *Instance[T] {
	inst, _ := r.Upsert(rec)
	return inst
}

// Upsert is GetOrCreate that also reports the instance displaced from rec's
// secondary key. Secondary keys are unique remotely, so the displaced record
// is stale: it is evicted from both maps and marked deleted.
func (r *Registry[P, S, T]) Upsert(rec T) (inst, displaced *Instance[T]) {
	p, s := r.primaryOf(rec), r.secondaryOf(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.byPrimary[p]
	if ok {
		old := r.secondaryOf(inst.Data())
		inst.set(rec)
		if old != s && r.bySecondary[old] == inst {
			delete(r.bySecondary, old)
		}
	} else {
		inst = &Instance[T]{data: rec}
		r.byPrimary[p] = inst
	}
	if other, taken := r.bySecondary[s]; taken && other != inst {
		r.evict(r.primaryOf(other.Data()), other)
		displaced = other
	}
	r.bySecondary[s] = inst
	return inst, displaced
}

// Get resolves by primary key.
func (r *Registry[P, S, T]) Get(p P) (*Instance[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byPrimary[p]
	return inst, ok
}

// GetBySecondary resolves by secondary key.
func (r *Registry[P, S, T]) GetBySecondary(s S) (*Instance[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.bySecondary[s]
	return inst, ok
}

// Canonical resolves an instance reference the caller already holds to the
// live one registered under its primary key. A deleted or foreign instance
// resolves to nothing.
func (r *Registry[P, S, T]) Canonical(inst *Instance[T]) (*Instance[T], bool) {
	if inst == nil {
		return nil, false
	}
	return r.Get(r.primaryOf(inst.Data()))
}

// PrimaryOf extracts the primary key of rec.
func (r *Registry[P, S, T]) PrimaryOf(rec T) P {
	return r.primaryOf(rec)
}

// Remove marks the instance under p deleted and drops both of its mappings.
// The secondary key is read from the instance itself. Removing an unknown
// key is a no-op.
func (r *Registry[P, S, T]) Remove(p P) (*Instance[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.byPrimary[p]
	if !ok {
		return nil, false
	}
	r.evict(p, inst)
	return inst, true
}

// RemoveBySecondary is Remove addressed by the secondary key.
func (r *Registry[P, S, T]) RemoveBySecondary(s S) (*Instance[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.bySecondary[s]
	if !ok {
		return nil, false
	}
	if r.bySecondary[s] == inst {
		delete(r.bySecondary, s)
	}
	r.evict(r.primaryOf(inst.Data()), inst)
	return inst, true
}

// evict must be called with r.mu held.
func (r *Registry[P, S, T]) evict(p P, inst *Instance[T]) {
	inst.markDeleted()
	if r.byPrimary[p] == inst {
		delete(r.byPrimary, p)
	}
	s := r.secondaryOf(inst.Data())
	if r.bySecondary[s] == inst {
		delete(r.bySecondary, s)
	}
}

// Len returns the number of live entities.
func (r *Registry[P, S, T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPrimary)
}
