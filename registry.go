package ecs

import (
	"fmt"
	"reflect"

	"github.com/kelindar/bitmap"
)

// Registry owns every component storage, keyed by type id, together with
// the entity lifecycle: allocation, recycling through a version-bumped
// free-list, and the per-entity record of attached component types.
//
// The registry is not internally synchronized. Concurrent readers are fine;
// mutation must be serialized, which the scheduler guarantees by routing
// all writes through the command queue.
type Registry struct {
	storages  map[TypeID]store
	factories map[TypeID]func() store
	masks     map[Handle]bitmap.Bitmap
	indices   map[TypeID]uint32
	types     []TypeID
	free      []Handle
	next      uint64
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		storages:  make(map[TypeID]store),
		factories: make(map[TypeID]func() store),
		masks:     make(map[Handle]bitmap.Bitmap),
		indices:   make(map[TypeID]uint32),
	}
}

// Register makes component type T spawnable through the untyped paths
// (AttachComponents and command spawns). Typed access through StorageOf or
// Attach registers the type implicitly.
func Register[T any](r *Registry) {
	tid := TypeIDOf[T]()
	if _, ok := r.factories[tid]; ok {
		return
	}
	r.factories[tid] = func() store { return NewStorage[T]() }
	r.bitOf(tid)
}

// CreateEntity issues a live handle, recycling a version-bumped one from
// the free-list when available.
func (r *Registry) CreateEntity() Handle {
	var h Handle
	if n := len(r.free); n > 0 {
		h = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		h = MakeHandle(r.next, 0)
		r.next++
	}
	r.masks[h] = bitmap.Bitmap{}
	return h
}

// DestroyEntity detaches every component from the entity, drops its
// record, and pushes the version-bumped handle onto the free-list.
func (r *Registry) DestroyEntity(h Handle) error {
	mask, ok := r.masks[h]
	if !ok {
		return fmt.Errorf("%w: entity %v", ErrNotFound, h)
	}
	mask.Range(func(bit uint32) {
		tid := r.types[bit]
		if st, ok := r.storages[tid]; ok {
			st.removeID(IDOf(h))
		}
	})
	delete(r.masks, h)
	r.free = append(r.free, h.NextVersion())
	return nil
}

// ContainsEntity reports whether the exact handle is live. Stale and null
// handles are not.
func (r *Registry) ContainsEntity(h Handle) bool {
	_, ok := r.masks[h]
	return ok
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.masks)
}

// EachEntity walks every live entity, stopping early when fn returns false.
func (r *Registry) EachEntity(fn func(Handle) bool) {
	for h := range r.masks {
		if !fn(h) {
			return
		}
	}
}

// StorageOf returns the storage for component type T, creating it on first
// use. Storages are never destroyed during the registry's lifetime.
func StorageOf[T any](r *Registry) *Storage[T] {
	tid := TypeIDOf[T]()
	if st, ok := r.storages[tid]; ok {
		return st.(*Storage[T])
	}
	Register[T](r)
	st := NewStorage[T]()
	r.storages[tid] = st
	return st
}

// Attach stores component v on the entity. The handle must be live.
func Attach[T any](r *Registry, h Handle, v T) error {
	if !r.ContainsEntity(h) {
		return fmt.Errorf("%w: entity %v", ErrNotFound, h)
	}
	StorageOf[T](r).Upsert(h, v)
	r.setBit(h, TypeIDOf[T]())
	return nil
}

// AttachComponents stores each value on the entity, dispatching on the
// dynamic type. Every type must have been registered. Duplicate dynamic
// types in one call fail with ErrInvalidArgument before any mutation.
func (r *Registry) AttachComponents(h Handle, components ...any) error {
	if !r.ContainsEntity(h) {
		return fmt.Errorf("%w: entity %v", ErrNotFound, h)
	}
	tids := make([]TypeID, len(components))
	for i, c := range components {
		tid := typeIDFor(reflect.TypeOf(c))
		for _, seen := range tids[:i] {
			if seen == tid {
				return fmt.Errorf("%w: duplicate component type %T", ErrInvalidArgument, c)
			}
		}
		tids[i] = tid
		if _, ok := r.storages[tid]; !ok {
			if _, ok := r.factories[tid]; !ok {
				return fmt.Errorf("%w: component type %T not registered", ErrNotFound, c)
			}
		}
	}
	for i, c := range components {
		st, ok := r.storages[tids[i]]
		if !ok {
			st = r.factories[tids[i]]()
			r.storages[tids[i]] = st
		}
		st.upsertValue(h, c)
		r.setBit(h, tids[i])
	}
	return nil
}

// Detach removes component type T from the entity. Absent components are
// a no-op.
func Detach[T any](r *Registry, h Handle) {
	r.DetachComponent(h, TypeIDOf[T]())
}

// DetachComponent removes the component with the given type id from the
// entity. Missing storages and absent components are a no-op.
func (r *Registry) DetachComponent(h Handle, tid TypeID) {
	if !r.ContainsEntity(h) {
		return
	}
	if st, ok := r.storages[tid]; ok {
		st.removeID(IDOf(h))
	}
	r.clearBit(h, tid)
}

// DetachComponents removes every listed component type from the entity.
// Duplicate type ids fail with ErrInvalidArgument and leave the registry
// unchanged.
func (r *Registry) DetachComponents(h Handle, tids ...TypeID) error {
	for i, tid := range tids {
		for _, seen := range tids[:i] {
			if seen == tid {
				return fmt.Errorf("%w: duplicate type id %d", ErrInvalidArgument, tid)
			}
		}
	}
	for _, tid := range tids {
		r.DetachComponent(h, tid)
	}
	return nil
}

// ContainsComponent reports whether the live entity carries the component
// type.
func (r *Registry) ContainsComponent(h Handle, tid TypeID) bool {
	mask, ok := r.masks[h]
	if !ok {
		return false
	}
	bit, ok := r.indices[tid]
	if !ok {
		return false
	}
	return mask.Contains(bit)
}

// ContainsAll reports whether the entity carries every listed type.
func (r *Registry) ContainsAll(h Handle, tids ...TypeID) bool {
	for _, tid := range tids {
		if !r.ContainsComponent(h, tid) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether the entity carries at least one listed type.
func (r *Registry) ContainsAny(h Handle, tids ...TypeID) bool {
	for _, tid := range tids {
		if r.ContainsComponent(h, tid) {
			return true
		}
	}
	return false
}

// HasComponent reports whether the live entity carries component type T.
func HasComponent[T any](r *Registry, h Handle) bool {
	return r.ContainsComponent(h, TypeIDOf[T]())
}

func (r *Registry) bitOf(tid TypeID) uint32 {
	if bit, ok := r.indices[tid]; ok {
		return bit
	}
	bit := uint32(len(r.types))
	r.indices[tid] = bit
	r.types = append(r.types, tid)
	return bit
}

func (r *Registry) setBit(h Handle, tid TypeID) {
	mask := r.masks[h]
	mask.Set(r.bitOf(tid))
	r.masks[h] = mask
}

func (r *Registry) clearBit(h Handle, tid TypeID) {
	bit, ok := r.indices[tid]
	if !ok {
		return
	}
	mask := r.masks[h]
	mask.Remove(bit)
	r.masks[h] = mask
}
