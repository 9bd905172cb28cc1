package ecs

import "fmt"

// Viewer is the read surface systems receive. It exposes typed iteration
// over entities filtered by required, optional and excluded component
// types. Mutating the registry during a walk is undefined; the scheduler
// prevents it by deferring all writes into the command queue.
type Viewer struct {
	world *World
}

// NewViewer wraps the world for read access.
func NewViewer(w *World) *Viewer {
	return &Viewer{world: w}
}

// Registry exposes the underlying registry for membership queries.
func (v *Viewer) Registry() *Registry {
	return v.world.registry
}

// ViewResource reads the world singleton of type T through the viewer.
func ViewResource[T any](v *Viewer) (T, bool) {
	return ResourceOf[T](v.world)
}

// ViewOption narrows an iteration.
type ViewOption func(*viewFilter)

// Without excludes entities carrying component type T.
func Without[T any]() ViewOption {
	return func(f *viewFilter) {
		f.exclude = append(f.exclude, TypeIDOf[T]())
	}
}

type viewFilter struct {
	exclude []TypeID
}

// buildFilter applies the options and rejects overlap among the required,
// optional and excluded type sets. Overlap cannot be caught by the
// compiler, so it panics here, at view construction.
func buildFilter(required, optional []TypeID, opts []ViewOption) viewFilter {
	var f viewFilter
	for _, opt := range opts {
		opt(&f)
	}
	seen := make(map[TypeID]struct{}, len(required)+len(optional)+len(f.exclude))
	for _, group := range [][]TypeID{required, optional, f.exclude} {
		for _, tid := range group {
			if _, dup := seen[tid]; dup {
				panic(fmt.Errorf("%w: component type %d appears twice in view", ErrInvalidArgument, tid))
			}
			seen[tid] = struct{}{}
		}
	}
	return f
}

func (f *viewFilter) passes(r *Registry, h Handle) bool {
	return r.ContainsEntity(h) && !r.ContainsAny(h, f.exclude...)
}

// Each walks every live entity carrying component A, skipping excluded
// ones. The walk stops early when fn returns false.
func Each[A any](v *Viewer, fn func(h Handle, a *A) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter([]TypeID{TypeIDOf[A]()}, nil, opts)
	driver := StorageOf[A](r)
	for i := range driver.entities {
		h := driver.entities[i]
		if !filter.passes(r, h) {
			continue
		}
		if !fn(h, &driver.payload[i]) {
			return
		}
	}
}

// Each2 walks entities carrying both A and B. The storage for A drives
// the walk; candidates missing B are skipped.
func Each2[A, B any](v *Viewer, fn func(h Handle, a *A, b *B) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter([]TypeID{TypeIDOf[A](), TypeIDOf[B]()}, nil, opts)
	driver := StorageOf[A](r)
	second := StorageOf[B](r)
	for i := range driver.entities {
		h := driver.entities[i]
		if !second.Contains(IDOf(h)) || !filter.passes(r, h) {
			continue
		}
		if !fn(h, &driver.payload[i], second.ComponentOf(IDOf(h))) {
			return
		}
	}
}

// Each3 walks entities carrying A, B and C, driven by the storage for A.
func Each3[A, B, C any](v *Viewer, fn func(h Handle, a *A, b *B, c *C) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter([]TypeID{TypeIDOf[A](), TypeIDOf[B](), TypeIDOf[C]()}, nil, opts)
	driver := StorageOf[A](r)
	second := StorageOf[B](r)
	third := StorageOf[C](r)
	for i := range driver.entities {
		h := driver.entities[i]
		id := IDOf(h)
		if !second.Contains(id) || !third.Contains(id) || !filter.passes(r, h) {
			continue
		}
		if !fn(h, &driver.payload[i], second.ComponentOf(id), third.ComponentOf(id)) {
			return
		}
	}
}

// EachOpt walks entities carrying A, surfacing B as a nullable pointer:
// nil when the entity does not carry B.
func EachOpt[A, B any](v *Viewer, fn func(h Handle, a *A, b *B) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter([]TypeID{TypeIDOf[A]()}, []TypeID{TypeIDOf[B]()}, opts)
	driver := StorageOf[A](r)
	optional := StorageOf[B](r)
	for i := range driver.entities {
		h := driver.entities[i]
		if !filter.passes(r, h) {
			continue
		}
		var b *B
		if optional.Contains(IDOf(h)) {
			b = optional.ComponentOf(IDOf(h))
		}
		if !fn(h, &driver.payload[i], b) {
			return
		}
	}
}

// EachOpt2 walks entities carrying A and B, surfacing C as a nullable
// pointer.
func EachOpt2[A, B, C any](v *Viewer, fn func(h Handle, a *A, b *B, c *C) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter([]TypeID{TypeIDOf[A](), TypeIDOf[B]()}, []TypeID{TypeIDOf[C]()}, opts)
	driver := StorageOf[A](r)
	second := StorageOf[B](r)
	optional := StorageOf[C](r)
	for i := range driver.entities {
		h := driver.entities[i]
		id := IDOf(h)
		if !second.Contains(id) || !filter.passes(r, h) {
			continue
		}
		var c *C
		if optional.Contains(id) {
			c = optional.ComponentOf(id)
		}
		if !fn(h, &driver.payload[i], second.ComponentOf(id), c) {
			return
		}
	}
}

// EachEntity walks every live entity, applying only the exclude filter.
// With no required set there is no driver storage, so the walk ranges
// over the registry's entity records in unspecified order.
func EachEntity(v *Viewer, fn func(h Handle) bool, opts ...ViewOption) {
	r := v.world.registry
	filter := buildFilter(nil, nil, opts)
	r.EachEntity(func(h Handle) bool {
		if !filter.passes(r, h) {
			return true
		}
		return fn(h)
	})
}
