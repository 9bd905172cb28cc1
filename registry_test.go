package ecs_test

import (
	"errors"
	"testing"

	"github.com/vantle/ecs"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

func TestRegistryCreateAndDestroy(t *testing.T) {
	r := ecs.NewRegistry()

	a := r.CreateEntity()
	b := r.CreateEntity()
	if a == b {
		t.Fatalf("expected unique handles, got %v twice", a)
	}
	if ecs.IDOf(a) == ecs.IDOf(b) {
		t.Fatalf("live entities share id %d", ecs.IDOf(a))
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 live entities, got %d", r.Len())
	}
	if !r.ContainsEntity(a) || !r.ContainsEntity(b) {
		t.Fatalf("expected created entities to be contained")
	}

	if err := r.DestroyEntity(a); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if r.ContainsEntity(a) {
		t.Fatalf("destroyed entity still contained")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live entity, got %d", r.Len())
	}
}

func TestRegistryRecyclesWithBumpedVersion(t *testing.T) {
	r := ecs.NewRegistry()

	a := r.CreateEntity()
	if err := r.DestroyEntity(a); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	c := r.CreateEntity()
	if ecs.IDOf(c) != ecs.IDOf(a) {
		t.Fatalf("expected recycled id %d, got %d", ecs.IDOf(a), ecs.IDOf(c))
	}
	if ecs.VersionOf(c) == ecs.VersionOf(a) {
		t.Fatalf("recycled handle kept version %d", ecs.VersionOf(c))
	}
	if r.ContainsEntity(a) {
		t.Fatalf("stale handle still contained after recycle")
	}
}

func TestRegistryDestroyStaleFails(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()
	if err := r.DestroyEntity(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := r.DestroyEntity(h); !errors.Is(err, ecs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on stale destroy, got %v", err)
	}
}

func TestRegistryNullNeverContained(t *testing.T) {
	r := ecs.NewRegistry()
	r.CreateEntity()
	if r.ContainsEntity(ecs.Null()) {
		t.Fatalf("null entity reported as contained")
	}
}

func TestRegistryAttachDetach(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()

	if err := ecs.Attach(r, h, position{X: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !ecs.HasComponent[position](r, h) {
		t.Fatalf("expected position attached")
	}
	if ecs.HasComponent[velocity](r, h) {
		t.Fatalf("unexpected velocity attached")
	}
	if got := ecs.StorageOf[position](r).ComponentOf(ecs.IDOf(h)).X; got != 1 {
		t.Fatalf("payload: got %v, want 1", got)
	}

	ecs.Detach[position](r, h)
	if ecs.HasComponent[position](r, h) {
		t.Fatalf("position survived detach")
	}
	if ecs.StorageOf[position](r).Contains(ecs.IDOf(h)) {
		t.Fatalf("storage still holds detached component")
	}
}

func TestRegistryAttachToStaleHandleFails(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()
	if err := r.DestroyEntity(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := ecs.Attach(r, h, position{}); !errors.Is(err, ecs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryAttachComponentsRejectsDuplicates(t *testing.T) {
	r := ecs.NewRegistry()
	ecs.Register[position](r)
	h := r.CreateEntity()

	err := r.AttachComponents(h, position{X: 1}, position{X: 2})
	if !errors.Is(err, ecs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if ecs.HasComponent[position](r, h) {
		t.Fatalf("failed attach mutated the registry")
	}
}

func TestRegistryAttachComponentsRequiresRegistration(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()

	if err := r.AttachComponents(h, velocity{}); !errors.Is(err, ecs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unregistered type, got %v", err)
	}

	ecs.Register[velocity](r)
	if err := r.AttachComponents(h, velocity{DX: 2}); err != nil {
		t.Fatalf("attach after register: %v", err)
	}
	if !ecs.HasComponent[velocity](r, h) {
		t.Fatalf("velocity not attached")
	}
}

func TestRegistryDetachComponentsRejectsDuplicateIDs(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()
	if err := ecs.Attach(r, h, position{X: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	tid := ecs.TypeIDOf[position]()
	if err := r.DetachComponents(h, tid, tid); !errors.Is(err, ecs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !ecs.HasComponent[position](r, h) {
		t.Fatalf("failed detach mutated the registry")
	}

	if err := r.DetachComponents(h, tid, ecs.TypeIDOf[velocity]()); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if ecs.HasComponent[position](r, h) {
		t.Fatalf("position survived detach")
	}
}

func TestRegistryContainsAllAny(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()
	if err := ecs.Attach(r, h, position{}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	pos := ecs.TypeIDOf[position]()
	vel := ecs.TypeIDOf[velocity]()

	if !r.ContainsAll(h, pos) {
		t.Fatalf("ContainsAll(position) = false")
	}
	if r.ContainsAll(h, pos, vel) {
		t.Fatalf("ContainsAll(position, velocity) = true")
	}
	if !r.ContainsAny(h, pos, vel) {
		t.Fatalf("ContainsAny(position, velocity) = false")
	}
	if r.ContainsAny(h, vel) {
		t.Fatalf("ContainsAny(velocity) = true")
	}
}

func TestRegistryDestroyDetachesEverything(t *testing.T) {
	r := ecs.NewRegistry()
	h := r.CreateEntity()
	if err := ecs.Attach(r, h, position{X: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ecs.Attach(r, h, velocity{DX: 2}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := r.DestroyEntity(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if ecs.StorageOf[position](r).Contains(ecs.IDOf(h)) {
		t.Fatalf("position storage still holds destroyed entity")
	}
	if ecs.StorageOf[velocity](r).Contains(ecs.IDOf(h)) {
		t.Fatalf("velocity storage still holds destroyed entity")
	}
}

func TestResourceRoundTrip(t *testing.T) {
	type clock struct{ Tick int }

	w := ecs.NewWorld()
	ecs.AddResource(w, clock{Tick: 9})

	got, ok := ecs.ResourceOf[clock](w)
	if !ok {
		t.Fatalf("resource missing after add")
	}
	if got.Tick != 9 {
		t.Fatalf("resource: got %d, want 9", got.Tick)
	}

	ecs.RemoveResource[clock](w)
	if _, ok := ecs.ResourceOf[clock](w); ok {
		t.Fatalf("resource survived removal")
	}
}
