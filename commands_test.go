package ecs_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/vantle/ecs"
	"go.uber.org/zap"
)

func TestCommandsSpawnDeferred(t *testing.T) {
	world := ecs.NewWorld()
	ecs.Register[position](world.Registry())
	ecs.Register[velocity](world.Registry())

	commands := ecs.NewCommands()
	commands.Spawn(position{X: 32})
	commands.Spawn(velocity{DX: 64})

	if world.Registry().Len() != 0 {
		t.Fatalf("spawn applied before drain")
	}
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if world.Registry().Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", world.Registry().Len())
	}
	if got := ecs.StorageOf[position](world.Registry()).Size(); got != 1 {
		t.Fatalf("position storage size: got %d, want 1", got)
	}
	if got := ecs.StorageOf[velocity](world.Registry()).Size(); got != 1 {
		t.Fatalf("velocity storage size: got %d, want 1", got)
	}
}

func TestCommandsDestroyByHandle(t *testing.T) {
	world := ecs.NewWorld()
	reg := world.Registry()
	target := reg.CreateEntity()
	if err := ecs.Attach(reg, target, position{X: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	other := reg.CreateEntity()
	if err := ecs.Attach(reg, other, position{X: 2}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	commands := ecs.NewCommands()
	commands.Destroy(target)
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if reg.ContainsEntity(target) {
		t.Fatalf("destroyed entity survived drain")
	}
	if !reg.ContainsEntity(other) {
		t.Fatalf("wrong entity destroyed")
	}
	if ecs.StorageOf[position](reg).Contains(ecs.IDOf(target)) {
		t.Fatalf("component survived entity destruction")
	}
}

func TestCommandsExecuteInPushOrder(t *testing.T) {
	world := ecs.NewWorld()
	commands := ecs.NewCommands()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		commands.Push(ecs.CommandFunc(func(*ecs.World) error {
			order = append(order, i)
			return nil
		}))
	}
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("command %d ran at position %d", got, i)
		}
	}
	if !commands.Empty() {
		t.Fatalf("queue not empty after drain")
	}
}

func TestCommandsFailedApplyDoesNotStopDrain(t *testing.T) {
	world := ecs.NewWorld()
	ecs.Register[position](world.Registry())

	commands := ecs.NewCommands(ecs.WithCommandLogger(zap.NewNop()))
	boom := errors.New("boom")
	commands.Push(ecs.CommandFunc(func(*ecs.World) error { return boom }))
	commands.Spawn(position{X: 5})

	err := commands.Execute(world)
	if !errors.Is(err, boom) {
		t.Fatalf("apply failure lost: %v", err)
	}
	if got := world.Registry().Len(); got != 1 {
		t.Fatalf("command after failure skipped: %d entities", got)
	}
	if !commands.Empty() {
		t.Fatalf("queue not fully drained after failure")
	}
}

func TestCommandsConcurrentProducers(t *testing.T) {
	world := ecs.NewWorld()
	ecs.Register[position](world.Registry())
	commands := ecs.NewCommands()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				commands.Spawn(position{})
			}
		}()
	}
	wg.Wait()

	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := world.Registry().Len(); got != producers*perProducer {
		t.Fatalf("expected %d entities, got %d", producers*perProducer, got)
	}
}

func TestCommandsTryPopAndWaitPop(t *testing.T) {
	commands := ecs.NewCommands()

	if _, ok := commands.TryPop(); ok {
		t.Fatalf("TryPop on empty queue returned a command")
	}

	commands.Push(ecs.CommandFunc(func(*ecs.World) error { return nil }))
	if _, ok := commands.TryPop(); !ok {
		t.Fatalf("TryPop missed a queued command")
	}

	done := make(chan ecs.Command, 1)
	go func() {
		done <- commands.WaitPop()
	}()
	commands.Push(ecs.CommandFunc(func(*ecs.World) error { return nil }))
	if cmd := <-done; cmd == nil {
		t.Fatalf("WaitPop returned nil command")
	}
}

func TestCommandsClear(t *testing.T) {
	world := ecs.NewWorld()
	ecs.Register[position](world.Registry())

	commands := ecs.NewCommands()
	commands.Spawn(position{})
	commands.Clear()

	if !commands.Empty() {
		t.Fatalf("queue not empty after clear")
	}
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if world.Registry().Len() != 0 {
		t.Fatalf("cleared command still applied")
	}
}

func TestCommandsResourceVerbs(t *testing.T) {
	type frameBudget struct{ Millis int }

	world := ecs.NewWorld()
	commands := ecs.NewCommands()

	commands.AddResource(frameBudget{Millis: 16})
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got, ok := ecs.ResourceOf[frameBudget](world)
	if !ok || got.Millis != 16 {
		t.Fatalf("resource after drain: got %+v, ok=%v", got, ok)
	}

	commands.RemoveResource(ecs.TypeIDOf[frameBudget]())
	if err := commands.Execute(world); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := ecs.ResourceOf[frameBudget](world); ok {
		t.Fatalf("resource survived removal")
	}
}
