package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Command is a deferred mutation applied to the world between stages.
type Command interface {
	Apply(w *World) error
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(w *World) error

// Apply invokes the function.
func (f CommandFunc) Apply(w *World) error {
	return f(w)
}

// commandNode is a link in the queue. The tail node is always a dummy: a
// push fills the current dummy and appends a fresh one, so the producer
// side never touches the head.
type commandNode struct {
	cmd  Command
	next *commandNode
}

// commandQueue is a two-lock FIFO of commands. Producers link nodes under
// tailMu and take headMu only to signal waiting consumers; tryPop and
// waitPop hold headMu and take tailMu only to read the tail. execute holds
// both locks for the whole drain, so pushes wait until a drain finishes.
type commandQueue struct {
	headMu sync.Mutex
	tailMu sync.Mutex
	ready  *sync.Cond
	head   *commandNode
	tail   *commandNode
}

func newCommandQueue() *commandQueue {
	dummy := &commandNode{}
	q := &commandQueue{head: dummy, tail: dummy}
	q.ready = sync.NewCond(&q.headMu)
	return q
}

// push appends cmd. Safe for any number of concurrent producers.
func (q *commandQueue) push(cmd Command) {
	if cmd == nil {
		return
	}
	fresh := &commandNode{}
	q.tailMu.Lock()
	q.tail.cmd = cmd
	q.tail.next = fresh
	q.tail = fresh
	q.tailMu.Unlock()
	// Signal under headMu so a waitPop between its empty check and Wait
	// cannot miss the wakeup.
	q.headMu.Lock()
	q.ready.Signal()
	q.headMu.Unlock()
}

func (q *commandQueue) tailNode() *commandNode {
	q.tailMu.Lock()
	defer q.tailMu.Unlock()
	return q.tail
}

// tryPop removes and returns the oldest command without blocking.
func (q *commandQueue) tryPop() (Command, bool) {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	return q.popLocked()
}

// waitPop blocks until a command is available, then removes and returns it.
func (q *commandQueue) waitPop() Command {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	for {
		if cmd, ok := q.popLocked(); ok {
			return cmd
		}
		q.ready.Wait()
	}
}

func (q *commandQueue) popLocked() (Command, bool) {
	if q.head == q.tailNode() {
		return nil, false
	}
	node := q.head
	q.head = node.next
	return node.cmd, true
}

// execute drains the queue into the world in FIFO push order. Both locks
// are held for the whole drain, so execution is strictly serial. Failing
// commands do not stop the drain; each failure is wrapped, logged, and
// joined into the returned error.
func (q *commandQueue) execute(w *World, logger *zap.Logger) error {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	q.tailMu.Lock()
	defer q.tailMu.Unlock()

	var errs []error
	for i := 0; q.head != q.tail; i++ {
		node := q.head
		q.head = node.next
		if err := node.cmd.Apply(w); err != nil {
			err = eris.Wrapf(err, "command %d failed", i)
			logger.Error("command apply failed", zap.Int("command", i), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// clear discards every queued command without applying it.
func (q *commandQueue) clear() {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	q.tailMu.Lock()
	defer q.tailMu.Unlock()
	q.head = q.tail
}

// empty reports whether no command is queued.
func (q *commandQueue) empty() bool {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	return q.head == q.tailNode()
}

// Commands collects deferred world mutations from systems. It is safe for
// any number of concurrent producers; Execute drains it single-threaded
// between stages.
type Commands struct {
	queue  *commandQueue
	logger *zap.Logger
}

// CommandOption configures a command collector at construction.
type CommandOption func(*Commands)

// WithCommandLogger sets the logger used to report failed applies.
func WithCommandLogger(logger *zap.Logger) CommandOption {
	return func(c *Commands) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCommands constructs an empty command collector.
func NewCommands(opts ...CommandOption) *Commands {
	c := &Commands{queue: newCommandQueue(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push enqueues an arbitrary command.
func (c *Commands) Push(cmd Command) {
	c.queue.push(cmd)
}

// Spawn queues creation of a new entity carrying the given components.
// Component types must be registered with the registry.
func (c *Commands) Spawn(components ...any) {
	c.queue.push(CommandFunc(func(w *World) error {
		h := w.registry.CreateEntity()
		if err := w.registry.AttachComponents(h, components...); err != nil {
			return fmt.Errorf("spawn %v: %w", h, err)
		}
		return nil
	}))
}

// Destroy queues removal of the entity and all its components.
func (c *Commands) Destroy(h Handle) {
	c.queue.push(CommandFunc(func(w *World) error {
		return w.registry.DestroyEntity(h)
	}))
}

// Attach queues attachment of the given components to the entity.
func (c *Commands) Attach(h Handle, components ...any) {
	c.queue.push(CommandFunc(func(w *World) error {
		return w.registry.AttachComponents(h, components...)
	}))
}

// Detach queues detachment of the listed component types from the entity.
func (c *Commands) Detach(h Handle, tids ...TypeID) {
	c.queue.push(CommandFunc(func(w *World) error {
		return w.registry.DetachComponents(h, tids...)
	}))
}

// AddResource queues installation of v as the world singleton of its
// dynamic type.
func (c *Commands) AddResource(v any) {
	tid := typeIDFor(reflect.TypeOf(v))
	c.queue.push(CommandFunc(func(w *World) error {
		w.resources.set(tid, v)
		return nil
	}))
}

// RemoveResource queues removal of the world singleton with the given
// type id.
func (c *Commands) RemoveResource(tid TypeID) {
	c.queue.push(CommandFunc(func(w *World) error {
		w.resources.remove(tid)
		return nil
	}))
}

// Execute applies every queued command to the world in push order.
// Failures do not stop the drain; they are logged and joined.
func (c *Commands) Execute(w *World) error {
	return c.queue.execute(w, c.logger)
}

// TryPop removes and returns the oldest queued command without blocking.
func (c *Commands) TryPop() (Command, bool) {
	return c.queue.tryPop()
}

// WaitPop blocks until a command is queued, then removes and returns it.
func (c *Commands) WaitPop() Command {
	return c.queue.waitPop()
}

// Clear discards all queued commands, used on world teardown.
func (c *Commands) Clear() {
	c.queue.clear()
}

// Empty reports whether no command is queued.
func (c *Commands) Empty() bool {
	return c.queue.empty()
}
