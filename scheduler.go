package ecs

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StageScheduler executes one system graph on a worker pool, releasing a
// system only once every predecessor has completed. Two systems may run
// concurrently iff neither is an ancestor of the other.
type StageScheduler struct {
	mu     sync.Mutex
	graph  *Graph
	pool   *WorkerPool
	logger *zap.Logger
}

// SchedulerOption configures a stage scheduler at construction.
type SchedulerOption func(*StageScheduler)

// WithPoolSize sets the worker count. Zero or less defaults to the
// hardware concurrency.
func WithPoolSize(size int) SchedulerOption {
	return func(s *StageScheduler) {
		s.pool = NewWorkerPool(size)
	}
}

// WithSchedulerLogger sets the logger used for per-system tracing.
func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(s *StageScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStageScheduler constructs a scheduler with an empty graph.
func NewStageScheduler(opts ...SchedulerOption) *StageScheduler {
	s := &StageScheduler{
		graph:  NewGraph(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = NewWorkerPool(0)
	}
	s.pool.Stop()
	return s
}

// AddSystem registers fn with the stage and returns its stable id.
func (s *StageScheduler) AddSystem(fn System) SystemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.AddSystem(fn)
}

// AddConstraint orders from strictly before to within the stage.
func (s *StageScheduler) AddConstraint(from, to SystemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.AddConstraint(from, to)
}

// RemoveConstraint drops the ordering edge if present.
func (s *StageScheduler) RemoveConstraint(from, to SystemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.RemoveConstraint(from, to)
}

// RemoveSystem drops the system from subsequent executions.
func (s *StageScheduler) RemoveSystem(id SystemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.RemoveSystem(id)
}

// ContainsSystem reports whether the id refers to a live system.
func (s *StageScheduler) ContainsSystem(id SystemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.ContainsSystem(id)
}

// CheckCycle reports whether the stage's graph contains a cycle.
func (s *StageScheduler) CheckCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.CheckCycle()
}

type completion struct {
	id  SystemID
	err error
}

// Execute runs every system once, in topological order, on the worker
// pool. A cycle fails with ErrInvariant before any system runs. Graph
// edits made while Execute is running affect only later executions, since
// the traversal works on a clone taken under the lock.
func (s *StageScheduler) Execute(v *Viewer, c *Commands) error {
	s.mu.Lock()
	if s.graph.CheckCycle() {
		s.mu.Unlock()
		return fmt.Errorf("%w: system graph contains a cycle", ErrInvariant)
	}
	clone := s.graph.Clone()
	s.mu.Unlock()

	remaining := clone.Len()
	if remaining == 0 {
		return nil
	}

	s.pool.Restart()
	defer s.pool.Stop()

	done := make(chan completion, remaining)
	launch := func(id SystemID) error {
		fn, err := clone.FindSystem(id)
		if err != nil {
			return err
		}
		s.logger.Debug("system scheduled", zap.Uint32("system", uint32(id)))
		return s.pool.Enqueue(func() {
			done <- completion{id: id, err: runSystem(fn, v, c)}
		})
	}

	inFlight := 0
	for _, id := range clone.roots() {
		if err := launch(id); err != nil {
			return err
		}
		inFlight++
	}

	var failure error
	for remaining > 0 && inFlight > 0 {
		comp := <-done
		inFlight--
		remaining--

		if comp.err != nil {
			wrapped := eris.Wrapf(comp.err, "system %d failed", comp.id)
			s.logger.Error("system failed", zap.Uint32("system", uint32(comp.id)), zap.Error(comp.err))
			if failure == nil {
				failure = wrapped
			}
			continue
		}
		s.logger.Debug("system completed", zap.Uint32("system", uint32(comp.id)))
		if failure != nil {
			// A failed frame stops releasing successors; in-flight
			// systems are still drained above.
			continue
		}
		for _, succ := range clone.successorsOf(comp.id) {
			clone.RemoveConstraint(comp.id, succ)
			if clone.inDegree(succ) == 0 {
				if err := launch(succ); err != nil {
					return err
				}
				inFlight++
			}
		}
		clone.RemoveSystem(comp.id)
	}
	return failure
}

// runSystem invokes fn, converting a panic into an error so one panicking
// system fails the frame instead of tearing down a worker.
func runSystem(fn System, v *Viewer, c *Commands) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("system panicked: %v", r)
		}
	}()
	return fn(v, c)
}
