package ecs

import (
	"runtime"
	"sync"
)

// WorkerPool runs tasks on a fixed set of OS-thread-backed goroutines.
// Stop joins the workers after draining already queued tasks; Restart
// joins any existing workers and spawns a fresh set. Enqueue on a stopped
// pool fails with ErrStopped.
type WorkerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
	wg      sync.WaitGroup
	size    int
}

// NewWorkerPool constructs a running pool. A size of zero or less defaults
// to the hardware concurrency.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &WorkerPool{size: size, stopped: true}
	p.cond = sync.NewCond(&p.mu)
	p.Restart()
	return p
}

// Size returns the number of workers the pool spawns.
func (p *WorkerPool) Size() int {
	return p.size
}

// Enqueue submits a task for execution. It fails with ErrStopped once the
// pool has been stopped.
func (p *WorkerPool) Enqueue(task func()) error {
	if task == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	p.tasks = append(p.tasks, task)
	p.cond.Signal()
	return nil
}

// Stop rejects further tasks, lets workers drain everything already
// queued, and joins them. Stopping a stopped pool is a no-op.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.cond.Broadcast()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Restart joins any existing workers and spawns a fresh set, returning
// the pool to an accepting state.
func (p *WorkerPool) Restart() {
	p.Stop()
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.tasks) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()
		task()
	}
}
