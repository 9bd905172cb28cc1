package ecs

import "fmt"

// StageID identifies a stage within a pipeline.
type StageID uint32

// Pipeline is an ordered list of stage schedulers. Execution fully drains
// one stage before starting the next, so ordering constraints only ever
// relate systems within a single stage.
type Pipeline struct {
	order  []StageID
	stages map[StageID]*StageScheduler
	next   StageID
	opts   []SchedulerOption
}

// NewPipeline constructs an empty pipeline. The options are applied to
// every stage scheduler it creates.
func NewPipeline(opts ...SchedulerOption) *Pipeline {
	return &Pipeline{
		stages: make(map[StageID]*StageScheduler),
		opts:   opts,
	}
}

func (p *Pipeline) newStage() StageID {
	id := p.next
	p.next++
	p.stages[id] = NewStageScheduler(p.opts...)
	return id
}

func (p *Pipeline) indexOf(id StageID) (int, error) {
	for i, existing := range p.order {
		if existing == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: stage %d", ErrNotFound, id)
}

// AddStageToFront inserts a new stage before every existing one.
func (p *Pipeline) AddStageToFront() StageID {
	id := p.newStage()
	p.order = append([]StageID{id}, p.order...)
	return id
}

// AddStageToBack appends a new stage after every existing one.
func (p *Pipeline) AddStageToBack() StageID {
	id := p.newStage()
	p.order = append(p.order, id)
	return id
}

// AddStageBefore inserts a new stage immediately before ref.
func (p *Pipeline) AddStageBefore(ref StageID) (StageID, error) {
	i, err := p.indexOf(ref)
	if err != nil {
		return 0, err
	}
	id := p.newStage()
	p.order = append(p.order[:i], append([]StageID{id}, p.order[i:]...)...)
	return id, nil
}

// AddStageAfter inserts a new stage immediately after ref.
func (p *Pipeline) AddStageAfter(ref StageID) (StageID, error) {
	i, err := p.indexOf(ref)
	if err != nil {
		return 0, err
	}
	id := p.newStage()
	p.order = append(p.order[:i+1], append([]StageID{id}, p.order[i+1:]...)...)
	return id, nil
}

// Stage resolves a stage id to its scheduler.
func (p *Pipeline) Stage(id StageID) (*StageScheduler, error) {
	sched, ok := p.stages[id]
	if !ok {
		return nil, fmt.Errorf("%w: stage %d", ErrNotFound, id)
	}
	return sched, nil
}

// AddSystemToStage registers fn with the given stage.
func (p *Pipeline) AddSystemToStage(stage StageID, fn System) (SystemID, error) {
	sched, err := p.Stage(stage)
	if err != nil {
		return InvalidSystemID, err
	}
	return sched.AddSystem(fn), nil
}

// AddConstraint orders from strictly before to within one stage. Taking a
// single stage id makes a cross-stage constraint inexpressible.
func (p *Pipeline) AddConstraint(stage StageID, from, to SystemID) error {
	sched, err := p.Stage(stage)
	if err != nil {
		return err
	}
	return sched.AddConstraint(from, to)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.order)
}

// Execute runs each stage scheduler in list order, fully draining one
// before starting the next.
func (p *Pipeline) Execute(v *Viewer, c *Commands) error {
	for _, id := range p.order {
		if err := p.stages[id].Execute(v, c); err != nil {
			return fmt.Errorf("stage %d: %w", id, err)
		}
	}
	return nil
}
