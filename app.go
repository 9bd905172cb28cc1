package ecs

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vantle/ecs/config"
)

// App drives a world through three pipelines: startup runs once, update
// runs until the exit predicate fires, shutdown always runs. Commands
// queued by systems are drained after startup and after each full update
// pass, serializing every world mutation to a pass boundary.
type App struct {
	world    *World
	viewer   *Viewer
	commands *Commands
	logger   *zap.Logger
	workers  int

	startup  *Pipeline
	update   *Pipeline
	shutdown *Pipeline

	startupStage  StageID
	updateStage   StageID
	shutdownStage StageID
}

// AppOption configures an app at construction.
type AppOption func(*App)

// WithLogger sets the logger shared by the app and its schedulers.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWorkers sets the worker count of every stage scheduler. Zero or
// less defaults to the hardware concurrency.
func WithWorkers(n int) AppOption {
	return func(a *App) {
		a.workers = n
	}
}

// WithConfig applies a loaded configuration: the worker count and a
// logger built from the logging section. A logger that fails to build
// leaves the current one in place.
func WithConfig(cfg *config.Config) AppOption {
	return func(a *App) {
		if cfg == nil {
			return
		}
		a.workers = cfg.Workers
		if log, err := config.NewLogger(cfg.Logging); err == nil {
			a.logger = log
		}
	}
}

// WithWorld supplies a prepared world instead of an empty one.
func WithWorld(w *World) AppOption {
	return func(a *App) {
		if w != nil {
			a.world = w
		}
	}
}

// NewApp constructs an app whose three pipelines are each seeded with one
// default stage.
func NewApp(opts ...AppOption) *App {
	a := &App{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.world == nil {
		a.world = NewWorld()
	}
	a.viewer = NewViewer(a.world)
	a.commands = NewCommands(WithCommandLogger(a.logger))

	schedOpts := []SchedulerOption{
		WithPoolSize(a.workers),
		WithSchedulerLogger(a.logger),
	}
	a.startup = NewPipeline(schedOpts...)
	a.update = NewPipeline(schedOpts...)
	a.shutdown = NewPipeline(schedOpts...)
	a.startupStage = a.startup.AddStageToBack()
	a.updateStage = a.update.AddStageToBack()
	a.shutdownStage = a.shutdown.AddStageToBack()
	return a
}

// World exposes the app's world.
func (a *App) World() *World {
	return a.world
}

// Commands exposes the app's command collector, usable outside systems to
// stage work before Run.
func (a *App) Commands() *Commands {
	return a.commands
}

// Startup returns the startup pipeline for stage and constraint edits.
func (a *App) Startup() *Pipeline {
	return a.startup
}

// Update returns the update pipeline.
func (a *App) Update() *Pipeline {
	return a.update
}

// Shutdown returns the shutdown pipeline.
func (a *App) Shutdown() *Pipeline {
	return a.shutdown
}

// AddStartupSystem registers fn with the default startup stage.
func (a *App) AddStartupSystem(fn System) SystemID {
	id, _ := a.startup.AddSystemToStage(a.startupStage, fn)
	return id
}

// AddUpdateSystem registers fn with the default update stage.
func (a *App) AddUpdateSystem(fn System) SystemID {
	id, _ := a.update.AddSystemToStage(a.updateStage, fn)
	return id
}

// AddShutdownSystem registers fn with the default shutdown stage.
func (a *App) AddShutdownSystem(fn System) SystemID {
	id, _ := a.shutdown.AddSystemToStage(a.shutdownStage, fn)
	return id
}

// AddUpdateConstraint orders two systems of the default update stage.
func (a *App) AddUpdateConstraint(from, to SystemID) error {
	return a.update.AddConstraint(a.updateStage, from, to)
}

// Run executes startup, loops update until shouldExit reports true or the
// context is cancelled, then executes shutdown. The command queue is
// drained after startup and after every update pass, and cleared on
// teardown.
func (a *App) Run(ctx context.Context, shouldExit func() bool) error {
	defer a.commands.Clear()

	a.logger.Info("startup")
	if err := a.runPipeline(a.startup); err != nil {
		return errors.Join(err, a.runShutdown())
	}

	var loopErr error
	for {
		if shouldExit != nil && shouldExit() {
			break
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				loopErr = ctx.Err()
			default:
			}
			if loopErr != nil {
				break
			}
		}
		if err := a.runPipeline(a.update); err != nil {
			loopErr = err
			break
		}
	}

	return errors.Join(loopErr, a.runShutdown())
}

// RunOnce executes startup, a single update pass and shutdown. Useful for
// tests and batch-style embedders.
func (a *App) RunOnce(ctx context.Context) error {
	passed := false
	return a.Run(ctx, func() bool {
		if passed {
			return true
		}
		passed = true
		return false
	})
}

func (a *App) runPipeline(p *Pipeline) error {
	if err := p.Execute(a.viewer, a.commands); err != nil {
		return err
	}
	return a.commands.Execute(a.world)
}

func (a *App) runShutdown() error {
	a.logger.Info("shutdown")
	return a.shutdown.Execute(a.viewer, a.commands)
}
