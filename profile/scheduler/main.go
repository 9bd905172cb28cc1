// Profiling:
// go build ./profile/scheduler
// go tool pprof -http=":8000" -nodefraction=0.001 ./scheduler cpu.pprof

package main

import (
	"context"

	"github.com/pkg/profile"
	"github.com/vantle/ecs"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

func main() {
	frames := 5000
	entities := 2000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(frames, entities)
	p.Stop()
}

func run(frames, numEntities int) {
	app := ecs.NewApp(ecs.WithWorkers(4))
	reg := app.World().Registry()
	ecs.Register[position](reg)
	ecs.Register[velocity](reg)

	app.AddStartupSystem(func(v *ecs.Viewer, c *ecs.Commands) error {
		for i := 0; i < numEntities; i++ {
			c.Spawn(position{}, velocity{DX: 1, DY: 1})
		}
		return nil
	})

	move := app.AddUpdateSystem(func(v *ecs.Viewer, c *ecs.Commands) error {
		ecs.Each2(v, func(h ecs.Handle, p *position, vel *velocity) bool {
			p.X += vel.DX
			p.Y += vel.DY
			return true
		})
		return nil
	})
	clamp := app.AddUpdateSystem(func(v *ecs.Viewer, c *ecs.Commands) error {
		ecs.Each(v, func(h ecs.Handle, p *position) bool {
			if p.X > 1e6 {
				p.X = 0
			}
			if p.Y > 1e6 {
				p.Y = 0
			}
			return true
		})
		return nil
	})
	if err := app.AddUpdateConstraint(move, clamp); err != nil {
		panic(err)
	}

	done := 0
	if err := app.Run(context.Background(), func() bool {
		done++
		return done > frames
	}); err != nil {
		panic(err)
	}
}
