// Profiling:
// go build ./profile/storage
// go tool pprof -http=":8000" -nodefraction=0.001 ./storage mem.pprof

package main

import (
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
	rounds := 50
	iters := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		w := ecs.NewWorld()
		reg := w.Registry()
		ecs.Register[position](reg)
		ecs.Register[velocity](reg)

		for it := 0; it < iters; it++ {
			handles := make([]ecs.Handle, 0, numEntities)
			for e := 0; e < numEntities; e++ {
				h := reg.CreateEntity()
				if err := reg.AttachComponents(h, position{}, velocity{DX: 1, DY: 1}); err != nil {
					panic(err)
				}
				handles = append(handles, h)
			}

			v := ecs.NewViewer(w)
			ecs.Each2(v, func(h ecs.Handle, p *position, vel *velocity) bool {
				p.X += vel.DX
				p.Y += vel.DY
				return true
			})

			for _, h := range handles {
				if err := reg.DestroyEntity(h); err != nil {
					panic(err)
				}
			}
		}
	}
}
