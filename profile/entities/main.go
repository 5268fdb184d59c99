// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/edwinsyarief/kumi"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := kumi.NewWorld(kumi.WithInitialCapacity(numEntities))
		kumi.Register[comp1](w)
		kumi.Register[comp2](w)
		query := kumi.NewQuery2[comp1, comp2](w, kumi.Write, kumi.Read)
		batch := kumi.NewBuilder2[comp1, comp2](w)

		for range iters {
			batch.NewEntities(numEntities)
			entities := []kumi.Entity{}
			query.Reset()
			for query.Next() {
				entities = append(entities, query.Entity())
				c1, c2 := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
			query.Close()
			w.RemoveEntities(entities)
		}
		w.Close()
	}
}
