// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"github.com/edwinsyarief/kumi"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

type comp4 struct {
	V int64
	W int64
}

func main() {
	count := 20
	iters := 1000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	if err := run(count, iters, entities); err != nil {
		panic(err)
	}
	p.Stop()
}

// run iterates two queries with disjoint write sets side by side over the
// same archetype.
func run(rounds, iters, numEntities int) error {
	for range rounds {
		w := kumi.NewWorld(kumi.WithInitialCapacity(numEntities))
		kumi.Register[comp1](w)
		kumi.Register[comp2](w)
		kumi.Register[comp3](w)
		kumi.Register[comp4](w)
		kumi.NewBuilder3[comp1, comp2, comp3](w).NewEntities(numEntities / 2)
		ents := kumi.NewBuilder2[comp1, comp2](w).NewEntities(numEntities / 2)
		for _, e := range ents {
			kumi.AddComponent(w, e, comp4{V: 1})
		}

		var g errgroup.Group
		g.Go(func() error {
			q := kumi.NewQuery2[comp1, comp2](w, kumi.Write, kumi.Read)
			for range iters {
				q.Reset()
				for q.Next() {
					c1, c2 := q.Get()
					c1.V += c2.V
					c1.W += c2.W
				}
			}
			return nil
		})
		g.Go(func() error {
			q := kumi.NewQuery2[comp3, comp2](w, kumi.Write, kumi.Read)
			for range iters {
				q.Reset()
				for q.Next() {
					c3, c2 := q.Get()
					c3.V += c2.W
				}
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		w.Close()
	}
	return nil
}
