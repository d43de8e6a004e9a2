package opt

import (
	"context"
	"math"
	"sort"
)

// GWO is the grey wolf optimizer: the pack moves towards the three best
// wolves found so far (alpha, beta, delta) with a step that shrinks linearly
type GWO struct {
	*engine

	leaders [3]wolf
}

type wolf struct {
	pos   []float64
	score float64
}

// NewGWO creates a grey wolf optimizer; the pack needs at least three wolves
func NewGWO(cfg Config) (*GWO, error) {
	e, err := newEngine("GWO", cfg, 3)
	if err != nil {
		return nil, err
	}
	g := &GWO{engine: e}
	for k := range g.leaders {
		g.leaders[k] = wolf{pos: make([]float64, cfg.Bounds.Dim()), score: math.Inf(1)}
	}
	return g, nil
}

// Optimize runs the hunt
func (g *GWO) Optimize(ctx context.Context) (*Result, error) {
	return g.run(ctx, g.updateLeaders, g.step)
}

// updateLeaders merges the current pack into the alpha/beta/delta ranking
func (g *GWO) updateLeaders() {
	order := make([]int, len(g.scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return g.scores[order[a]] < g.scores[order[b]] })

	for _, i := range order[:3] {
		s := g.scores[i]
		for k := range g.leaders {
			if s < g.leaders[k].score {
				// Shift worse leaders down and insert a copy
				for m := len(g.leaders) - 1; m > k; m-- {
					g.leaders[m].score = g.leaders[m-1].score
					copy(g.leaders[m].pos, g.leaders[m-1].pos)
				}
				g.leaders[k].score = s
				copy(g.leaders[k].pos, g.pop.RawRowView(i))
				break
			}
		}
	}
}

func (g *GWO) step(epoch int) error {
	a := 2 - 2*float64(epoch)/float64(g.cfg.Iterations)

	n, _ := g.pop.Dims()
	for i := 0; i < n; i++ {
		x := g.pop.RawRowView(i)
		for j := range x {
			var sum float64
			for _, l := range g.leaders {
				r1, r2 := g.rng.Float64(), g.rng.Float64()
				A := 2*a*r1 - a
				C := 2 * r2
				dist := math.Abs(C*l.pos[j] - x[j])
				sum += l.pos[j] - A*dist
			}
			x[j] = sum / 3
		}
		g.cfg.Bounds.Clip(x)
	}

	scores, err := g.evaluate(g.pop)
	if err != nil {
		return err
	}
	g.scores = scores
	g.updateLeaders()
	return nil
}
