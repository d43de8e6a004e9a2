package opt

import (
	"context"

	"github.com/mariolpantunes/optviewer/internal/sampler"
)

// RandomSearch draws a fresh population every epoch and remembers the best point
type RandomSearch struct {
	*engine

	draw sampler.Sampler
}

// NewRandomSearch creates a random search. Epoch populations come from the
// configured sampler, or a uniform one seeded from Seed.
func NewRandomSearch(cfg Config) (*RandomSearch, error) {
	e, err := newEngine("RandomSearch", cfg, 1)
	if err != nil {
		return nil, err
	}
	draw := cfg.Sampler
	if draw == nil {
		draw = sampler.NewRandom(e.rng)
	}
	return &RandomSearch{engine: e, draw: draw}, nil
}

// Optimize runs the search
func (r *RandomSearch) Optimize(ctx context.Context) (*Result, error) {
	return r.run(ctx, nil, func(int) error {
		pop := r.draw.Sample(r.cfg.PopSize, r.cfg.Bounds)
		scores, err := r.evaluate(pop)
		if err != nil {
			return err
		}
		r.pop.Copy(pop)
		r.scores = scores
		return nil
	})
}
