// Package sampler draws initial populations for the optimizers.
//
// Two families exist: a Sampler draws points from the bounds using a random
// source, and a Strategy derives a population from a base Sampler and the
// objective (opposition-based learning and its variants).
package sampler

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
)

// Sampler draws n points inside the bounds as an n x d matrix
type Sampler interface {
	Sample(n int, b objective.Bounds) *mat.Dense
}

// Factory builds a Sampler around a random source
type Factory func(rng *rand.Rand) Sampler

// RandomSampler draws points uniformly at random
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandom creates a uniform sampler
func NewRandom(rng *rand.Rand) Sampler {
	return &RandomSampler{rng: rng}
}

// Sample draws n uniform points
func (s *RandomSampler) Sample(n int, b objective.Bounds) *mat.Dense {
	d := b.Dim()
	pop := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := pop.RawRowView(i)
		for j := range row {
			row[j] = b.Lower[j] + s.rng.Float64()*b.Width(j)
		}
	}
	return pop
}

// ChaoticSampler fills the bounds by iterating the logistic map x <- 4x(1-x),
// one independent orbit per dimension
type ChaoticSampler struct {
	rng *rand.Rand
}

// NewChaotic creates a logistic-map sampler
func NewChaotic(rng *rand.Rand) Sampler {
	return &ChaoticSampler{rng: rng}
}

// Sample draws n points from the chaotic orbits
func (s *ChaoticSampler) Sample(n int, b objective.Bounds) *mat.Dense {
	d := b.Dim()
	state := make([]float64, d)
	for j := range state {
		state[j] = s.seed()
	}

	pop := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := pop.RawRowView(i)
		for j := range row {
			state[j] = 4 * state[j] * (1 - state[j])
			// Floating point can collapse the orbit onto 0 or 1; reseed when it does
			if state[j] <= 0 || state[j] >= 1 {
				state[j] = s.seed()
			}
			row[j] = b.Lower[j] + state[j]*b.Width(j)
		}
	}
	return pop
}

// seed picks a starting point away from the map's fixed points 0 and 0.75
// and from 0.5, 0.25, which reach them in a few steps
func (s *ChaoticSampler) seed() float64 {
	for {
		x := s.rng.Float64()
		if x > 1e-3 && x < 1-1e-3 && !near(x, 0.25) && !near(x, 0.5) && !near(x, 0.75) {
			return x
		}
	}
}

func near(a, b float64) bool {
	return a-b < 1e-6 && b-a < 1e-6
}
