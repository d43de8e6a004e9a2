package opt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// HillClimbing runs one independent stochastic hill climber per individual.
// A climber moves only when the Gaussian candidate is strictly better.
type HillClimbing struct {
	*engine

	// StepSize is the standard deviation of a move as a fraction of the bound width
	StepSize float64
}

// NewHillClimbing creates a population of hill climbers
func NewHillClimbing(cfg Config) (*HillClimbing, error) {
	e, err := newEngine("HillClimbing", cfg, 1)
	if err != nil {
		return nil, err
	}
	return &HillClimbing{engine: e, StepSize: 0.1}, nil
}

// Optimize runs the climbers
func (h *HillClimbing) Optimize(ctx context.Context) (*Result, error) {
	return h.run(ctx, nil, func(int) error {
		return h.moveAll(h.StepSize, func(current, candidate float64) bool {
			return candidate < current
		})
	})
}

// SimulatedAnnealing runs one annealing chain per individual with the
// schedule T = T0 / (epoch + 1)
type SimulatedAnnealing struct {
	*engine

	Temperature float64
	StepSize    float64
}

// NewSimulatedAnnealing creates a population of annealing chains with T0=10
func NewSimulatedAnnealing(cfg Config) (*SimulatedAnnealing, error) {
	e, err := newEngine("SimulatedAnnealing", cfg, 1)
	if err != nil {
		return nil, err
	}
	return &SimulatedAnnealing{engine: e, Temperature: 10, StepSize: 0.1}, nil
}

// Optimize runs the chains
func (sa *SimulatedAnnealing) Optimize(ctx context.Context) (*Result, error) {
	return sa.run(ctx, nil, func(epoch int) error {
		t := sa.Temperature / float64(epoch+1)
		return sa.moveAll(sa.StepSize, func(current, candidate float64) bool {
			diff := candidate - current
			return diff < 0 || sa.rng.Float64() < math.Exp(-diff/t)
		})
	})
}

// moveAll proposes a Gaussian move for every individual and keeps the ones accept approves
func (e *engine) moveAll(scale float64, accept func(current, candidate float64) bool) error {
	n, d := e.pop.Dims()
	candidates := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		e.gaussianStep(candidates.RawRowView(i), e.pop.RawRowView(i), scale)
	}

	scores, err := e.evaluate(candidates)
	if err != nil {
		return err
	}

	for i, s := range scores {
		if accept(e.scores[i], s) {
			e.scores[i] = s
			e.pop.SetRow(i, candidates.RawRowView(i))
		}
	}
	return nil
}
