package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mariolpantunes/optviewer/internal/objective"
)

// Minimizer is a black-box optimizer that runs to completion without
// reporting epochs. The bench command uses these as reference points.
type Minimizer interface {
	// Minimize returns the best parameters and best score
	Minimize(eval func([]float64) float64, b objective.Bounds) ([]float64, float64, error)
}

// PointEval adapts a vectorized objective to a single-point function
func PointEval(f objective.Func) func([]float64) float64 {
	return func(x []float64) float64 {
		return f(mat.NewDense(1, len(x), x))[0]
	}
}

// MayflyAdapter wraps the external Mayfly library
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Minimize executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Minimize(eval func([]float64) float64, b objective.Bounds) ([]float64, float64, error) {
	if err := b.Validate(); err != nil {
		return nil, 0, err
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = b.Dim()
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The library takes scalar bounds; use the first dimension
	config.LowerBound = b.Lower[0]
	config.UpperBound = b.Upper[0]

	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}

// CMAESAdapter runs gonum's CMA-ES (Cholesky variant) from the centre of the bounds.
// CMA-ES is unconstrained, so candidates are clipped before evaluation.
type CMAESAdapter struct {
	maxEvals int
	popSize  int
}

// NewCMAES creates a CMA-ES adapter limited to maxEvals objective evaluations
func NewCMAES(maxEvals, popSize int) *CMAESAdapter {
	return &CMAESAdapter{maxEvals: maxEvals, popSize: popSize}
}

// Minimize runs CMA-ES
func (c *CMAESAdapter) Minimize(eval func([]float64) float64, b objective.Bounds) ([]float64, float64, error) {
	if err := b.Validate(); err != nil {
		return nil, 0, err
	}

	d := b.Dim()
	initX := make([]float64, d)
	step := 0.0
	for j := 0; j < d; j++ {
		initX[j] = (b.Lower[j] + b.Upper[j]) / 2
		step = max(step, 0.3*b.Width(j))
	}

	clipped := make([]float64, d)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			copy(clipped, x)
			b.Clip(clipped)
			return eval(clipped)
		},
	}
	// eval is not required to be safe for concurrent use
	settings := &optimize.Settings{
		FuncEvaluations: c.maxEvals,
		Concurrent:      1,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: step,
		Population:   c.popSize,
	}

	result, err := optimize.Minimize(problem, initX, settings, method)
	if result == nil {
		return nil, 0, fmt.Errorf("cma-es optimization failed: %w", err)
	}

	best := append([]float64(nil), result.X...)
	b.Clip(best)
	return best, eval(best), nil
}
