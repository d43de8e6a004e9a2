// Package opt implements the population-based metaheuristics that the
// dashboard streams. Every optimizer minimizes a vectorized objective inside
// box bounds and reports each epoch through a Callback.
package opt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/sampler"
)

// Callback is invoked synchronously after every epoch with the current scores
// and population. The optimizer reuses pop after the call returns, so callers
// must copy anything they keep. Returning true stops the run.
type Callback func(epoch int, scores []float64, pop *mat.Dense) bool

// Config holds everything needed to construct an optimizer
type Config struct {
	Objective  objective.Func
	Bounds     objective.Bounds
	PopSize    int
	Iterations int

	// Population, when set, is used as the initial population.
	// Otherwise Sampler draws it; a nil Sampler means uniform sampling.
	Population *mat.Dense
	Sampler    sampler.Sampler

	// Seed drives the optimizer's own stochastic moves
	Seed int64

	Callback Callback
}

// Result is the outcome of a run
type Result struct {
	Best      []float64
	BestScore float64
	// Epochs is the number of completed epochs
	Epochs int
	// Stopped is true when the callback or the context ended the run early
	Stopped bool
}

// Optimizer runs a complete optimization
type Optimizer interface {
	Optimize(ctx context.Context) (*Result, error)
}

// Factory constructs an optimizer, returning an error for invalid configurations
type Factory func(cfg Config) (Optimizer, error)

// ErrInvalidConfig is wrapped by every construction error
var ErrInvalidConfig = errors.New("invalid optimizer configuration")

// engine carries the state shared by all algorithms: the population, its
// scores and the best point seen so far
type engine struct {
	cfg       Config
	rng       *rand.Rand
	pop       *mat.Dense
	scores    []float64
	best      []float64
	bestScore float64
}

func newEngine(name string, cfg Config, minPop int) (*engine, error) {
	if cfg.Objective == nil {
		return nil, fmt.Errorf("%w: %s requires an objective", ErrInvalidConfig, name)
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	if cfg.PopSize < minPop {
		return nil, fmt.Errorf("%w: %s requires a population of at least %d, got %d", ErrInvalidConfig, name, minPop, cfg.PopSize)
	}
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("%w: %s requires at least one iteration, got %d", ErrInvalidConfig, name, cfg.Iterations)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	d := cfg.Bounds.Dim()

	var pop *mat.Dense
	switch {
	case cfg.Population != nil:
		n, c := cfg.Population.Dims()
		if n != cfg.PopSize || c != d {
			return nil, fmt.Errorf("%w: %s: initial population is %dx%d, expected %dx%d", ErrInvalidConfig, name, n, c, cfg.PopSize, d)
		}
		pop = mat.DenseCopyOf(cfg.Population)
		for i := 0; i < n; i++ {
			cfg.Bounds.Clip(pop.RawRowView(i))
		}
	case cfg.Sampler != nil:
		pop = cfg.Sampler.Sample(cfg.PopSize, cfg.Bounds)
	default:
		pop = sampler.NewRandom(rng).Sample(cfg.PopSize, cfg.Bounds)
	}

	return &engine{
		cfg:       cfg,
		rng:       rng,
		pop:       pop,
		best:      make([]float64, d),
		bestScore: math.Inf(1),
	}, nil
}

// evaluate scores pop with the objective
func (e *engine) evaluate(pop *mat.Dense) ([]float64, error) {
	scores, err := sampler.Evaluate(pop, e.cfg.Objective)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate population: %w", err)
	}
	return scores, nil
}

// track records the best point of the current population
func (e *engine) track() {
	for i, s := range e.scores {
		if s < e.bestScore {
			e.bestScore = s
			copy(e.best, e.pop.RawRowView(i))
		}
	}
}

// run evaluates the initial population, calls setup once, then calls step
// once per epoch followed by the callback
func (e *engine) run(ctx context.Context, setup func(), step func(epoch int) error) (*Result, error) {
	scores, err := e.evaluate(e.pop)
	if err != nil {
		return nil, err
	}
	e.scores = scores
	e.track()

	if setup != nil {
		setup()
	}

	for epoch := 0; epoch < e.cfg.Iterations; epoch++ {
		if err := ctx.Err(); err != nil {
			return e.result(epoch, true), err
		}

		if err := step(epoch); err != nil {
			return e.result(epoch, true), err
		}
		e.track()

		if e.cfg.Callback != nil && e.cfg.Callback(epoch, e.scores, e.pop) {
			return e.result(epoch+1, true), nil
		}
	}

	return e.result(e.cfg.Iterations, false), nil
}

func (e *engine) result(epochs int, stopped bool) *Result {
	return &Result{
		Best:      append([]float64(nil), e.best...),
		BestScore: e.bestScore,
		Epochs:    epochs,
		Stopped:   stopped,
	}
}

// gaussianStep returns x + N(0, (scale*width)^2) per dimension, clipped to bounds
func (e *engine) gaussianStep(dst, x []float64, scale float64) {
	for j := range dst {
		dst[j] = x[j] + e.rng.NormFloat64()*scale*e.cfg.Bounds.Width(j)
	}
	e.cfg.Bounds.Clip(dst)
}
