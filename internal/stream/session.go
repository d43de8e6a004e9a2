package stream

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/opt"
	"github.com/mariolpantunes/optviewer/internal/registry"
	"github.com/mariolpantunes/optviewer/internal/sampler"
)

// Defaults applied to a request when a parameter is absent or malformed
const (
	DefaultAlgorithm   = "PSO"
	DefaultFunction    = "Sphere"
	DefaultInitializer = registry.FallbackInitializer
	DefaultEpochs      = 50
	DefaultPopSize     = 30
	DefaultSleep       = 100 * time.Millisecond
	DefaultThreshold   = 1e-3
	DefaultSeed        = 42

	// MaxPopSize bounds the population of a single request
	MaxPopSize = 10000
)

// ErrInvalidRequest is wrapped by every error Validate returns
var ErrInvalidRequest = errors.New("invalid request")

// DefaultBounds is the square every run and preview is played on
func DefaultBounds() objective.Bounds {
	return objective.Square(-5, 5, 2)
}

// Request describes one optimization run. It is not modified once the run
// has started.
type Request struct {
	Algorithm   string
	Function    string
	Initializer string
	Epochs      int
	PopSize     int
	Sleep       time.Duration
	Threshold   float64
	Bounds      objective.Bounds
	Seed        int64
}

// Validate checks the parts of a request that size allocations, before
// anything is allocated for it
func (r Request) Validate() error {
	if r.Epochs < 1 {
		return fmt.Errorf("%w: epochs must be at least 1, got %d", ErrInvalidRequest, r.Epochs)
	}
	if r.PopSize < 1 || r.PopSize > MaxPopSize {
		return fmt.Errorf("%w: population size must be between 1 and %d, got %d", ErrInvalidRequest, MaxPopSize, r.PopSize)
	}
	if err := r.Bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// DefaultRequest returns a request with every field at its default
func DefaultRequest() Request {
	return Request{
		Algorithm:   DefaultAlgorithm,
		Function:    DefaultFunction,
		Initializer: DefaultInitializer,
		Epochs:      DefaultEpochs,
		PopSize:     DefaultPopSize,
		Sleep:       DefaultSleep,
		Threshold:   DefaultThreshold,
		Bounds:      DefaultBounds(),
		Seed:        DefaultSeed,
	}
}

// Setup resolves the request against reg and constructs the optimizer, wiring
// its callback to events. Nothing runs yet: any error returned here happens
// before a single event is produced.
func Setup(ctx context.Context, reg *registry.Registry, req Request, events chan<- Event) (opt.Optimizer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	obj, err := reg.Function(req.Function)
	if err != nil {
		return nil, err
	}
	newOptimizer, err := reg.Algorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}
	in := reg.Initializer(req.Initializer)

	rng := rand.New(rand.NewSource(req.Seed))
	start, err := in.InitialPopulation(obj, req.Bounds, req.PopSize, rng)
	if err != nil {
		return nil, err
	}

	o, err := newOptimizer(opt.Config{
		Objective:  obj,
		Bounds:     req.Bounds,
		PopSize:    req.PopSize,
		Iterations: req.Epochs,
		Population: start.Population,
		Sampler:    start.Sampler,
		Seed:       req.Seed,
		Callback:   NewCallback(ctx, events, req.Sleep, req.Threshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s optimizer: %w", req.Algorithm, err)
	}
	return o, nil
}

// Open sets up a run and starts its worker. The returned channel yields the
// epochs in order followed by the done event. When setup fails no worker is
// started and the channel is nil.
func Open(ctx context.Context, reg *registry.Registry, runID string, req Request) (<-chan Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	events := NewEvents()
	o, err := Setup(ctx, reg, req, events)
	if err != nil {
		return nil, err
	}
	Start(ctx, runID, o, events)
	return events, nil
}

// Preview draws the initial population the request would start from and
// scores it. The result is an epoch-0 message and depends only on the
// function, initializer, population size, bounds and seed.
func Preview(reg *registry.Registry, req Request) (*EpochMessage, error) {
	obj, err := reg.Function(req.Function)
	if err != nil {
		return nil, err
	}
	if req.PopSize < 1 || req.PopSize > MaxPopSize {
		return nil, fmt.Errorf("%w: population size must be between 1 and %d, got %d", ErrInvalidRequest, MaxPopSize, req.PopSize)
	}

	in := reg.Initializer(req.Initializer)
	pop, err := in.Sample(obj, req.Bounds, req.PopSize, rand.New(rand.NewSource(req.Seed)))
	if err != nil {
		return nil, err
	}

	scores, err := sampler.Evaluate(pop, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate preview population: %w", err)
	}
	return NewEpochMessage(0, scores, pop), nil
}
