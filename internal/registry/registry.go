// Package registry holds the read-only lookup tables that map the names shown
// in the dashboard to algorithms, benchmark functions and initializers.
//
// A Registry is built once at start-up and never mutated afterwards, so it can
// be shared by every request without locking.
package registry

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/opt"
	"github.com/mariolpantunes/optviewer/internal/sampler"
)

// Kind names one of the three tables
type Kind string

const (
	KindAlgorithm   Kind = "algorithm"
	KindFunction    Kind = "function"
	KindInitializer Kind = "initializer"
)

// InitKind tells how an initializer produces the starting population
type InitKind string

const (
	// InitSampler initializers hand a sampler to the optimizer
	InitSampler InitKind = "sampler"
	// InitAdvanced initializers build the population up front
	InitAdvanced InitKind = "advanced"
)

// FallbackInitializer is used when an unknown initializer name is requested
const FallbackInitializer = "Random"

// Initializer describes one entry of the initializer table
type Initializer struct {
	Name       string
	Kind       InitKind
	NewSampler sampler.Factory  // set for InitSampler
	Strategy   sampler.Strategy // set for InitAdvanced
}

// Registry is an immutable set of ordered lookup tables
type Registry struct {
	algorithms   table[opt.Factory]
	functions    table[objective.Func]
	initializers table[Initializer]
}

// table keeps insertion order for listing
type table[T any] struct {
	kind  Kind
	names []string
	items map[string]T
}

func newTable[T any](kind Kind) table[T] {
	return table[T]{kind: kind, items: make(map[string]T)}
}

func (t *table[T]) add(name string, item T) {
	if _, dup := t.items[name]; dup {
		panic(fmt.Sprintf("registry: duplicate %s %q", t.kind, name))
	}
	t.names = append(t.names, name)
	t.items[name] = item
}

func (t *table[T]) get(name string) (T, error) {
	item, ok := t.items[name]
	if !ok {
		var zero T
		return zero, &UnknownKeyError{Kind: t.kind, Key: name}
	}
	return item, nil
}

func (t *table[T]) list() []string {
	return append([]string(nil), t.names...)
}

func factory[T opt.Optimizer](fn func(opt.Config) (T, error)) opt.Factory {
	return func(cfg opt.Config) (opt.Optimizer, error) {
		o, err := fn(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
}

// Default builds the registry served by the dashboard
func Default() *Registry {
	r := &Registry{
		algorithms:   newTable[opt.Factory](KindAlgorithm),
		functions:    newTable[objective.Func](KindFunction),
		initializers: newTable[Initializer](KindInitializer),
	}

	r.algorithms.add("PSO", factory(opt.NewPSO))
	r.algorithms.add("DE", factory(opt.NewDE))
	r.algorithms.add("GWO", factory(opt.NewGWO))
	r.algorithms.add("HillClimbing", factory(opt.NewHillClimbing))
	r.algorithms.add("SimulatedAnnealing", factory(opt.NewSimulatedAnnealing))
	r.algorithms.add("RandomSearch", factory(opt.NewRandomSearch))

	r.functions.add("Sphere", objective.Sphere)
	r.functions.add("Rastrigin", objective.Rastrigin)
	r.functions.add("Ackley", objective.Ackley)
	r.functions.add("Rosenbrock", objective.Rosenbrock)
	r.functions.add("Griewank", objective.Griewank)

	r.initializers.add("Random", Initializer{Name: "Random", Kind: InitSampler, NewSampler: sampler.NewRandom})
	r.initializers.add("Sobol", Initializer{Name: "Sobol", Kind: InitSampler, NewSampler: sampler.NewSobol})
	r.initializers.add("Chaotic", Initializer{Name: "Chaotic", Kind: InitSampler, NewSampler: sampler.NewChaotic})
	r.initializers.add("OBL", Initializer{Name: "OBL", Kind: InitAdvanced, Strategy: sampler.OppositionBased})
	r.initializers.add("Quasi-OBL", Initializer{Name: "Quasi-OBL", Kind: InitAdvanced, Strategy: sampler.QuasiOppositionBased})
	r.initializers.add("OBLESA", Initializer{Name: "OBLESA", Kind: InitAdvanced, Strategy: sampler.OBLESA})

	return r
}

// Algorithm looks up an optimizer factory
func (r *Registry) Algorithm(name string) (opt.Factory, error) {
	return r.algorithms.get(name)
}

// Function looks up a benchmark function
func (r *Registry) Function(name string) (objective.Func, error) {
	return r.functions.get(name)
}

// Initializer looks up an initializer, falling back to Random for unknown names
func (r *Registry) Initializer(name string) Initializer {
	if entry, err := r.initializers.get(name); err == nil {
		return entry
	}
	entry, _ := r.initializers.get(FallbackInitializer)
	return entry
}

// LookupInitializer is the strict variant of Initializer
func (r *Registry) LookupInitializer(name string) (Initializer, error) {
	return r.initializers.get(name)
}

// Names lists the keys of every table in registration order
type Names struct {
	Algorithms   []string `json:"algorithms"`
	Functions    []string `json:"functions"`
	Initializers []string `json:"initializers"`
}

// Names returns copies of the key lists
func (r *Registry) Names() Names {
	return Names{
		Algorithms:   r.algorithms.list(),
		Functions:    r.functions.list(),
		Initializers: r.initializers.list(),
	}
}

// Start is the initial state handed to an optimizer: exactly one of
// Sampler or Population is set
type Start struct {
	Sampler    sampler.Sampler
	Population *mat.Dense
}

// InitialPopulation prepares the starting state. Sampler initializers
// are wrapped around rng; advanced ones build the population from a uniform
// base sampler on rng.
func (in Initializer) InitialPopulation(obj objective.Func, b objective.Bounds, nPop int, rng *rand.Rand) (Start, error) {
	switch in.Kind {
	case InitSampler:
		return Start{Sampler: in.NewSampler(rng)}, nil
	case InitAdvanced:
		pop, err := in.Strategy(obj, b, sampler.NewRandom(rng), nPop)
		if err != nil {
			return Start{}, fmt.Errorf("failed to build %s population: %w", in.Name, err)
		}
		return Start{Population: pop}, nil
	default:
		return Start{}, fmt.Errorf("initializer %q has unknown kind %q", in.Name, in.Kind)
	}
}

// Sample draws a concrete population, whatever the initializer kind
func (in Initializer) Sample(obj objective.Func, b objective.Bounds, nPop int, rng *rand.Rand) (*mat.Dense, error) {
	start, err := in.InitialPopulation(obj, b, nPop, rng)
	if err != nil {
		return nil, err
	}
	if start.Population != nil {
		return start.Population, nil
	}
	return start.Sampler.Sample(nPop, b), nil
}
