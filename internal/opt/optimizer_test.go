package opt

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/sampler"
)

var constructors = map[string]Factory{
	"PSO":                func(c Config) (Optimizer, error) { return NewPSO(c) },
	"DE":                 func(c Config) (Optimizer, error) { return NewDE(c) },
	"GWO":                func(c Config) (Optimizer, error) { return NewGWO(c) },
	"HillClimbing":       func(c Config) (Optimizer, error) { return NewHillClimbing(c) },
	"SimulatedAnnealing": func(c Config) (Optimizer, error) { return NewSimulatedAnnealing(c) },
	"RandomSearch":       func(c Config) (Optimizer, error) { return NewRandomSearch(c) },
}

func baseConfig() Config {
	return Config{
		Objective:  objective.Sphere,
		Bounds:     objective.Square(-5, 5, 2),
		PopSize:    20,
		Iterations: 30,
		Seed:       42,
	}
}

func TestOptimizersCallCallbackEveryEpoch(t *testing.T) {
	for name, factory := range constructors {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			var epochs []int
			cfg.Callback = func(epoch int, scores []float64, pop *mat.Dense) bool {
				epochs = append(epochs, epoch)
				n, d := pop.Dims()
				assert.Equal(t, 20, n)
				assert.Equal(t, 2, d)
				assert.Len(t, scores, 20)
				return false
			}

			o, err := factory(cfg)
			require.NoError(t, err)
			res, err := o.Optimize(context.Background())
			require.NoError(t, err)

			require.Len(t, epochs, 30)
			for i, e := range epochs {
				assert.Equal(t, i, e)
			}
			assert.Equal(t, 30, res.Epochs)
			assert.False(t, res.Stopped)
		})
	}
}

func TestOptimizersStopWhenCallbackSaysSo(t *testing.T) {
	for name, factory := range constructors {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			calls := 0
			cfg.Callback = func(epoch int, _ []float64, _ *mat.Dense) bool {
				calls++
				return epoch == 4
			}

			o, err := factory(cfg)
			require.NoError(t, err)
			res, err := o.Optimize(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 5, calls)
			assert.Equal(t, 5, res.Epochs)
			assert.True(t, res.Stopped)
		})
	}
}

func TestOptimizersStayWithinBoundsAndTrackBest(t *testing.T) {
	for name, factory := range constructors {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Objective = objective.Rastrigin
			lowest := 1e300
			cfg.Callback = func(_ int, scores []float64, pop *mat.Dense) bool {
				n, d := pop.Dims()
				for i := 0; i < n; i++ {
					for j := 0; j < d; j++ {
						v := pop.At(i, j)
						if v < -5 || v > 5 {
							t.Fatalf("individual %d left the bounds: %v", i, v)
						}
					}
				}
				lowest = min(lowest, floats.Min(scores))
				return false
			}

			o, err := factory(cfg)
			require.NoError(t, err)
			res, err := o.Optimize(context.Background())
			require.NoError(t, err)

			assert.LessOrEqual(t, res.BestScore, lowest)
			got := objective.Rastrigin(mat.NewDense(1, 2, res.Best))[0]
			assert.InDelta(t, res.BestScore, got, 1e-9)
		})
	}
}

func TestPopulationBasedOptimizersConvergeOnSphere(t *testing.T) {
	for _, name := range []string{"PSO", "DE", "GWO"} {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.PopSize = 30
			cfg.Iterations = 100

			o, err := constructors[name](cfg)
			require.NoError(t, err)
			res, err := o.Optimize(context.Background())
			require.NoError(t, err)

			assert.Less(t, res.BestScore, 1e-3)
		})
	}
}

func TestOptimizersAreDeterministic(t *testing.T) {
	for name, factory := range constructors {
		t.Run(name, func(t *testing.T) {
			run := func() *Result {
				cfg := baseConfig()
				cfg.Sampler = sampler.NewSobol(rand.New(rand.NewSource(42)))
				o, err := factory(cfg)
				require.NoError(t, err)
				res, err := o.Optimize(context.Background())
				require.NoError(t, err)
				return res
			}

			a, b := run(), run()
			assert.Equal(t, a.BestScore, b.BestScore)
			assert.Equal(t, a.Best, b.Best)
		})
	}
}

func TestOptimizersUseGivenPopulation(t *testing.T) {
	cfg := baseConfig()
	cfg.PopSize = 4
	cfg.Population = mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		-3, 3,
		9, -9, // clipped to (5, -5)
	})

	var first *mat.Dense
	cfg.Callback = func(epoch int, _ []float64, pop *mat.Dense) bool {
		first = mat.DenseCopyOf(pop)
		return true
	}

	o, err := NewDE(cfg)
	require.NoError(t, err)
	_, err = o.Optimize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	// The caller's matrix is never modified
	assert.Equal(t, 9.0, cfg.Population.At(3, 0))
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name    string
		factory string
		mutate  func(*Config)
	}{
		{"DE needs four", "DE", func(c *Config) { c.PopSize = 3 }},
		{"GWO needs three", "GWO", func(c *Config) { c.PopSize = 2 }},
		{"zero population", "PSO", func(c *Config) { c.PopSize = 0 }},
		{"zero iterations", "HillClimbing", func(c *Config) { c.Iterations = 0 }},
		{"no objective", "SimulatedAnnealing", func(c *Config) { c.Objective = nil }},
		{"bad bounds", "RandomSearch", func(c *Config) { c.Bounds = objective.Bounds{} }},
		{"population shape", "PSO", func(c *Config) { c.Population = mat.NewDense(3, 2, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := constructors[tt.factory](cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestOptimizeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := NewPSO(baseConfig())
	require.NoError(t, err)

	res, err := o.Optimize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Epochs)
	assert.True(t, res.Stopped)
}

func TestOptimizeReportsObjectiveFailure(t *testing.T) {
	cfg := baseConfig()
	cfg.Objective = func(pop *mat.Dense) []float64 { return nil }

	o, err := NewGWO(cfg)
	require.NoError(t, err)
	_, err = o.Optimize(context.Background())
	assert.Error(t, err)
}
