package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFunctionsAtGlobalMinimum(t *testing.T) {
	tests := []struct {
		name    string
		f       Func
		minimum []float64
	}{
		{"Sphere", Sphere, []float64{0, 0}},
		{"Rastrigin", Rastrigin, []float64{0, 0}},
		{"Ackley", Ackley, []float64{0, 0}},
		{"Rosenbrock", Rosenbrock, []float64{1, 1}},
		{"Griewank", Griewank, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := mat.NewDense(1, 2, tt.minimum)
			scores := tt.f(pop)
			require.Len(t, scores, 1)
			assert.InDelta(t, 0, scores[0], 1e-12)
		})
	}
}

func TestFunctionsKnownValues(t *testing.T) {
	pop := mat.NewDense(2, 2, []float64{
		1, 2,
		-3, 0.5,
	})

	assert.Equal(t, []float64{5, 9.25}, Sphere(pop))

	// Rastrigin at integer coordinates reduces to the sphere term
	r := Rastrigin(mat.NewDense(1, 2, []float64{1, 2}))
	assert.InDelta(t, 5, r[0], 1e-9)

	// Rosenbrock at the origin: (1 - 0)^2
	ros := Rosenbrock(mat.NewDense(1, 2, []float64{0, 0}))
	assert.InDelta(t, 1, ros[0], 1e-12)
}

func TestFunctionsArePositiveAwayFromMinimum(t *testing.T) {
	pop := mat.NewDense(3, 2, []float64{
		2.5, -1.2,
		-4.9, 4.9,
		0.3, 0.7,
	})

	for name, f := range map[string]Func{
		"Sphere": Sphere, "Rastrigin": Rastrigin, "Ackley": Ackley,
		"Rosenbrock": Rosenbrock, "Griewank": Griewank,
	} {
		for i, s := range f(pop) {
			if s <= 0 || math.IsNaN(s) {
				t.Errorf("%s: row %d expected positive score, got %v", name, i, s)
			}
		}
	}
}

func TestFunctionsDoNotMutateInput(t *testing.T) {
	pop := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	before := mat.DenseCopyOf(pop)

	Ackley(pop)
	Griewank(pop)

	assert.True(t, mat.Equal(before, pop))
}
