// Package objective provides the vectorized benchmark functions that the
// optimizers minimize, together with the search-space bounds they run in.
package objective

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Func evaluates every row of pop and returns one score per row.
// Implementations must be deterministic and must not retain pop.
type Func func(pop *mat.Dense) []float64

// Pointwise lifts a single-point function into a vectorized Func
func Pointwise(f func(x []float64) float64) Func {
	return func(pop *mat.Dense) []float64 {
		n, _ := pop.Dims()
		scores := make([]float64, n)
		for i := 0; i < n; i++ {
			scores[i] = f(pop.RawRowView(i))
		}
		return scores
	}
}

// Sphere: f(x) = sum(x_i^2), minimum 0 at the origin
var Sphere = Pointwise(func(x []float64) float64 {
	return floats.Dot(x, x)
})

// Rastrigin: f(x) = 10d + sum(x_i^2 - 10cos(2*pi*x_i)), minimum 0 at the origin
var Rastrigin = Pointwise(func(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
})

// Ackley with a=20, b=0.2, c=2*pi, minimum 0 at the origin
var Ackley = Pointwise(func(x []float64) float64 {
	const a, b = 20.0, 0.2
	d := float64(len(x))

	var sumSq, sumCos float64
	for _, v := range x {
		sumSq += v * v
		sumCos += math.Cos(2 * math.Pi * v)
	}

	return -a*math.Exp(-b*math.Sqrt(sumSq/d)) - math.Exp(sumCos/d) + a + math.E
})

// Rosenbrock: f(x) = sum(100(x_{i+1} - x_i^2)^2 + (1 - x_i)^2), minimum 0 at (1, ..., 1)
var Rosenbrock = Pointwise(func(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		t := x[i+1] - x[i]*x[i]
		u := 1 - x[i]
		sum += 100*t*t + u*u
	}
	return sum
})

// Griewank: f(x) = 1 + sum(x_i^2)/4000 - prod(cos(x_i/sqrt(i+1))), minimum 0 at the origin
var Griewank = Pointwise(func(x []float64) float64 {
	sum := 0.0
	prod := 1.0
	for i, v := range x {
		sum += v * v
		prod *= math.Cos(v / math.Sqrt(float64(i+1)))
	}
	return 1 + sum/4000 - prod
})
