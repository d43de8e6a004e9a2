package objective

import (
	"errors"
	"fmt"
	"math"
)

// Bounds defines the box-shaped search space, one [Lower[i], Upper[i]] interval per dimension
type Bounds struct {
	Lower []float64 `json:"lower" yaml:"lower"`
	Upper []float64 `json:"upper" yaml:"upper"`
}

// Square creates bounds with the same interval on every dimension
func Square(lo, hi float64, dim int) Bounds {
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = lo
		upper[i] = hi
	}
	return Bounds{Lower: lower, Upper: upper}
}

// Dim returns the dimensionality of the search space
func (b Bounds) Dim() int {
	return len(b.Lower)
}

// Validate checks that the bounds describe a non-empty box
func (b Bounds) Validate() error {
	if len(b.Lower) == 0 {
		return errors.New("bounds must have at least one dimension")
	}
	if len(b.Lower) != len(b.Upper) {
		return fmt.Errorf("bounds dimension mismatch: %d lower, %d upper", len(b.Lower), len(b.Upper))
	}
	for i := range b.Lower {
		if math.IsNaN(b.Lower[i]) || math.IsNaN(b.Upper[i]) || b.Lower[i] >= b.Upper[i] {
			return fmt.Errorf("invalid bounds on dimension %d: [%v, %v]", i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}

// Width returns Upper[i] - Lower[i]
func (b Bounds) Width(i int) float64 {
	return b.Upper[i] - b.Lower[i]
}

// Clip clamps x in place to the bounds
func (b Bounds) Clip(x []float64) {
	for i := range x {
		x[i] = math.Max(b.Lower[i], math.Min(b.Upper[i], x[i]))
	}
}
