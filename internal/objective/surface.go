package objective

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultResolution is the number of grid points per axis used for the landscape plot
const DefaultResolution = 50

// Surface is a function landscape sampled on a regular grid.
// X varies along columns and Y along rows, so Z[i][j] = f(X[i][j], Y[i][j]).
type Surface struct {
	X [][]float64 `json:"x"`
	Y [][]float64 `json:"y"`
	Z [][]float64 `json:"z"`
}

// Grid evaluates f over a resolution x resolution grid spanning 2D bounds
func Grid(f Func, b Bounds, resolution int) (*Surface, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Dim() != 2 {
		return nil, fmt.Errorf("surface requires 2D bounds, got %d dimensions", b.Dim())
	}
	if resolution < 2 {
		return nil, fmt.Errorf("surface resolution must be at least 2, got %d", resolution)
	}

	xs := floats.Span(make([]float64, resolution), b.Lower[0], b.Upper[0])
	ys := floats.Span(make([]float64, resolution), b.Lower[1], b.Upper[1])

	// Flatten the meshgrid into one population so f is called once
	mesh := mat.NewDense(resolution*resolution, 2, nil)
	for i, y := range ys {
		for j, x := range xs {
			mesh.SetRow(i*resolution+j, []float64{x, y})
		}
	}
	z := f(mesh)
	if len(z) != resolution*resolution {
		return nil, fmt.Errorf("objective returned %d scores for %d points", len(z), resolution*resolution)
	}

	s := &Surface{
		X: make([][]float64, resolution),
		Y: make([][]float64, resolution),
		Z: make([][]float64, resolution),
	}
	for i := 0; i < resolution; i++ {
		s.X[i] = append([]float64(nil), xs...)
		s.Y[i] = make([]float64, resolution)
		for j := range s.Y[i] {
			s.Y[i][j] = ys[i]
		}
		s.Z[i] = z[i*resolution : (i+1)*resolution : (i+1)*resolution]
	}

	return s, nil
}
