package sampler

import (
	"math/bits"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
)

const sobolBits = 32

// Primitive polynomials and initial direction numbers (Joe & Kuo) for
// dimensions 2..8; dimension 1 is the van der Corput sequence.
var sobolParams = []struct {
	s int
	a uint32
	m []uint32
}{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
}

// MaxSobolDim is the highest dimension the Sobol sampler supports
const MaxSobolDim = 8

// SobolSampler draws points from a digitally shifted Sobol sequence.
// The shift is drawn from the random source, so a fixed seed gives a fixed sequence.
// Dimensions above MaxSobolDim fall back to uniform sampling.
type SobolSampler struct {
	rng *rand.Rand
}

// NewSobol creates a Sobol sampler
func NewSobol(rng *rand.Rand) Sampler {
	return &SobolSampler{rng: rng}
}

// Sample draws the first n points of a freshly shifted sequence
func (s *SobolSampler) Sample(n int, b objective.Bounds) *mat.Dense {
	d := b.Dim()
	if d > MaxSobolDim {
		return NewRandom(s.rng).Sample(n, b)
	}

	dirs := make([][sobolBits]uint32, d)
	for j := 0; j < d; j++ {
		dirs[j] = directionNumbers(j)
	}

	shift := make([]uint32, d)
	x := make([]uint32, d)
	for j := range shift {
		shift[j] = s.rng.Uint32()
	}

	const scale = 1.0 / (1 << sobolBits)
	pop := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		if i > 0 {
			// Gray-code update: flip the direction number of the lowest zero bit of i-1
			c := bits.TrailingZeros32(^uint32(i - 1))
			for j := 0; j < d; j++ {
				x[j] ^= dirs[j][c]
			}
		}
		row := pop.RawRowView(i)
		for j := range row {
			u := float64(x[j]^shift[j]) * scale
			row[j] = b.Lower[j] + u*b.Width(j)
		}
	}
	return pop
}

// directionNumbers returns v_k = m_k << (32 - k) for dimension j (0-based)
func directionNumbers(j int) [sobolBits]uint32 {
	var v [sobolBits]uint32
	if j == 0 {
		for k := 0; k < sobolBits; k++ {
			v[k] = 1 << (sobolBits - 1 - k)
		}
		return v
	}

	p := sobolParams[j-1]
	for k := 0; k < p.s; k++ {
		v[k] = p.m[k] << (sobolBits - 1 - k)
	}
	for k := p.s; k < sobolBits; k++ {
		v[k] = v[k-p.s] ^ (v[k-p.s] >> p.s)
		for l := 1; l < p.s; l++ {
			if (p.a>>(p.s-1-l))&1 == 1 {
				v[k] ^= v[k-l]
			}
		}
	}
	return v
}
