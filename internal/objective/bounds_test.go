package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquare(t *testing.T) {
	b := Square(-5, 5, 3)
	assert.Equal(t, 3, b.Dim())
	assert.Equal(t, []float64{-5, -5, -5}, b.Lower)
	assert.Equal(t, []float64{5, 5, 5}, b.Upper)
	assert.Equal(t, 10.0, b.Width(1))
	assert.NoError(t, b.Validate())
}

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
	}{
		{"empty", Bounds{}},
		{"mismatch", Bounds{Lower: []float64{0, 0}, Upper: []float64{1}}},
		{"inverted", Bounds{Lower: []float64{1}, Upper: []float64{0}}},
		{"degenerate", Bounds{Lower: []float64{1}, Upper: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.b.Validate())
		})
	}
}

func TestBoundsClip(t *testing.T) {
	b := Square(-5, 5, 3)
	x := []float64{-7, 2, 12}
	b.Clip(x)
	assert.Equal(t, []float64{-5, 2, 5}, x)
}
