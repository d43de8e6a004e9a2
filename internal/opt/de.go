package opt

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// DE is differential evolution with the rand/1/bin scheme
type DE struct {
	*engine

	// F is the differential weight
	F float64
	// CR is the crossover probability
	CR float64
}

// NewDE creates a differential evolution optimizer with F=0.5 and CR=0.7.
// It needs at least four individuals to pick three distinct donors.
func NewDE(cfg Config) (*DE, error) {
	e, err := newEngine("DE", cfg, 4)
	if err != nil {
		return nil, err
	}
	return &DE{engine: e, F: 0.5, CR: 0.7}, nil
}

// Optimize runs the evolution
func (de *DE) Optimize(ctx context.Context) (*Result, error) {
	return de.run(ctx, nil, de.step)
}

func (de *DE) step(int) error {
	n, d := de.pop.Dims()
	trials := mat.NewDense(n, d, nil)

	for i := 0; i < n; i++ {
		a, b, c := de.donors(i, n)
		xa, xb, xc := de.pop.RawRowView(a), de.pop.RawRowView(b), de.pop.RawRowView(c)
		x, trial := de.pop.RawRowView(i), trials.RawRowView(i)

		jrand := de.rng.Intn(d)
		for j := 0; j < d; j++ {
			if j == jrand || de.rng.Float64() < de.CR {
				trial[j] = xa[j] + de.F*(xb[j]-xc[j])
			} else {
				trial[j] = x[j]
			}
		}
		de.cfg.Bounds.Clip(trial)
	}

	trialScores, err := de.evaluate(trials)
	if err != nil {
		return err
	}

	for i, s := range trialScores {
		if s <= de.scores[i] {
			de.scores[i] = s
			de.pop.SetRow(i, trials.RawRowView(i))
		}
	}
	return nil
}

// donors picks three mutually distinct indices, all different from i
func (de *DE) donors(i, n int) (int, int, int) {
	pick := func(exclude ...int) int {
	retry:
		for {
			k := de.rng.Intn(n)
			for _, e := range exclude {
				if k == e {
					continue retry
				}
			}
			return k
		}
	}
	a := pick(i)
	b := pick(i, a)
	c := pick(i, a, b)
	return a, b, c
}
