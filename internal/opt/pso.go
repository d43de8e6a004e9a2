package opt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PSO is a global-best particle swarm with inertia weight
type PSO struct {
	*engine

	Inertia   float64
	Cognitive float64
	Social    float64
	// MaxVelocity caps each velocity component as a fraction of the bound width
	MaxVelocity float64

	vel         *mat.Dense
	pbest       *mat.Dense
	pbestScores []float64
}

// NewPSO creates a particle swarm optimizer with the constriction-derived
// coefficients w=0.729, c1=c2=1.49445
func NewPSO(cfg Config) (*PSO, error) {
	e, err := newEngine("PSO", cfg, 1)
	if err != nil {
		return nil, err
	}
	return &PSO{
		engine:      e,
		Inertia:     0.729,
		Cognitive:   1.49445,
		Social:      1.49445,
		MaxVelocity: 0.2,
	}, nil
}

// Optimize runs the swarm
func (p *PSO) Optimize(ctx context.Context) (*Result, error) {
	return p.run(ctx, p.setup, p.step)
}

func (p *PSO) setup() {
	n, d := p.pop.Dims()
	p.vel = mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		v := p.vel.RawRowView(i)
		for j := range v {
			limit := p.MaxVelocity * p.cfg.Bounds.Width(j)
			v[j] = (2*p.rng.Float64() - 1) * limit
		}
	}
	p.pbest = mat.DenseCopyOf(p.pop)
	p.pbestScores = append([]float64(nil), p.scores...)
}

func (p *PSO) step(int) error {
	n, _ := p.pop.Dims()
	for i := 0; i < n; i++ {
		x, v, pb := p.pop.RawRowView(i), p.vel.RawRowView(i), p.pbest.RawRowView(i)
		for j := range x {
			r1, r2 := p.rng.Float64(), p.rng.Float64()
			v[j] = p.Inertia*v[j] + p.Cognitive*r1*(pb[j]-x[j]) + p.Social*r2*(p.best[j]-x[j])

			limit := p.MaxVelocity * p.cfg.Bounds.Width(j)
			v[j] = math.Max(-limit, math.Min(limit, v[j]))
			x[j] += v[j]
		}
		p.cfg.Bounds.Clip(x)
	}

	scores, err := p.evaluate(p.pop)
	if err != nil {
		return err
	}
	p.scores = scores

	for i, s := range scores {
		if s < p.pbestScores[i] {
			p.pbestScores[i] = s
			p.pbest.SetRow(i, p.pop.RawRowView(i))
		}
	}
	return nil
}
