package sampler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
)

// Strategy derives an nPop x d initial population from a base sampler,
// using the objective to select among candidate points
type Strategy func(obj objective.Func, b objective.Bounds, base Sampler, nPop int) (*mat.Dense, error)

// Evaluate scores every row of pop with obj
func Evaluate(pop *mat.Dense, obj objective.Func) ([]float64, error) {
	n, _ := pop.Dims()
	scores := obj(pop)
	if len(scores) != n {
		return nil, fmt.Errorf("objective returned %d scores for %d points", len(scores), n)
	}
	return scores, nil
}

// OppositionBased samples a population, mirrors it through the centre of the
// bounds (x' = lower + upper - x) and keeps the nPop best of both sets
func OppositionBased(obj objective.Func, b objective.Bounds, base Sampler, nPop int) (*mat.Dense, error) {
	if err := checkStrategyArgs(b, nPop); err != nil {
		return nil, err
	}

	pop := base.Sample(nPop, b)
	return selectBest(obj, nPop, pop, opposite(pop, b))
}

// QuasiOppositionBased replaces the opposite point with a point drawn
// uniformly between the centre of the bounds and the opposite point
func QuasiOppositionBased(obj objective.Func, b objective.Bounds, base Sampler, nPop int) (*mat.Dense, error) {
	if err := checkStrategyArgs(b, nPop); err != nil {
		return nil, err
	}

	pop := base.Sample(nPop, b)
	return selectBest(obj, nPop, pop, quasiOpposite(pop, b, base))
}

// OBLESA combines opposition-based learning with an empty-space attack:
// half of the population is the fittest of the random, opposite and
// quasi-opposite candidates, the rest is filled greedily with the candidates
// farthest from everything already selected
func OBLESA(obj objective.Func, b objective.Bounds, base Sampler, nPop int) (*mat.Dense, error) {
	if err := checkStrategyArgs(b, nPop); err != nil {
		return nil, err
	}

	pop := base.Sample(nPop, b)
	var candidates mat.Dense
	candidates.Stack(pop, opposite(pop, b))
	var all mat.Dense
	all.Stack(&candidates, quasiOpposite(pop, b, base))

	scores, err := Evaluate(&all, obj)
	if err != nil {
		return nil, err
	}
	order := argsort(scores)

	total, d := all.Dims()
	selected := make([]bool, total)
	picked := make([]int, 0, nPop)

	elite := (nPop + 1) / 2
	for _, idx := range order[:elite] {
		selected[idx] = true
		picked = append(picked, idx)
	}

	// minDist[i] is the normalized distance from candidate i to the selected set
	minDist := make([]float64, total)
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}
	update := func(p int) {
		for i := 0; i < total; i++ {
			if dist := normDist(all.RawRowView(i), all.RawRowView(p), b); dist < minDist[i] {
				minDist[i] = dist
			}
		}
	}
	for _, p := range picked {
		update(p)
	}

	for len(picked) < nPop {
		best, bestDist := -1, -1.0
		for _, i := range order {
			if !selected[i] && minDist[i] > bestDist {
				best, bestDist = i, minDist[i]
			}
		}
		selected[best] = true
		picked = append(picked, best)
		update(best)
	}

	out := mat.NewDense(nPop, d, nil)
	for i, idx := range picked {
		out.SetRow(i, all.RawRowView(idx))
	}
	return out, nil
}

func checkStrategyArgs(b objective.Bounds, nPop int) error {
	if nPop <= 0 {
		return fmt.Errorf("population size must be positive, got %d", nPop)
	}
	return b.Validate()
}

func opposite(pop *mat.Dense, b objective.Bounds) *mat.Dense {
	n, d := pop.Dims()
	opp := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		src, dst := pop.RawRowView(i), opp.RawRowView(i)
		for j := range dst {
			dst[j] = b.Lower[j] + b.Upper[j] - src[j]
		}
	}
	return opp
}

func quasiOpposite(pop *mat.Dense, b objective.Bounds, base Sampler) *mat.Dense {
	n, d := pop.Dims()
	u := base.Sample(n, objective.Square(0, 1, d))
	q := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		src, w, dst := pop.RawRowView(i), u.RawRowView(i), q.RawRowView(i)
		for j := range dst {
			c := (b.Lower[j] + b.Upper[j]) / 2
			o := b.Lower[j] + b.Upper[j] - src[j]
			dst[j] = c + w[j]*(o-c)
		}
	}
	return q
}

// selectBest stacks both candidate sets and keeps the nPop lowest-scoring rows
func selectBest(obj objective.Func, nPop int, pop, alt *mat.Dense) (*mat.Dense, error) {
	var all mat.Dense
	all.Stack(pop, alt)

	scores, err := Evaluate(&all, obj)
	if err != nil {
		return nil, err
	}
	order := argsort(scores)

	_, d := all.Dims()
	out := mat.NewDense(nPop, d, nil)
	for i := 0; i < nPop; i++ {
		out.SetRow(i, all.RawRowView(order[i]))
	}
	return out, nil
}

func argsort(scores []float64) []int {
	sorted := append([]float64(nil), scores...)
	order := make([]int, len(scores))
	floats.Argsort(sorted, order)
	return order
}

func normDist(a, c []float64, b objective.Bounds) float64 {
	var sum float64
	for j := range a {
		t := (a[j] - c[j]) / b.Width(j)
		sum += t * t
	}
	return math.Sqrt(sum)
}
