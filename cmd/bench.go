package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/opt"
	"github.com/mariolpantunes/optviewer/internal/registry"
	"github.com/mariolpantunes/optviewer/internal/stream"
)

var (
	benchFunction   string
	benchEpochs     int
	benchPopSize    int
	benchSeed       int64
	benchWorkers    int
	benchReferences bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare every algorithm on one function",
	Long: `Runs every registered algorithm on the same function, population size
and epoch budget in parallel, plus the Mayfly and CMA-ES reference
optimizers, and prints the best score each one reached.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchFunction, "function", "Rastrigin", "Benchmark function")
	benchCmd.Flags().IntVar(&benchEpochs, "epochs", 100, "Epochs per algorithm")
	benchCmd.Flags().IntVar(&benchPopSize, "pop", 30, "Population size")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", stream.DefaultSeed, "Random seed")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", runtime.GOMAXPROCS(0), "Algorithms run concurrently")
	benchCmd.Flags().BoolVar(&benchReferences, "references", true, "Include the Mayfly and CMA-ES reference optimizers")
	rootCmd.AddCommand(benchCmd)
}

// benchResult is one row of the comparison
type benchResult struct {
	Name        string
	BestScore   float64
	Best        []float64
	Evaluations int
	Elapsed     time.Duration
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := cfg.Request()
	req.Function = benchFunction
	req.Epochs = benchEpochs
	req.PopSize = benchPopSize
	req.Seed = benchSeed

	results, err := benchmark(cmd.Context(), registry.Default(), req, benchWorkers, benchReferences)
	if err != nil {
		return err
	}
	return printBench(cmd.OutOrStdout(), req, results)
}

// benchmark runs every algorithm of reg, and optionally the reference
// optimizers, on req's function. Results are sorted by best score.
func benchmark(ctx context.Context, reg *registry.Registry, req stream.Request, workers int, references bool) ([]benchResult, error) {
	obj, err := reg.Function(req.Function)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[benchResult]().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(max(workers, 1))

	for _, name := range reg.Names().Algorithms {
		p.Go(func(ctx context.Context) (benchResult, error) {
			return benchAlgorithm(ctx, reg, name, obj, req)
		})
	}

	if references {
		evals := req.Epochs * req.PopSize
		refs := map[string]opt.Minimizer{
			"Mayfly (reference)": opt.NewMayfly(req.Epochs, req.PopSize, req.Seed),
			"CMA-ES (reference)": opt.NewCMAES(evals, req.PopSize),
		}
		for name, m := range refs {
			p.Go(func(ctx context.Context) (benchResult, error) {
				return benchReference(name, m, obj, req.Bounds)
			})
		}
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].BestScore == results[j].BestScore {
			return results[i].Name < results[j].Name
		}
		return results[i].BestScore < results[j].BestScore
	})
	return results, nil
}

func benchAlgorithm(ctx context.Context, reg *registry.Registry, name string, obj objective.Func, req stream.Request) (benchResult, error) {
	newOptimizer, err := reg.Algorithm(name)
	if err != nil {
		return benchResult{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	start, err := reg.Initializer(req.Initializer).InitialPopulation(obj, req.Bounds, req.PopSize, rng)
	if err != nil {
		return benchResult{}, err
	}

	evals := req.PopSize
	o, err := newOptimizer(opt.Config{
		Objective:  obj,
		Bounds:     req.Bounds,
		PopSize:    req.PopSize,
		Iterations: req.Epochs,
		Population: start.Population,
		Sampler:    start.Sampler,
		Seed:       req.Seed,
		Callback: func(epoch int, scores []float64, pop *mat.Dense) bool {
			evals += len(scores)
			return false
		},
	})
	if err != nil {
		return benchResult{}, fmt.Errorf("failed to create %s: %w", name, err)
	}

	t0 := time.Now()
	res, err := o.Optimize(ctx)
	if err != nil {
		return benchResult{}, fmt.Errorf("%s failed: %w", name, err)
	}
	slog.Debug("Benchmark finished", "algorithm", name, "best_score", res.BestScore)

	return benchResult{
		Name:        name,
		BestScore:   res.BestScore,
		Best:        res.Best,
		Evaluations: evals,
		Elapsed:     time.Since(t0),
	}, nil
}

func benchReference(name string, m opt.Minimizer, obj objective.Func, b objective.Bounds) (benchResult, error) {
	evals := 0
	point := opt.PointEval(obj)
	eval := func(x []float64) float64 {
		evals++
		return point(x)
	}

	t0 := time.Now()
	best, score, err := m.Minimize(eval, b)
	if err != nil {
		return benchResult{}, fmt.Errorf("%s failed: %w", name, err)
	}
	return benchResult{
		Name:        name,
		BestScore:   score,
		Best:        best,
		Evaluations: evals,
		Elapsed:     time.Since(t0),
	}, nil
}

func printBench(w io.Writer, req stream.Request, results []benchResult) error {
	fmt.Fprintf(w, "%s, %d epochs, population %d, seed %d\n\n", req.Function, req.Epochs, req.PopSize, req.Seed)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tALGORITHM\tBEST SCORE\tBEST POINT\tEVALUATIONS\tTIME")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%.6g\t%s\t%s\t%s\n",
			i+1,
			r.Name,
			r.BestScore,
			formatPoint(r.Best),
			humanize.Comma(int64(r.Evaluations)),
			humanize.SIWithDigits(r.Elapsed.Seconds(), 3, "s"),
		)
	}
	return tw.Flush()
}

func formatPoint(x []float64) string {
	s := "("
	for i, v := range x {
		if i > 0 {
			s += ", "
		}
		s += humanize.FtoaWithDigits(v, 4)
	}
	return s + ")"
}
