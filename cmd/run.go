package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mariolpantunes/optviewer/internal/registry"
	"github.com/mariolpantunes/optviewer/internal/stream"
	"github.com/mariolpantunes/optviewer/internal/trace"
)

var (
	runAlgorithm   string
	runFunction    string
	runInitializer string
	runEpochs      int
	runPopSize     int
	runSleep       time.Duration
	runThreshold   float64
	runSeed        int64
	runTracePath   string
	runKeepPop     bool
	runEvery       int
	runPatience    int
	runMinImprove  float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization headless",
	Long: `Runs one optimization exactly as the dashboard would, printing progress
instead of plotting it. With --trace the epochs are also written to a .jsonl
or .csv file.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runAlgorithm, "algorithm", "", "Algorithm (default from config)")
	runCmd.Flags().StringVar(&runFunction, "function", "", "Benchmark function (default from config)")
	runCmd.Flags().StringVar(&runInitializer, "initializer", "", "Population initializer (default from config)")
	runCmd.Flags().IntVar(&runEpochs, "epochs", 0, "Number of epochs (default from config)")
	runCmd.Flags().IntVar(&runPopSize, "pop", 0, "Population size (default from config)")
	runCmd.Flags().DurationVar(&runSleep, "sleep", 0, "Delay after each epoch")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "Stop once the best score is at or below this (default from config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed (default from config)")
	runCmd.Flags().StringVar(&runTracePath, "trace", "", "Write every epoch to this .jsonl or .csv file")
	runCmd.Flags().BoolVar(&runKeepPop, "keep-population", false, "Include the whole population in JSON-lines traces")
	runCmd.Flags().IntVar(&runEvery, "every", 10, "Print progress every N epochs (0 disables)")
	runCmd.Flags().IntVar(&runPatience, "patience", 0, "Stop after this many epochs without significant improvement (0 disables)")
	runCmd.Flags().Float64Var(&runMinImprove, "min-improvement", 0.001, "Relative improvement of the best score that resets --patience")

	rootCmd.AddCommand(runCmd)
}

// runSummary is the outcome of a headless run
type runSummary struct {
	Epochs    int
	BestScore float64 // lowest score seen in any epoch
	Elapsed   time.Duration
	Converged bool
	Err       string
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := cfg.Request()
	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		req.Algorithm = runAlgorithm
	}
	if flags.Changed("function") {
		req.Function = runFunction
	}
	if flags.Changed("initializer") {
		// The server falls back to Random; a typo on the command line is an error
		if err := checkInitializer(registry.Default(), runInitializer); err != nil {
			return err
		}
		req.Initializer = runInitializer
	}
	if flags.Changed("epochs") {
		req.Epochs = runEpochs
	}
	if flags.Changed("pop") {
		req.PopSize = runPopSize
	}
	// Headless runs have no browser to pace
	req.Sleep = 0
	if flags.Changed("sleep") {
		req.Sleep = runSleep
	}
	if flags.Changed("threshold") {
		req.Threshold = runThreshold
	}
	if flags.Changed("seed") {
		req.Seed = runSeed
	}

	var tw trace.Writer
	if runTracePath != "" {
		tw, err = trace.Create(runTracePath)
		if err != nil {
			return err
		}
		defer tw.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := headlessOptions{
		Trace:          tw,
		KeepPopulation: runKeepPop,
		Every:          runEvery,
		Convergence:    stream.ConvergenceConfig{Patience: runPatience, Threshold: runMinImprove},
	}
	summary, err := runHeadless(ctx, registry.Default(), req, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: best %.6g after %d epochs in %s\n",
		req.Algorithm, req.Function, summary.BestScore, summary.Epochs, humanize.SIWithDigits(summary.Elapsed.Seconds(), 3, "s"))
	if summary.Converged {
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %d epochs without significant improvement\n", runPatience)
	}
	if tw != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", tw.Path())
	}
	if summary.Err != "" {
		return fmt.Errorf("optimizer failed: %s", summary.Err)
	}
	return nil
}

// checkInitializer rejects initializer names the registry does not know
func checkInitializer(reg *registry.Registry, name string) error {
	if _, err := reg.LookupInitializer(name); err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(reg.Names().Initializers, ", "))
	}
	return nil
}

// headlessOptions controls what a headless run does with its epochs
type headlessOptions struct {
	Trace          trace.Writer // optional
	KeepPopulation bool
	Every          int // progress line interval, 0 for none
	Convergence    stream.ConvergenceConfig
}

// runHeadless drives one run through the same channel the server streams
// from, writing every epoch to the trace and a progress line to out. A run
// that stops improving is cancelled the way a closed browser tab would be.
func runHeadless(parent context.Context, reg *registry.Registry, req stream.Request, opts headlessOptions, out io.Writer) (*runSummary, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	runID := uuid.NewString()
	slog.Info("Starting optimization",
		"run_id", runID,
		"algorithm", req.Algorithm,
		"function", req.Function,
		"initializer", req.Initializer,
		"epochs", req.Epochs,
		"pop_size", req.PopSize,
	)

	start := time.Now()
	events, err := stream.Open(ctx, reg, runID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	summary := &runSummary{BestScore: math.Inf(1)}
	convergence := stream.NewConvergenceTracker(opts.Convergence)
	var writeErr error
	for ev := range events {
		switch ev.Kind {
		case stream.EventEpoch:
			msg := ev.Epoch
			summary.Epochs = msg.Epoch + 1
			summary.BestScore = math.Min(summary.BestScore, msg.BestScore)
			if opts.Trace != nil && writeErr == nil {
				writeErr = opts.Trace.Write(trace.FromEpoch(msg, time.Since(start), opts.KeepPopulation))
			}
			if opts.Every > 0 && msg.Epoch%opts.Every == 0 {
				fmt.Fprintf(out, "epoch %5d  best %.6g\n", msg.Epoch, msg.BestScore)
			}
			if !summary.Converged && convergence.Update(msg.BestScore) {
				summary.Converged = true
				cancel()
			}
		case stream.EventError:
			summary.Err = ev.Err
		}
	}
	summary.Elapsed = time.Since(start)

	if writeErr != nil {
		return summary, fmt.Errorf("failed to write trace: %w", writeErr)
	}
	if err := parent.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, nil
}
