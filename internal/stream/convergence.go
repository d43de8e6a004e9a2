package stream

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when a run counts as stalled
type ConvergenceConfig struct {
	// Patience is the number of epochs without a significant improvement
	// after which the run has converged. Zero disables detection.
	Patience int

	// Threshold is the minimum relative improvement of the best score that
	// counts as progress, e.g. 0.001 for 0.1%
	Threshold float64
}

// ConvergenceTracker follows the best score epoch by epoch
type ConvergenceTracker struct {
	config          ConvergenceConfig
	epochs          int
	bestScore       float64
	lastSignificant float64 // best score at the last significant improvement
	staleCount      int
}

// NewConvergenceTracker creates a tracker for config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		bestScore:       math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records the best score of one epoch and reports whether the run has
// converged
func (c *ConvergenceTracker) Update(score float64) bool {
	if c.config.Patience <= 0 {
		return false
	}

	c.epochs++
	c.bestScore = math.Min(c.bestScore, score)

	if c.epochs == 1 {
		c.lastSignificant = score
		return false
	}

	improvement := c.lastSignificant - score
	if improvement > 0 && improvement >= c.config.Threshold*math.Abs(c.lastSignificant) {
		c.lastSignificant = score
		c.staleCount = 0
		return false
	}

	c.staleCount++
	slog.Debug("No significant improvement",
		"score", score,
		"last_significant", c.lastSignificant,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)
	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected, stopping early",
			"stale_count", c.staleCount,
			"best_score", c.bestScore,
		)
		return true
	}
	return false
}

// BestScore returns the lowest score seen so far
func (c *ConvergenceTracker) BestScore() float64 {
	return c.bestScore
}

// StaleCount returns the number of epochs since the last significant improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}
