package stream

import (
	"math"
	"testing"
)

func TestConvergenceTracker_Disabled(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{})
	for i := 0; i < 100; i++ {
		if c.Update(1) {
			t.Fatal("Disabled tracker should never converge")
		}
	}
}

func TestConvergenceTracker_Patience(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Patience: 3, Threshold: 0.01})

	scores := []float64{10, 5, 4.99, 4.98, 4.97}
	var converged []bool
	for _, s := range scores {
		converged = append(converged, c.Update(s))
	}

	want := []bool{false, false, false, false, true}
	for i := range want {
		if converged[i] != want[i] {
			t.Errorf("Epoch %d: expected converged=%v, got %v", i, want[i], converged[i])
		}
	}
	if c.BestScore() != 4.97 {
		t.Errorf("Expected best 4.97, got %f", c.BestScore())
	}
}

func TestConvergenceTracker_ImprovementResets(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Patience: 2, Threshold: 0.1})

	c.Update(10)
	c.Update(10)
	if c.StaleCount() != 1 {
		t.Fatalf("Expected stale count 1, got %d", c.StaleCount())
	}
	c.Update(5)
	if c.StaleCount() != 0 {
		t.Errorf("Expected significant improvement to reset, got %d", c.StaleCount())
	}
}

func TestConvergenceTracker_ZeroScore(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Patience: 1, Threshold: 0.001})

	c.Update(0)
	if !c.Update(0) {
		t.Error("Nothing improves on zero, so the run should converge")
	}
	if math.IsNaN(c.BestScore()) {
		t.Error("Best score should not be NaN")
	}
}
