package opt

import (
	"math"
	"testing"

	"github.com/mariolpantunes/optviewer/internal/objective"
)

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42) // maxIters, popSize, seed

	best, cost, err := optimizer.Minimize(PointEval(objective.Sphere), objective.Square(-10, 10, 3))
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	if len(best) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(best))
	}

	// Should converge close to zero
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}

	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	b := objective.Square(-5, 5, 2)

	// popSize must be >=20 for mayfly v0.1.0
	_, cost1, err := NewMayfly(50, 20, 123).Minimize(PointEval(objective.Sphere), b)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	_, cost2, err := NewMayfly(50, 20, 123).Minimize(PointEval(objective.Sphere), b)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestCMAESAdapterOnSphere(t *testing.T) {
	best, cost, err := NewCMAES(3000, 0).Minimize(PointEval(objective.Sphere), objective.Square(-5, 5, 2))
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	if len(best) != 2 {
		t.Fatalf("Expected 2 parameters, got %d", len(best))
	}
	if cost > 1e-3 {
		t.Errorf("Expected cost near 0, got %g", cost)
	}
}

func TestReferenceAdaptersRejectBadBounds(t *testing.T) {
	for name, m := range map[string]Minimizer{"mayfly": NewMayfly(10, 20, 1), "cmaes": NewCMAES(100, 0)} {
		if _, _, err := m.Minimize(PointEval(objective.Sphere), objective.Bounds{}); err == nil {
			t.Errorf("%s: expected error for empty bounds", name)
		}
	}
}
