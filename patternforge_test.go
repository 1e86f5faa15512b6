package patternforge

import (
	"testing"

	"github.com/saxyguy81/patternforge/solve"
)

func TestProposeSolutionReExport(t *testing.T) {
	include := []string{"alpha/m1", "alpha/m2"}
	exclude := []string{"beta/m1"}

	sol := ProposeSolution(include, exclude, Options{Mode: solve.Exact})

	if sol.Metrics.FP != 0 {
		t.Fatalf("EXACT mode must have fp=0, got %d", sol.Metrics.FP)
	}
	if sol.Metrics.Covered != 2 {
		t.Errorf("Covered = %d, want 2", sol.Metrics.Covered)
	}
}

func TestProposeSolutionStructuredReExport(t *testing.T) {
	include := []Row{{"host": "web-01"}, {"host": "web-02"}}
	exclude := []Row{{"host": "db-01"}}

	sol := ProposeSolutionStructured(include, exclude, []string{"host"}, StructuredOptions{})

	if sol.Metrics.Covered != 2 {
		t.Errorf("Covered = %d, want 2", sol.Metrics.Covered)
	}
	if sol.Metrics.FP != 0 {
		t.Errorf("FP = %d, want 0", sol.Metrics.FP)
	}
}

func TestEvaluateExprReExport(t *testing.T) {
	atoms := map[string]string{"P1": "web-*"}
	result, err := EvaluateExpr("P1", atoms, []string{"web-01", "web-02"}, []string{"db-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Covered != 2 {
		t.Errorf("Covered = %d, want 2", result.Covered)
	}
	if result.FP != 0 {
		t.Errorf("FP = %d, want 0", result.FP)
	}
}
