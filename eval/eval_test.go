package eval

import (
	"errors"
	"testing"
)

func TestEvaluateExprSingleAtomCoverage(t *testing.T) {
	atoms := map[string]string{"P1": "*cache*"}
	include := []string{"host_cache_one", "host_trace_one"}
	exclude := []string{"x_cache_two"}

	got, err := EvaluateExpr("P1", atoms, include, exclude)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Result{Covered: 1, TotalPositive: 2, FP: 1, FN: 1}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEvaluateExprAndOperatorRequiresBoth(t *testing.T) {
	atoms := map[string]string{"P1": "*cache*", "P2": "*host*"}
	include := []string{"host_cache", "disk_cache", "host_trace"}

	got, err := EvaluateExpr("P1 & P2", atoms, include, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Covered != 1 || got.FN != 2 {
		t.Errorf("expected only host_cache to satisfy P1 & P2, got %+v", got)
	}
}

func TestEvaluateExprOrOperatorUnionsCoverage(t *testing.T) {
	atoms := map[string]string{"P1": "*cache*", "P2": "*host*"}
	include := []string{"host_cache", "disk_cache", "host_trace"}

	got, err := EvaluateExpr("P1 | P2", atoms, include, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Covered != 3 {
		t.Errorf("expected all three rows to satisfy P1 | P2, got covered=%d", got.Covered)
	}
}

func TestEvaluateExprNotOperatorComplements(t *testing.T) {
	atoms := map[string]string{"P1": "*cache*"}
	include := []string{"a_cache", "b_trace"}

	got, err := EvaluateExpr("!P1", atoms, include, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Covered != 1 || got.FN != 1 {
		t.Errorf("expected !P1 to match only b_trace, got %+v", got)
	}
}

func TestEvaluateExprParenthesesAndPrecedence(t *testing.T) {
	atoms := map[string]string{"P1": "*cache*", "P2": "*host*", "P3": "*debug*"}
	include := []string{"host_cache", "host_debug", "disk_cache", "plain"}

	got, err := EvaluateExpr("(P1 | P2) & !P3", atoms, include, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Covered != 2 {
		t.Errorf("expected host_cache and disk_cache to survive, got covered=%d", got.Covered)
	}
}

func TestEvaluateExprAndBindsTighterThanOr(t *testing.T) {
	// P1 | P2 & P3 must parse as P1 | (P2 & P3), not (P1 | P2) & P3.
	atoms := map[string]string{"P1": "alpha", "P2": "beta", "P3": "gamma"}
	include := []string{"alpha", "beta", "gamma", "delta"}

	got, err := EvaluateExpr("P1 | P2 & P3", atoms, include, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// P1 matches only "alpha" (row 0). P2 & P3 needs a row matching both
	// "beta" and "gamma" exactly, which no single row does, so it
	// contributes nothing. Covered must be exactly 1 (row 0), not 0.
	if got.Covered != 1 {
		t.Errorf("expected P1 | (P2 & P3) to cover exactly row 0, got covered=%d", got.Covered)
	}
}

func TestEvaluateExprUnknownAtomIsParseError(t *testing.T) {
	atoms := map[string]string{"P1": "alpha"}
	_, err := EvaluateExpr("P1 & P9", atoms, []string{"alpha"}, nil)
	if err == nil {
		t.Fatal("expected a ParseError for an unknown atom id")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestEvaluateExprUnbalancedParenthesesIsParseError(t *testing.T) {
	atoms := map[string]string{"P1": "alpha"}
	_, err := EvaluateExpr("(P1", atoms, []string{"alpha"}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for unbalanced parens, got %v", err)
	}
}

func TestEvaluateExprTrailingGarbageIsParseError(t *testing.T) {
	atoms := map[string]string{"P1": "alpha"}
	_, err := EvaluateExpr("P1)", atoms, []string{"alpha"}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for trailing garbage, got %v", err)
	}
}

func TestEvaluateExprMalformedAtomIsParseError(t *testing.T) {
	atoms := map[string]string{"P1": "alpha"}
	_, err := EvaluateExpr("P", atoms, []string{"alpha"}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for a bare 'P' with no digits, got %v", err)
	}
}

func TestAtomsFromSolutionAtomsZipsIDsAndPatterns(t *testing.T) {
	got := AtomsFromSolutionAtoms([]string{"P1", "P2"}, []string{"alpha", "beta"})
	if got["P1"] != "alpha" || got["P2"] != "beta" {
		t.Errorf("expected zipped id->pattern map, got %v", got)
	}
}
