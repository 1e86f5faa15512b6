package solve

import "testing"

func TestProposeSolutionPrefixScenario(t *testing.T) {
	include := []string{"alpha/m1", "alpha/m2", "alpha/m3"}
	exclude := []string{"beta/m1"}

	sol := ProposeSolution(include, exclude, Options{Mode: Exact})

	if sol.Metrics.FP != 0 {
		t.Fatalf("EXACT mode must have fp=0, got %d", sol.Metrics.FP)
	}
	if sol.Metrics.Covered != 3 {
		t.Errorf("Covered = %d, want 3", sol.Metrics.Covered)
	}
	if sol.Metrics.FN != 0 {
		t.Errorf("FN = %d, want 0", sol.Metrics.FN)
	}
	foundPrefix := false
	for _, a := range sol.Atoms {
		if a.Text == "alpha/*" {
			foundPrefix = true
		}
	}
	if !foundPrefix {
		t.Errorf("expected an alpha/* atom among %v", sol.Atoms)
	}
}

func TestProposeSolutionSubstringScenario(t *testing.T) {
	include := []string{"foo/cache/0", "bar/cache/1", "baz/cache/2"}
	exclude := []string{"foo/debug/0"}

	sol := ProposeSolution(include, exclude, Options{Mode: Exact, SplitMethod: "delimiter"})

	if sol.Metrics.FP != 0 {
		t.Fatalf("EXACT mode must have fp=0, got %d", sol.Metrics.FP)
	}
	found := false
	for _, a := range sol.Atoms {
		if a.Text == "*cache*" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a *cache* atom among %v", sol.Atoms)
	}
}

func TestProposeSolutionEmptyInclude(t *testing.T) {
	sol := ProposeSolution(nil, []string{"x", "y"}, Options{Mode: Exact})
	if sol.Metrics.TotalPositive != 0 {
		t.Errorf("TotalPositive = %d, want 0", sol.Metrics.TotalPositive)
	}
	if sol.Expr != "FALSE" {
		t.Errorf("Expr = %q, want FALSE", sol.Expr)
	}
	if len(sol.Atoms) != 0 {
		t.Errorf("expected no atoms, got %v", sol.Atoms)
	}
}

func TestProposeSolutionSharedRowStaysExact(t *testing.T) {
	include := []string{"shared", "alpha"}
	exclude := []string{"shared"}

	sol := ProposeSolution(include, exclude, Options{Mode: Exact})
	if sol.Metrics.FP != 0 {
		t.Fatalf("EXACT mode must keep fp=0 even with a shared row, got %d", sol.Metrics.FP)
	}
}

func TestProposeSolutionNoBeneficialSelectionReturnsEmpty(t *testing.T) {
	include := []string{"alpha/m1", "alpha/m2", "alpha/m3"}

	sol := ProposeSolution(include, nil, Options{
		Mode:    Approx,
		Weights: Weights{FN: 0, Atom: 0.05},
	})

	if len(sol.Atoms) != 0 {
		t.Errorf("expected no atoms when every candidate only raises cost, got %v", sol.Atoms)
	}
	if sol.Expr != "FALSE" {
		t.Errorf("Expr = %q, want FALSE", sol.Expr)
	}
}

func TestProposeSolutionMaxPatternsLimitsSelection(t *testing.T) {
	include := []string{"alpha/m1", "beta/m2", "gamma/m3"}
	sol := ProposeSolution(include, nil, Options{
		Mode:    Approx,
		Budgets: Budgets{MaxPatterns: Absolute(1)},
	})
	if len(sol.Atoms) > 1 {
		t.Errorf("expected at most 1 atom, got %d", len(sol.Atoms))
	}
}

func TestInvertNeverReturnsBase(t *testing.T) {
	base := Solution{Metrics: Metrics{Covered: 1, TotalPositive: 3, FP: 0}}
	got := applyInversion(base, 3, 5, Options{Invert: InvertNever})
	if got.GlobalInverted {
		t.Errorf("invert=never must not invert")
	}
}

func TestInvertAlwaysRespectsFPBudget(t *testing.T) {
	base := Solution{Expr: "P1", RawExpr: "x*", Metrics: Metrics{Covered: 1, TotalPositive: 3, FP: 0}}
	opts := Options{Invert: InvertAlways, Budgets: Budgets{MaxFP: Absolute(0)}}
	got := applyInversion(base, 3, 5, opts)
	if got.GlobalInverted {
		t.Errorf("invert=always must fall back to base when the complement violates max_fp")
	}
}

func TestLimitResolve(t *testing.T) {
	if n, ok := NoLimit().Resolve(10); ok || n != 0 {
		t.Errorf("NoLimit should be unset")
	}
	if n, ok := Absolute(0).Resolve(10); !ok || n != 0 {
		t.Errorf("Absolute(0) should resolve to strict 0, got %d %v", n, ok)
	}
	if n, ok := Fraction(0.5).Resolve(10); !ok || n != 5 {
		t.Errorf("Fraction(0.5) of 10 should resolve to 5, got %d %v", n, ok)
	}
	if n, ok := Absolute(4).Resolve(10); !ok || n != 4 {
		t.Errorf("Absolute(4) should resolve to 4, got %d %v", n, ok)
	}
}
