package explain

import (
	"strings"
	"testing"

	"github.com/saxyguy81/patternforge/solve"
)

func TestDictRecomputesFreshCoverage(t *testing.T) {
	sol := solve.Solution{
		Expr:    "P1",
		RawExpr: "P1",
		Atoms:   []solve.Atom{{ID: "P1", Text: "*cache*"}},
	}
	include := []string{"host_cache", "host_trace"}
	exclude := []string{"x_cache"}

	d := Dict(sol, include, exclude)
	metrics := d["metrics"].(map[string]any)

	if metrics["covered"] != 1 || metrics["total_positive"] != 2 || metrics["fp"] != 1 || metrics["fn"] != 1 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	patterns := d["patterns"].([]map[string]any)
	if patterns[0]["tp"] != 1 || patterns[0]["fp"] != 1 {
		t.Errorf("expected freshly recomputed tp=1 fp=1, got %+v", patterns[0])
	}
}

func TestDictAppliesGlobalInvertedAdjustment(t *testing.T) {
	sol := solve.Solution{
		Expr:           "P1",
		GlobalInverted: true,
		Atoms:          []solve.Atom{{ID: "P1", Text: "*debug*"}},
	}
	include := []string{"a_debug", "b_plain", "c_plain"}
	exclude := []string{"x_debug"}

	d := Dict(sol, include, exclude)
	metrics := d["metrics"].(map[string]any)

	if metrics["covered"] != 2 {
		t.Errorf("expected covered=2 (3 - matchedExpr=1), got %v", metrics["covered"])
	}
	if metrics["fp"] != 0 {
		t.Errorf("expected fp=0 (1 - fpExpr=1), got %v", metrics["fp"])
	}
	if metrics["fn"] != 1 {
		t.Errorf("expected fn=1 (matchedExpr), got %v", metrics["fn"])
	}
}

func TestTextIncludesExprCoverageAndPatternsSections(t *testing.T) {
	sol := solve.Solution{
		Expr:    "P1",
		RawExpr: "P1",
		Atoms:   []solve.Atom{{ID: "P1", Text: "cache"}},
	}
	got := Text(sol, []string{"cache", "trace"}, nil)

	for _, want := range []string{
		"EXPR: P1",
		"COVERAGE: covered=1/2 fp=0 fn=1",
		"PATTERNS:",
		"P1: cache (tp=1 fp=0)",
		"EXAMPLES:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected text to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "RAW:") {
		t.Errorf("expected no RAW line when RawExpr equals Expr, got:\n%s", got)
	}
}

func TestTextIncludesRawLineWhenDifferentFromExpr(t *testing.T) {
	sol := solve.Solution{
		Expr:    "P1",
		RawExpr: "(P1)",
		Atoms:   []solve.Atom{{ID: "P1", Text: "cache"}},
	}
	got := Text(sol, []string{"cache"}, nil)
	if !strings.Contains(got, "RAW: (P1)") {
		t.Errorf("expected a RAW line distinct from EXPR, got:\n%s", got)
	}
}

func TestSummarizeTextSingleAtom(t *testing.T) {
	sol := solve.Solution{
		Atoms:   []solve.Atom{{Text: "cache"}},
		Metrics: solve.Metrics{Covered: 5, TotalPositive: 5, FP: 0},
	}
	want := `Pattern "cache" covers 5 of 5 rows with 0 false positives.`
	if got := SummarizeText(sol); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSummarizeTextMultipleAtoms(t *testing.T) {
	sol := solve.Solution{
		Atoms:   []solve.Atom{{Text: "a"}, {Text: "b"}, {Text: "c"}},
		Metrics: solve.Metrics{Covered: 3, TotalPositive: 4, FP: 1},
	}
	got := SummarizeText(sol)
	if !strings.Contains(got, `"a"`) || !strings.Contains(got, "plus 2 other pattern(s)") {
		t.Errorf("expected primary pattern %q plus count of extras, got %q", "a", got)
	}
}

func TestSummarizeTextNoPatterns(t *testing.T) {
	sol := solve.Solution{Metrics: solve.Metrics{Covered: 0, TotalPositive: 5}}
	want := "No patterns were found; covered 0 of 5 rows."
	if got := SummarizeText(sol); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimpleLabelsMatchesForAdditiveAndOrdersByResidual(t *testing.T) {
	sol := solve.Solution{
		TermMethod: "additive",
		Terms: []solve.Term{
			{Text: "P1", IncrementalTP: 3, IncrementalFP: 0},
			{Text: "P2", IncrementalTP: 5, IncrementalFP: 1},
		},
	}
	got := Simple(sol)
	want := "P2 matches 5 rows (+1 fp); P1 matches 3 rows (+0 fp)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimpleLabelsRemovedForSubtractive(t *testing.T) {
	sol := solve.Solution{
		TermMethod: "subtractive",
		Terms: []solve.Term{
			{Text: "P1", IncrementalTP: 2, IncrementalFP: 0},
		},
	}
	got := Simple(sol)
	if !strings.Contains(got, "removed 2 rows") {
		t.Errorf("expected subtractive terms to be labeled 'removed', got %q", got)
	}
}

func TestSimpleRendersStructuredMultiFieldTerm(t *testing.T) {
	sol := solve.Solution{
		TermMethod: "additive",
		Terms: []solve.Term{
			{
				Fields:        map[string]string{"host": "web01", "zone": "cache"},
				IncrementalTP: 4,
				IncrementalFP: 0,
			},
		},
	}
	want := "host=web01 & zone=cache matches 4 rows (+0 fp)"
	if got := Simple(sol); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestByFieldAttributesPatternToBestMatchingField(t *testing.T) {
	sol := solve.Solution{
		Atoms: []solve.Atom{{ID: "P1", Text: "*cache*"}},
	}
	rows := []map[string]string{
		{"host": "web-cache-1", "zone": "east"},
		{"host": "web-cache-2", "zone": "east"},
	}
	fieldOrder := []string{"host", "zone"}

	d := ByField(sol, rows, fieldOrder)
	assignments := d["assignments"].([]map[string]any)

	if assignments[0]["field"] != "host" {
		t.Errorf("expected pattern attributed to host (2 hits vs 0), got %+v", assignments[0])
	}
	counts := assignments[0]["counts"].([]int)
	if counts[0] != 2 || counts[1] != 0 {
		t.Errorf("expected counts [2 0], got %v", counts)
	}
}

func TestByFieldKeepsPresetAtomFieldOverBestMatch(t *testing.T) {
	sol := solve.Solution{
		Atoms: []solve.Atom{{ID: "P1", Text: "*box*", Field: "zone"}},
	}
	rows := []map[string]string{
		{"host": "web-box-1", "zone": "plain"},
	}
	fieldOrder := []string{"host", "zone"}

	d := ByField(sol, rows, fieldOrder)
	assignments := d["assignments"].([]map[string]any)

	if assignments[0]["field"] != "zone" {
		t.Errorf("expected preset atom field 'zone' to be kept despite host having more hits, got %+v", assignments[0])
	}
}

func TestBestFieldIndexPrefersEarliestOnTie(t *testing.T) {
	if got := bestFieldIndex([]int{2, 2, 1}); got != 0 {
		t.Errorf("expected earliest index on tie, got %d", got)
	}
	if got := bestFieldIndex(nil); got != -1 {
		t.Errorf("expected -1 for empty counts, got %d", got)
	}
}
