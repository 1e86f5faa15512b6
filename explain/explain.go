// Package explain renders a solve.Solution as human- and machine-readable
// explanations: a structured dict, a formatted text block, a one-line
// summary, a per-term "simple" narrative, and a per-field pattern
// attribution, per spec.md §4.10.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/saxyguy81/patternforge/matcher"
	"github.com/saxyguy81/patternforge/solve"
)

// perPatternStat holds freshly recomputed tp/fp for one atom. Dict never
// trusts the tp/fp carried on solve.Atom since those reflect whatever
// corpus the solver last saw; explain always recomputes against the
// corpus it was actually given.
type perPatternStat struct {
	TP int
	FP int
}

// evaluatePatterns recomputes, for every atom, how many include/exclude
// rows it matches, plus the OR-across-all-atoms coverage (matchedExpr,
// fpExpr) used for the solution-level metrics.
func evaluatePatterns(atoms []solve.Atom, include, exclude []string) (matchedExpr, fpExpr int, perPattern map[string]perPatternStat) {
	matchedMask := make([]bool, len(include))
	fpMask := make([]bool, len(exclude))
	perPattern = make(map[string]perPatternStat, len(atoms))

	for _, a := range atoms {
		tp := 0
		for i, row := range include {
			if matcher.MatchPattern(row, a.Text) {
				tp++
				matchedMask[i] = true
			}
		}
		fp := 0
		for i, row := range exclude {
			if matcher.MatchPattern(row, a.Text) {
				fp++
				fpMask[i] = true
			}
		}
		perPattern[a.ID] = perPatternStat{TP: tp, FP: fp}
	}

	for _, m := range matchedMask {
		if m {
			matchedExpr++
		}
	}
	for _, m := range fpMask {
		if m {
			fpExpr++
		}
	}
	return matchedExpr, fpExpr, perPattern
}

func termMethodOf(sol solve.Solution) string {
	switch sol.TermMethod {
	case "additive", "subtractive":
		return sol.TermMethod
	default:
		if sol.GlobalInverted {
			return "subtractive"
		}
		return "additive"
	}
}

// Dict recomputes tp/fp/fn/fp fresh against include/exclude and returns a
// generic, serializable explanation of sol, applying the global-inverted
// adjustment (matched = len(include) - matchedExpr, fp = len(exclude) -
// fpExpr, fn = matchedExpr) when the solution was built by inverting the
// complement, per spec.md §4.10.
func Dict(sol solve.Solution, include, exclude []string) map[string]any {
	matchedExpr, fpExpr, perPattern := evaluatePatterns(sol.Atoms, include, exclude)

	var matched, fp, fn int
	if sol.GlobalInverted {
		matched = len(include) - matchedExpr
		fp = len(exclude) - fpExpr
		fn = matchedExpr
	} else {
		matched = matchedExpr
		fp = fpExpr
		fn = len(include) - matchedExpr
	}

	patterns := make([]map[string]any, 0, len(sol.Atoms))
	for _, a := range sol.Atoms {
		st := perPattern[a.ID]
		patterns = append(patterns, map[string]any{
			"id":        a.ID,
			"text":      a.Text,
			"kind":      string(a.Kind),
			"wildcards": a.Wildcards,
			"length":    a.Length,
			"field":     a.Field,
			"negated":   a.Negated,
			"tp":        st.TP,
			"fp":        st.FP,
		})
	}

	terms := make([]map[string]any, 0, len(sol.Terms))
	for _, t := range sol.Terms {
		terms = append(terms, map[string]any{
			"expr":           t.Text,
			"raw_expr":       t.RawText,
			"incremental_tp": t.IncrementalTP,
			"incremental_fp": t.IncrementalFP,
			"fields":         t.Fields,
			"not_fields":     t.NotFields,
		})
	}

	return map[string]any{
		"expr":            sol.Expr,
		"raw_expr":        sol.RawExpr,
		"global_inverted": sol.GlobalInverted,
		"term_method":     termMethodOf(sol),
		"metrics": map[string]any{
			"covered":        matched,
			"total_positive": len(include),
			"fp":             fp,
			"fn":             fn,
		},
		"patterns":  patterns,
		"terms":     terms,
		"witnesses": sol.Witnesses,
	}
}

// Text renders the EXPR/RAW/COVERAGE/PATTERNS/EXAMPLES block format, per
// spec.md §4.10's supplement of explain_text.
func Text(sol solve.Solution, include, exclude []string) string {
	d := Dict(sol, include, exclude)
	metrics := d["metrics"].(map[string]any)

	var b strings.Builder
	fmt.Fprintf(&b, "EXPR: %s\n", sol.Expr)
	if sol.RawExpr != "" && sol.RawExpr != sol.Expr {
		fmt.Fprintf(&b, "RAW: %s\n", sol.RawExpr)
	}
	fmt.Fprintf(&b, "COVERAGE: covered=%d/%d fp=%d fn=%d\n",
		metrics["covered"], metrics["total_positive"], metrics["fp"], metrics["fn"])

	b.WriteString("PATTERNS:\n")
	for _, a := range sol.Atoms {
		st, _ := evaluateOne(a, include, exclude)
		fmt.Fprintf(&b, "  %s: %s (tp=%d fp=%d)\n", a.ID, a.Text, st.TP, st.FP)
	}

	b.WriteString("EXAMPLES:\n")
	for _, ex := range firstN(sol.Witnesses.TPExamples, 3) {
		fmt.Fprintf(&b, "  + %s\n", ex)
	}
	for _, ex := range firstN(sol.Witnesses.FPExamples, 3) {
		fmt.Fprintf(&b, "  - %s\n", ex)
	}
	for _, ex := range firstN(sol.Witnesses.FNExamples, 3) {
		fmt.Fprintf(&b, "  ! %s\n", ex)
	}

	return b.String()
}

func evaluateOne(a solve.Atom, include, exclude []string) (perPatternStat, bool) {
	_, _, per := evaluatePatterns([]solve.Atom{a}, include, exclude)
	st, ok := per[a.ID]
	return st, ok
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// SummarizeText gives a one-paragraph summary naming the primary (first)
// pattern and the solution's aggregate metrics, per spec.md §4.10's
// supplement of summarize_text.
func SummarizeText(sol solve.Solution) string {
	if len(sol.Atoms) == 0 {
		return fmt.Sprintf("No patterns were found; covered %d of %d rows.",
			sol.Metrics.Covered, sol.Metrics.TotalPositive)
	}
	primary := sol.Atoms[0]
	extra := len(sol.Atoms) - 1
	if extra <= 0 {
		return fmt.Sprintf("Pattern %q covers %d of %d rows with %d false positives.",
			primary.Text, sol.Metrics.Covered, sol.Metrics.TotalPositive, sol.Metrics.FP)
	}
	return fmt.Sprintf("Pattern %q plus %d other pattern(s) cover %d of %d rows with %d false positives.",
		primary.Text, extra, sol.Metrics.Covered, sol.Metrics.TotalPositive, sol.Metrics.FP)
}

// Simple renders a per-term, residual-ordered narrative: terms are listed
// in descending IncrementalTP order, labeled "matches" for additive
// solutions and "removed" for subtractive ones, and multi-field structured
// terms are rendered as a field=value conjunction rather than a flat
// pattern, per spec.md §4.10's supplement of explain_simple.
func Simple(sol solve.Solution) string {
	if len(sol.Terms) == 0 {
		return SummarizeText(sol)
	}

	verb := "matches"
	if termMethodOf(sol) == "subtractive" {
		verb = "removed"
	}

	terms := make([]solve.Term, len(sol.Terms))
	copy(terms, sol.Terms)
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].IncrementalTP > terms[j].IncrementalTP
	})

	fieldOrder := sortedFieldNames(terms)

	var b strings.Builder
	for i, t := range terms {
		if i > 0 {
			b.WriteString("; ")
		}
		if len(t.Fields) > 0 || len(t.NotFields) > 0 {
			b.WriteString(renderFieldTerm(t, fieldOrder))
		} else {
			fmt.Fprintf(&b, "%s", t.Text)
		}
		fmt.Fprintf(&b, " %s %d rows (+%d fp)", verb, t.IncrementalTP, t.IncrementalFP)
	}
	return b.String()
}

func sortedFieldNames(terms []solve.Term) []string {
	seen := make(map[string]bool)
	for _, t := range terms {
		for f := range t.Fields {
			seen[f] = true
		}
		for f := range t.NotFields {
			seen[f] = true
		}
	}
	names := make([]string, 0, len(seen))
	for f := range seen {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

func renderFieldTerm(t solve.Term, fieldOrder []string) string {
	var parts []string
	for _, f := range fieldOrder {
		if v, ok := t.Fields[f]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", f, v))
		}
		if v, ok := t.NotFields[f]; ok {
			parts = append(parts, fmt.Sprintf("%s!=%s", f, v))
		}
	}
	return strings.Join(parts, " & ")
}

// ByField tokenizes each atom's pattern text on "*" and, for every
// resulting literal piece, counts substring hits against rows[field] for
// each field in fieldOrder. The field with the most hits is attributed as
// the pattern's source field, per spec.md §4.10's supplement of
// explain_by_field; an atom that already carries a Field keeps it, and the
// counts are reported alongside.
func ByField(sol solve.Solution, rows []map[string]string, fieldOrder []string) map[string]any {
	assignments := make([]map[string]any, 0, len(sol.Atoms))

	for _, a := range sol.Atoms {
		pieces := literalPieces(a.Text)
		counts := make([]int, len(fieldOrder))
		for i, field := range fieldOrder {
			for _, row := range rows {
				val := strings.ToLower(row[field])
				for _, piece := range pieces {
					if piece != "" && strings.Contains(val, piece) {
						counts[i]++
					}
				}
			}
		}
		best := bestFieldIndex(counts)
		field := a.Field
		if field == "" && best >= 0 {
			field = fieldOrder[best]
		}
		assignments = append(assignments, map[string]any{
			"id":     a.ID,
			"text":   a.Text,
			"field":  field,
			"counts": counts,
		})
	}

	return map[string]any{
		"fields":      fieldOrder,
		"assignments": assignments,
	}
}

func literalPieces(pattern string) []string {
	lower := strings.ToLower(pattern)
	return strings.Split(lower, "*")
}

// bestFieldIndex returns the index of the first maximal element, mirroring
// Python's max(range(len(counts)), key=counts.__getitem__) tie-break
// (earliest index wins ties). Returns -1 if counts is empty.
func bestFieldIndex(counts []int) int {
	if len(counts) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
