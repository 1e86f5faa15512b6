// Package solve implements the greedy set-cover selector, inversion, and
// Solution assembly described in spec.md §4.4/§4.5. It is grounded on
// original_source's engine/solver.py (_cost, _greedy_select,
// _make_solution, propose_solution) with the dataclass-based option model
// translated into plain Go structs per the teacher's configuration idiom
// (alex-vee-sh-kube-wild's CLIOptions: zero-value-friendly structs, no
// builder framework).
package solve

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/saxyguy81/patternforge/bitset"
	"github.com/saxyguy81/patternforge/candidates"
	"github.com/saxyguy81/patternforge/internal/logging"
	"github.com/saxyguy81/patternforge/tokenize"
)

// Mode selects whether false positives are tolerated at all.
type Mode string

const (
	Exact  Mode = "EXACT"
	Approx Mode = "APPROX"
)

// InvertStrategy controls whether the complement solution may be returned.
type InvertStrategy string

const (
	InvertNever  InvertStrategy = "never"
	InvertAuto   InvertStrategy = "auto"
	InvertAlways InvertStrategy = "always"
)

// Weights are the cost function's per-term multipliers (spec.md §4.4).
type Weights struct {
	FP       float64
	FN       float64
	Atom     float64
	Op       float64
	Wildcard float64
	Length   float64
}

// DefaultWeights returns the reference weight set from original_source's
// models.py OptimizeWeights: w_fp=1, w_fn=1, w_atom=0.05, w_op=0.02,
// w_wc=0.01, w_len=0.001 (length is a penalty, longer patterns cost more).
func DefaultWeights() Weights {
	return Weights{FP: 1, FN: 1, Atom: 0.05, Op: 0.02, Wildcard: 0.01, Length: 0.001}
}

// WithLengthReward flips w_len negative so longer, more specific patterns
// are preferred over shorter ones at equal fp/fn — the variant spec.md §7
// leaves as an Open Question; here w_len = -0.001 by decision.
func WithLengthReward(w Weights) Weights {
	w.Length = -0.001
	return w
}

// Limit is a budget value: unset (no limit), an absolute count, or a
// fraction of the include set's size, matching
// original_source/engine/utils.py's resolve_budget_limit convention.
type Limit struct {
	set  bool
	frac bool
	val  float64
}

// NoLimit returns an unset (unlimited) budget.
func NoLimit() Limit { return Limit{} }

// Absolute returns a hard integer budget (0 means strict/zero-tolerance).
func Absolute(n int) Limit { return Limit{set: true, val: float64(n)} }

// Fraction returns a budget expressed as a fraction of the include set size.
func Fraction(f float64) Limit { return Limit{set: true, frac: true, val: f} }

// Resolve converts the limit into a concrete row count for this solve call.
// ok is false when the limit is unset (unlimited).
func (l Limit) Resolve(numRows int) (limit int, ok bool) {
	if !l.set {
		return 0, false
	}
	if l.val == 0 {
		return 0, true
	}
	if l.frac || (l.val > 0 && l.val < 1) {
		return int(l.val * float64(numRows)), true
	}
	return int(l.val), true
}

func (l Limit) isSet() bool { return l.set }

// Budgets are the hard caps on the greedy loop (spec.md §4.4).
type Budgets struct {
	MaxPatterns Limit
	MaxFP       Limit
	MaxFN       Limit
}

// Options snapshot the flattened solver knobs spec.md §6 lists for
// propose_solution. The zero Options value is usable: Normalize fills in
// the documented defaults.
type Options struct {
	Mode                    Mode
	Invert                  InvertStrategy
	Weights                 Weights
	Budgets                 Budgets
	SplitMethod             tokenize.Method
	MinTokenLen             int
	MaxMultiSegments        int
	AllowedPatterns         candidates.AllowedPatterns
	AllowComplexExpressions bool // recorded in the options snapshot only; term assembly does not read it
	FieldWeights            map[string]float64
	MaxCandidates           int

	// Logger receives candidate-count and inversion-decision messages.
	// nil (the zero value) means "don't log" — callers that don't care
	// about solver diagnostics never need to construct one.
	Logger *zap.SugaredLogger
}

// Normalize applies the documented defaults and the EXACT-mode max_fp=0
// coercion ("EXACT mode forces max_fp = 0 if unset").
func (o Options) Normalize() Options {
	if o.Mode == "" {
		o.Mode = Exact
	}
	if o.Invert == "" {
		o.Invert = InvertNever
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights()
	}
	if o.SplitMethod == "" {
		o.SplitMethod = tokenize.ClassChange
	}
	if o.MinTokenLen <= 0 {
		o.MinTokenLen = 3
	}
	if o.MaxMultiSegments <= 0 {
		o.MaxMultiSegments = 3
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 4000
	}
	if o.Mode == Exact && !o.Budgets.MaxFP.isSet() {
		o.Budgets.MaxFP = Absolute(0)
	}
	return o
}

// Atom is a retained pattern in the solution, stable across post-passes by
// its identifier.
type Atom struct {
	ID        string
	Text      string
	Kind      candidates.Kind
	Wildcards int
	Length    int
	Field     string
	Negated   bool
	TP        int
	FP        int
}

// Term is one disjunct of the solution expression: in the simple solver
// always a single atom (AllowComplexExpressions does not change this); the
// structured solver builds conjunctions of per-field atoms.
type Term struct {
	Text          string
	RawText       string
	Include       *bitset.Set
	Exclude       *bitset.Set
	IncrementalTP int
	IncrementalFP int
	Fields        map[string]string
	NotFields     map[string]string
}

// Metrics are the aggregate counts carried on a Solution.
type Metrics struct {
	Covered       int
	TotalPositive int
	FP            int
	FN            int
	Patterns      int
	BooleanOps    int
	Wildcards     int
	PatternChars  int
}

// Witnesses are up to three example strings per outcome category.
type Witnesses struct {
	TPExamples []string
	FPExamples []string
	FNExamples []string
}

// Solution is the full result of a solve call, per spec.md §3.
type Solution struct {
	Expr           string
	RawExpr        string
	GlobalInverted bool
	TermMethod     string
	Mode           Mode
	Options        Options
	Atoms          []Atom
	Metrics        Metrics
	Witnesses      Witnesses
	Terms          []Term
}

func cost(inclCount, exclCount, chosenCount, wildcardsSum, lengthSum, includeSize int, w Weights) float64 {
	fn := includeSize - inclCount
	ops := chosenCount - 1
	if ops < 0 {
		ops = 0
	}
	return w.FP*float64(exclCount) + w.FN*float64(fn) +
		w.Atom*float64(chosenCount) + w.Op*float64(ops) +
		w.Wildcard*float64(wildcardsSum) + w.Length*float64(lengthSum)
}

type selection struct {
	chosen    []candidates.Candidate
	include   *bitset.Set
	exclude   *bitset.Set
	wildcards int
	length    int
}

func newSelection() *selection {
	return &selection{include: bitset.New(), exclude: bitset.New()}
}

// greedySelect runs the loop from spec.md §4.4 over cands, respecting
// budgets, and returns the committed selection in pick order.
func greedySelect(cands []candidates.Candidate, includeSize, excludeSize int, budgets Budgets, w Weights) *selection {
	state := newSelection()
	used := make(map[int]bool, len(cands))

	maxPatterns, hasMaxPatterns := budgets.MaxPatterns.Resolve(includeSize)
	maxFP, hasMaxFP := budgets.MaxFP.Resolve(excludeSize)
	maxFN, hasMaxFN := budgets.MaxFN.Resolve(includeSize)

	currentCost := cost(0, 0, 0, 0, 0, includeSize, w)

	for {
		if hasMaxPatterns && len(state.chosen) >= maxPatterns {
			break
		}

		bestIdx := -1
		var bestCost float64
		var bestGain int
		var bestIncl, bestExcl *bitset.Set

		for i, c := range cands {
			if used[i] {
				continue
			}
			trialIncl := bitset.Or(state.include, c.Include)
			trialExcl := bitset.Or(state.exclude, c.Exclude)
			trialFP := trialExcl.Count()
			trialFN := includeSize - trialIncl.Count()

			if hasMaxFP && trialFP > maxFP {
				continue
			}
			if hasMaxFN && trialFN > maxFN {
				continue
			}

			trialCost := cost(trialIncl.Count(), trialFP, len(state.chosen)+1,
				state.wildcards+c.Wildcards, state.length+c.Length, includeSize, w)
			gain := trialIncl.Count() - state.include.Count()

			if bestIdx == -1 || better(trialCost, gain, c.Wildcards, c.Length, c.Pattern,
				bestCost, bestGain, cands[bestIdx].Wildcards, cands[bestIdx].Length, cands[bestIdx].Pattern) {
				bestIdx = i
				bestCost = trialCost
				bestGain = gain
				bestIncl = trialIncl
				bestExcl = trialExcl
			}
		}

		if bestIdx == -1 {
			break
		}
		if bestCost > currentCost {
			break
		}

		c := cands[bestIdx]
		used[bestIdx] = true
		state.chosen = append(state.chosen, c)
		state.include = bestIncl
		state.exclude = bestExcl
		state.wildcards += c.Wildcards
		state.length += c.Length
		currentCost = bestCost
	}

	return state
}

// better implements the tie-break chain from spec.md §4.4: lower cost wins;
// on a cost tie, larger coverage gain; then fewer wildcards; then greater
// length; then pattern text ascending.
func better(cost1 float64, gain1, wc1, len1 int, text1 string,
	cost2 float64, gain2, wc2, len2 int, text2 string) bool {
	if cost1 != cost2 {
		return cost1 < cost2
	}
	if gain1 != gain2 {
		return gain1 > gain2
	}
	if wc1 != wc2 {
		return wc1 < wc2
	}
	if len1 != len2 {
		return len1 > len2
	}
	return text1 < text2
}

func examples(items []string, bits *bitset.Set, want bool, limit int) []string {
	var out []string
	for i, s := range items {
		if bits.Test(i) == want {
			out = append(out, s)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

func missingExamples(items []string, bits *bitset.Set, limit int) []string {
	var out []string
	for i, s := range items {
		if !bits.Test(i) {
			out = append(out, s)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// buildSolution assembles atoms/terms/metrics/witnesses from a committed
// selection, in the order candidates were picked.
func buildSolution(sel *selection, include, exclude []string, opts Options) Solution {
	atoms := make([]Atom, 0, len(sel.chosen))
	terms := make([]Term, 0, len(sel.chosen))
	accIncl := bitset.New()
	accExcl := bitset.New()

	for i, c := range sel.chosen {
		id := fmt.Sprintf("P%d", i+1)
		atoms = append(atoms, Atom{
			ID:        id,
			Text:      c.Pattern,
			Kind:      c.Kind,
			Wildcards: c.Wildcards,
			Length:    c.Length,
			Field:     c.Field,
			TP:        c.Include.Count(),
			FP:        c.Exclude.Count(),
		})

		incrIncl := bitset.AndNot(c.Include, accIncl)
		incrExcl := bitset.AndNot(c.Exclude, accExcl)

		term := Term{
			Text:          id,
			RawText:       c.Pattern,
			Include:       c.Include,
			Exclude:       c.Exclude,
			IncrementalTP: incrIncl.Count(),
			IncrementalFP: incrExcl.Count(),
		}
		if c.Field != "" {
			term.Fields = map[string]string{c.Field: c.Pattern}
		}
		terms = append(terms, term)

		accIncl = bitset.Or(accIncl, c.Include)
		accExcl = bitset.Or(accExcl, c.Exclude)
	}

	exprParts := make([]string, len(atoms))
	rawParts := make([]string, len(atoms))
	wildcards, length := 0, 0
	for i, a := range atoms {
		exprParts[i] = a.ID
		rawParts[i] = a.Text
		wildcards += a.Wildcards
		length += a.Length
	}

	metrics := Metrics{
		Covered:       accIncl.Count(),
		TotalPositive: len(include),
		FP:            accExcl.Count(),
		FN:            len(include) - accIncl.Count(),
		Patterns:      len(atoms),
		BooleanOps:    maxInt(0, len(atoms)-1),
		Wildcards:     wildcards,
		PatternChars:  length,
	}

	witnesses := Witnesses{
		TPExamples: examples(include, accIncl, true, 3),
		FPExamples: examples(exclude, accExcl, true, 3),
		FNExamples: missingExamples(include, accIncl, 3),
	}

	expr := "FALSE"
	rawExpr := "FALSE"
	if len(atoms) > 0 {
		expr = strings.Join(exprParts, " | ")
		rawExpr = strings.Join(rawParts, " | ")
	}

	return Solution{
		Expr:       expr,
		RawExpr:    rawExpr,
		TermMethod: "additive",
		Mode:       opts.Mode,
		Options:    opts,
		Atoms:      atoms,
		Metrics:    metrics,
		Witnesses:  witnesses,
		Terms:      terms,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// invert synthesizes the complement solution per spec.md §4.5: row
// membership is flipped arithmetically, not re-matched.
func invert(base Solution, includeSize, excludeSize int) Solution {
	inv := base
	inv.GlobalInverted = true
	inv.TermMethod = "subtractive"
	inv.Metrics = Metrics{
		Covered:       includeSize - base.Metrics.Covered,
		TotalPositive: includeSize,
		FP:            excludeSize - base.Metrics.FP,
		FN:            base.Metrics.Covered,
		Patterns:      base.Metrics.Patterns,
		BooleanOps:    base.Metrics.BooleanOps,
		Wildcards:     base.Metrics.Wildcards,
		PatternChars:  base.Metrics.PatternChars,
	}
	if base.Expr == "FALSE" {
		inv.Expr = "TRUE"
		inv.RawExpr = "TRUE"
	} else {
		inv.Expr = "!(" + base.Expr + ")"
		inv.RawExpr = "!(" + base.RawExpr + ")"
	}
	return inv
}

func invertCost(inv Solution, w Weights) float64 {
	return cost(inv.Metrics.Covered, inv.Metrics.FP, inv.Metrics.Patterns,
		inv.Metrics.Wildcards, inv.Metrics.PatternChars, inv.Metrics.TotalPositive, w)
}

func baseCost(base Solution, w Weights) float64 {
	return cost(base.Metrics.Covered, base.Metrics.FP, base.Metrics.Patterns,
		base.Metrics.Wildcards, base.Metrics.PatternChars, base.Metrics.TotalPositive, w)
}

// applyInversion picks between base and its complement per the invert
// strategy in opts, honoring the FP budget on whichever is returned.
func applyInversion(base Solution, includeSize, excludeSize int, opts Options) Solution {
	if opts.Invert == InvertNever {
		return base
	}
	inv := invert(base, includeSize, excludeSize)
	maxFP, hasMaxFP := opts.Budgets.MaxFP.Resolve(excludeSize)
	invFeasible := !hasMaxFP || inv.Metrics.FP <= maxFP

	switch opts.Invert {
	case InvertAlways:
		if invFeasible {
			logging.Debugf(opts.Logger, "invert=always: complement feasible (fp=%d), returning inverted solution", inv.Metrics.FP)
			return inv
		}
		logging.Debugf(opts.Logger, "invert=always: complement infeasible (fp=%d > budget), falling back to base solution", inv.Metrics.FP)
		return base
	case InvertAuto:
		if invFeasible && invertCost(inv, opts.Weights) < baseCost(base, opts.Weights) {
			logging.Debugf(opts.Logger, "invert=auto: complement cheaper (%.4f < %.4f), returning inverted solution",
				invertCost(inv, opts.Weights), baseCost(base, opts.Weights))
			return inv
		}
		return base
	default:
		return base
	}
}

// ProposeSolution implements the library entry point of the same name for
// single-field input (spec.md §6.1).
func ProposeSolution(include, exclude []string, opts Options) Solution {
	opts = opts.Normalize()

	rows := make([]candidates.Row, len(include))
	for i, s := range include {
		rows[i] = candidates.Row{Text: s}
	}

	candOpts := candidates.Options{
		Method:          opts.SplitMethod,
		MinTokenLen:     opts.MinTokenLen,
		MaxMultiSegment: opts.MaxMultiSegments,
		FieldWeights:    opts.FieldWeights,
		AllowedPatterns: opts.AllowedPatterns,
		MaxCandidates:   opts.MaxCandidates,
	}
	cands := candidates.Generate(rows, candOpts)
	logging.Debugf(opts.Logger, "generated %d candidates for %d include rows, %d exclude rows", len(cands), len(include), len(exclude))

	valueOf := func(rows []string) candidates.FieldValue {
		return func(rowIndex int, field string) string { return rows[rowIndex] }
	}
	candidates.ComputeBitsets(cands, len(include), len(exclude), valueOf(include), valueOf(exclude))

	sel := greedySelect(cands, len(include), len(exclude), opts.Budgets, opts.Weights)
	base := buildSolution(sel, include, exclude, opts)
	return applyInversion(base, len(include), len(exclude), opts)
}
