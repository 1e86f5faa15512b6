// Package structured implements spec.md §4.8's multi-field solver: row
// normalization, per-field tokenizers, the (N, F, effort) strategy
// dispatcher, and the two strategies it chooses between.
//
// Grounded on original_source's engine/structured_scalable.py (the
// frequency-ranked scalable strategy: generate_field_patterns_scalable,
// greedy_set_cover_structured) and engine/structured_expressions.py (the
// bounded per-row enumerator: StructuredExpression,
// generate_structured_expression_candidates,
// greedy_select_structured_expressions).
package structured

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/saxyguy81/patternforge/bitset"
	"github.com/saxyguy81/patternforge/candidates"
	"github.com/saxyguy81/patternforge/internal/logging"
	"github.com/saxyguy81/patternforge/matcher"
	"github.com/saxyguy81/patternforge/solve"
	"github.com/saxyguy81/patternforge/tokenize"
)

// Row is one normalized input record: field name to raw (pre-lowercase)
// value. Positional/DataFrame-like inputs are the caller's concern to
// convert into this shape alongside an explicit field order.
type Row map[string]string

// Effort picks a point on the thoroughness/cost tradeoff and, combined with
// row/field counts, selects which strategy runs (spec.md §4.8's dispatch
// table).
type Effort string

const (
	Low        Effort = "low"
	Medium     Effort = "medium"
	High       Effort = "high"
	Exhaustive Effort = "exhaustive"
)

// Strategy names which pipeline actually produced a Solution; surfaced on
// the result via Solution.TermMethod so callers/explainers can tell.
type Strategy string

const (
	Scalable Strategy = "structured-scalable"
	Bounded  Strategy = "structured-bounded"
)

// Options are the structured-solver knobs: the single-field solver's
// budgets/weights generalized to fields, plus the strategy-dispatch and
// per-field tokenizer overrides spec.md §4.8 describes.
type Options struct {
	Mode                 solve.Mode
	Effort               Effort
	Budgets              solve.Budgets
	FieldWeights         map[string]float64
	SplitMethod          tokenize.Method
	MinTokenLen          int
	PerFieldSplitMethod  map[string]tokenize.Method
	PerFieldMinTokenLen  map[string]int
	MaxPatternsPerField  int
	MaxExpressionsPerRow int
	MaxTotalExpressions  int

	// Logger receives strategy-dispatch decisions. nil means "don't log".
	Logger *zap.SugaredLogger
}

func (o Options) normalize() Options {
	if o.Mode == "" {
		o.Mode = solve.Exact
	}
	if o.Effort == "" {
		o.Effort = Medium
	}
	if o.SplitMethod == "" {
		o.SplitMethod = tokenize.ClassChange
	}
	if o.MinTokenLen <= 0 {
		o.MinTokenLen = 3
	}
	if o.MaxPatternsPerField <= 0 {
		o.MaxPatternsPerField = 100
	}
	if o.MaxExpressionsPerRow <= 0 {
		o.MaxExpressionsPerRow = 50
	}
	if o.MaxTotalExpressions <= 0 {
		o.MaxTotalExpressions = 1000
	}
	if o.Mode == solve.Exact {
		if _, ok := o.Budgets.MaxFP.Resolve(0); !ok {
			o.Budgets.MaxFP = solve.Absolute(0)
		}
	}
	return o
}

// fieldValue returns the lowercased field value a row carries, per spec.md
// §4.8 ("field values are lowercased for matching"), plus whether the field
// key was present at all. spec.md line 192: "None / NaN field values in
// exclude rows mean 'don't care' for that field" — callers evaluating an
// exclude row must treat present=false as an automatic pass for that
// field's check, not as a literal empty-string comparison.
func fieldValue(row Row, field string) (string, bool) {
	v, ok := row[field]
	return strings.ToLower(v), ok
}

// inferFieldOrder returns the sorted field names of the first row, used
// when the caller supplies no explicit order. Go maps carry no "first
// appeared" order the way Python dicts do, so sorted-ascending is the
// deterministic stand-in (documented decision, see DESIGN.md).
func inferFieldOrder(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	out := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func buildTokenizers(opts Options, fieldOrder []string) map[string]tokenize.Tokenizer {
	out := make(map[string]tokenize.Tokenizer, len(fieldOrder))
	for _, f := range fieldOrder {
		method := opts.SplitMethod
		if m, ok := opts.PerFieldSplitMethod[f]; ok {
			method = m
		}
		minLen := opts.MinTokenLen
		if l, ok := opts.PerFieldMinTokenLen[f]; ok {
			minLen = l
		}
		out[f] = tokenize.MakeSplitTokenizer(method, minLen)
	}
	return out
}

// size buckets N (include row count) and F (field count) per spec.md §4.8's
// dispatch table ("small (N<100, F<=4)"). There is no medium/large cutoff:
// only small input at exhaustive effort runs Bounded, every other case runs
// Scalable (documented Open Question decision, see DESIGN.md).
func dispatch(n, f int, effort Effort) Strategy {
	small := n < 100 && f <= 4
	if effort == Exhaustive && small {
		return Bounded
	}
	return Scalable
}

// patternCap scales MaxPatternsPerField by effort per spec.md §4.8's table
// ("small cap" at low effort, "larger cap" at high): low narrows it,
// medium and exhaustive keep it as given, high widens it.
func patternCap(base int, effort Effort) int {
	switch effort {
	case Low:
		if n := base / 5; n > 0 {
			return n
		}
		return 1
	case High:
		return base * 2
	case Exhaustive:
		return base
	default:
		return base
	}
}

// generateFieldPatternsScalable builds, per field, a frequency-ranked
// capped candidate list from every include row's value in that field.
// Grounded on structured_scalable.py's generate_field_patterns_scalable,
// including its literal "/" insertion around the first/last token (a
// quirk of the original that is ported faithfully rather than "corrected",
// since it does no harm: the candidate is simply validated against actual
// coverage like any other before being selected).
func generateFieldPatternsScalable(rows []Row, fieldOrder []string, tokenizers map[string]tokenize.Tokenizer, maxPerField int) map[string][]string {
	counts := make(map[string]map[string]int, len(fieldOrder))
	for _, f := range fieldOrder {
		counts[f] = make(map[string]int)
	}

	for _, row := range rows {
		for _, field := range fieldOrder {
			value, _ := fieldValue(row, field)
			if value == "" {
				continue
			}
			tokens := tokenizers[field](value)

			patterns := make(map[string]bool)
			patterns[value] = true
			for i, tok := range tokens {
				if i >= 5 {
					break
				}
				patterns["*"+tok.Value+"*"] = true
			}
			if len(tokens) > 0 {
				patterns[tokens[0].Value+"/*"] = true
				patterns["*/"+tokens[len(tokens)-1].Value] = true
			}
			if len(tokens) >= 2 {
				patterns["*"+tokens[0].Value+"*"+tokens[len(tokens)-1].Value+"*"] = true
			}

			for p := range patterns {
				counts[field][p]++
			}
		}
	}

	result := make(map[string][]string, len(fieldOrder))
	for _, field := range fieldOrder {
		fc := counts[field]
		patterns := make([]string, 0, len(fc))
		for p := range fc {
			patterns = append(patterns, p)
		}
		sort.Slice(patterns, func(i, j int) bool {
			if fc[patterns[i]] != fc[patterns[j]] {
				return fc[patterns[i]] > fc[patterns[j]]
			}
			return patterns[i] < patterns[j]
		})
		if len(patterns) > maxPerField {
			patterns = patterns[:maxPerField]
		}
		result[field] = patterns
	}
	return result
}

// patternStat is one (field, pattern) candidate's precomputed coverage.
type patternStat struct {
	Field   string
	Pattern string
	Include *bitset.Set
	Exclude *bitset.Set
}

func computeCoverage(field, pattern string, rows, excludeRows []Row) patternStat {
	stat := patternStat{Field: field, Pattern: pattern, Include: bitset.New(), Exclude: bitset.New()}
	for i, row := range rows {
		v, _ := fieldValue(row, field)
		if matcher.MatchPattern(v, pattern) {
			stat.Include.Set(i)
		}
	}
	for i, row := range excludeRows {
		v, present := fieldValue(row, field)
		// spec.md line 192: a missing field in an exclude row means "don't
		// care" for that field, so it auto-passes rather than being
		// compared as a literal empty string.
		if !present || matcher.MatchPattern(v, pattern) {
			stat.Exclude.Set(i)
		}
	}
	return stat
}

// selectedTerm is one chosen disjunct: a conjunction of (field, pattern)
// atoms plus its combined include/exclude coverage.
type selectedTerm struct {
	Fields  map[string]string
	Include *bitset.Set
	Exclude *bitset.Set
}

// scalableSelect runs spec.md §4.8's scalable greedy set-cover: at each
// step pick the single-field atom with maximal new coverage, tie-broken by
// coverage·weight − 10·new_fp, subject to the FP budget. Grounded on
// structured_scalable.py's greedy_set_cover_structured.
func scalableSelect(rows, excludeRows []Row, fieldOrder []string, fieldPatterns map[string][]string, fieldWeights map[string]float64, maxFP int) []selectedTerm {
	var stats []patternStat
	for _, field := range fieldOrder {
		for _, pattern := range fieldPatterns[field] {
			stat := computeCoverage(field, pattern, rows, excludeRows)
			if !stat.Include.IsEmpty() {
				stats = append(stats, stat)
			}
		}
	}

	var terms []selectedTerm
	covered := bitset.New()
	fp := bitset.New()

	for covered.Count() < len(rows) {
		var best *patternStat
		bestGain := 0
		bestScore := -1.0

		for i := range stats {
			s := &stats[i]
			newCovered := bitset.AndNot(s.Include, covered)
			gain := newCovered.Count()
			if gain == 0 {
				continue
			}
			newFPSet := bitset.Or(fp, s.Exclude)
			newFP := newFPSet.Count()
			if newFP > maxFP {
				continue
			}
			weight := 1.0
			if fieldWeights != nil {
				if w, ok := fieldWeights[s.Field]; ok {
					weight = w
				}
			}
			score := float64(gain)*weight - 10*float64(newFP)
			if best == nil || score > bestScore || (score == bestScore && gain > bestGain) {
				best = s
				bestGain = gain
				bestScore = score
			}
		}

		if best == nil {
			break
		}
		terms = append(terms, selectedTerm{
			Fields:  map[string]string{best.Field: best.Pattern},
			Include: best.Include,
			Exclude: best.Exclude,
		})
		covered = bitset.Or(covered, best.Include)
		fp = bitset.Or(fp, best.Exclude)
	}

	return terms
}

// expression is a multi-field conjunction candidate (the bounded
// strategy's unit), grounded on structured_expressions.py's
// StructuredExpression.
type expression struct {
	Fields  map[string]string
	Include *bitset.Set
	Exclude *bitset.Set
	Score   float64
}

func generateFieldPatternsPerRow(row Row, fieldOrder []string, tokenizers map[string]tokenize.Tokenizer, capPerField int) map[string][]string {
	out := make(map[string][]string, len(fieldOrder))
	for _, field := range fieldOrder {
		value, _ := fieldValue(row, field)
		if value == "" {
			out[field] = nil
			continue
		}
		tokens := tokenizers[field](value)
		set := make(map[string]bool)
		set[value] = true
		for _, tok := range tokens {
			set["*"+tok.Value+"*"] = true
		}
		patterns := make([]string, 0, len(set))
		for p := range set {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		if len(patterns) > capPerField {
			patterns = patterns[:capPerField]
		}
		out[field] = patterns
	}
	return out
}

func scoreExpression(fields map[string]string, fieldOrder []string, fieldWeights map[string]float64) float64 {
	score := 0.0
	numFields := 0
	for _, field := range fieldOrder {
		pattern, ok := fields[field]
		if !ok || pattern == "*" {
			continue
		}
		numFields++
		patternScore := float64(len(pattern))
		wc := strings.Count(pattern, "*")
		switch wc {
		case 0:
			patternScore *= 2.0
		case 1:
			patternScore *= 1.5
		}
		components := strings.Count(pattern, "/") + 1
		if components > 1 {
			patternScore *= 1 + 0.2*float64(components-1)
		}
		if fieldWeights != nil {
			if w, ok := fieldWeights[field]; ok {
				patternScore *= w
			}
		}
		score += patternScore
	}
	if numFields > 1 {
		score *= 1 + 0.3*float64(numFields-1)
	}
	return score
}

// generateExpressionsBounded enumerates 1-, 2-, and 3-field conjunctions
// per include row, deduplicates by field-set, scores, and computes
// coverage. Grounded on
// generate_structured_expression_candidates.
func generateExpressionsBounded(rows, excludeRows []Row, fieldOrder []string, tokenizers map[string]tokenize.Tokenizer, fieldWeights map[string]float64, maxPerRow, maxTotal int) []expression {
	perRowLimit := maxPerRow
	if len(rows) > 0 && maxTotal/len(rows) < perRowLimit {
		perRowLimit = maxTotal / len(rows)
	}
	if perRowLimit <= 0 {
		perRowLimit = 1
	}

	seen := make(map[string]bool)
	var all []expression

	addExpr := func(fields map[string]string) bool {
		parts := make([]string, 0, len(fields))
		for f, p := range fields {
			parts = append(parts, f+"="+p)
		}
		sort.Strings(parts)
		key := strings.Join(parts, "\x00")
		if seen[key] {
			return false
		}
		seen[key] = true
		all = append(all, expression{Fields: fields})
		return true
	}

rowLoop:
	for _, row := range rows {
		patterns := generateFieldPatternsPerRow(row, fieldOrder, tokenizers, 5)
		var rowExprs []map[string]string

		wildcard := func() map[string]string {
			m := make(map[string]string, len(fieldOrder))
			for _, f := range fieldOrder {
				m[f] = "*"
			}
			return m
		}

		for _, field := range fieldOrder {
			for _, p := range patterns[field] {
				f := wildcard()
				f[field] = p
				rowExprs = append(rowExprs, f)
			}
		}

		if len(fieldOrder) >= 2 {
			for i := 0; i < len(fieldOrder); i++ {
				for j := i + 1; j < len(fieldOrder); j++ {
					f1, f2 := fieldOrder[i], fieldOrder[j]
					p1s := capSlice(patterns[f1], 3)
					p2s := capSlice(patterns[f2], 3)
					for _, p1 := range p1s {
						for _, p2 := range p2s {
							f := wildcard()
							f[f1] = p1
							f[f2] = p2
							rowExprs = append(rowExprs, f)
						}
					}
				}
			}
		}

		if len(fieldOrder) == 3 {
			p0 := capSlice(patterns[fieldOrder[0]], 2)
			p1 := capSlice(patterns[fieldOrder[1]], 2)
			p2 := capSlice(patterns[fieldOrder[2]], 2)
			for _, a := range p0 {
				for _, b := range p1 {
					for _, c := range p2 {
						rowExprs = append(rowExprs, map[string]string{
							fieldOrder[0]: a, fieldOrder[1]: b, fieldOrder[2]: c,
						})
					}
				}
			}
		}

		if len(rowExprs) > perRowLimit {
			rowExprs = rowExprs[:perRowLimit]
		}
		for _, f := range rowExprs {
			addExpr(f)
		}
		if len(all) >= maxTotal {
			break rowLoop
		}
	}

	for i := range all {
		all[i].Include = bitset.New()
		all[i].Exclude = bitset.New()
		for idx, row := range rows {
			if matchesExpression(all[i].Fields, row, false) {
				all[i].Include.Set(idx)
			}
		}
		for idx, row := range excludeRows {
			if matchesExpression(all[i].Fields, row, true) {
				all[i].Exclude.Set(idx)
			}
		}
		all[i].Score = scoreExpression(all[i].Fields, fieldOrder, fieldWeights)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Include.Count() > all[j].Include.Count()
	})

	return all
}

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// matchesExpression reports whether row satisfies every (field, pattern)
// conjunct in fields. forExclude must be true when row comes from the
// exclude set: per spec.md line 192, a field the row doesn't carry at all
// then means "don't care" and auto-passes, rather than being compared as a
// literal empty string.
func matchesExpression(fields map[string]string, row Row, forExclude bool) bool {
	for field, pattern := range fields {
		if pattern == "*" {
			continue
		}
		v, present := fieldValue(row, field)
		if forExclude && !present {
			continue
		}
		if !matcher.MatchPattern(v, pattern) {
			return false
		}
	}
	return true
}

// boundedSelect greedily picks expressions maximizing new coverage
// (ties broken by score) until every include row is covered or no
// candidate both adds coverage and honors the FP budget. Grounded on
// greedy_select_structured_expressions.
func boundedSelect(expressions []expression, numInclude, maxFP int) []selectedTerm {
	var terms []selectedTerm
	covered := bitset.New()
	fp := bitset.New()
	used := make([]bool, len(expressions))

	for covered.Count() < numInclude {
		bestIdx := -1
		bestGain := 0
		var bestScore float64

		for i, e := range expressions {
			if used[i] {
				continue
			}
			newCovered := bitset.AndNot(e.Include, covered)
			gain := newCovered.Count()
			if gain == 0 {
				continue
			}
			newFP := bitset.Or(fp, e.Exclude).Count()
			if newFP > maxFP {
				continue
			}
			if bestIdx == -1 || gain > bestGain || (gain == bestGain && e.Score > bestScore) {
				bestIdx = i
				bestGain = gain
				bestScore = e.Score
			}
		}

		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		e := expressions[bestIdx]

		onlyField := make(map[string]string)
		for f, p := range e.Fields {
			if p != "*" {
				onlyField[f] = p
			}
		}
		terms = append(terms, selectedTerm{Fields: onlyField, Include: e.Include, Exclude: e.Exclude})
		covered = bitset.Or(covered, e.Include)
		fp = bitset.Or(fp, e.Exclude)
	}

	return terms
}

// assemble builds a full solve.Solution from the strategy-chosen terms,
// pooling one atom per distinct (field, pattern) in first-use order and
// joining each term's constituent atoms with "&" (spec.md §4.8's
// Term.fields/not_fields shape).
func assemble(terms []selectedTerm, rows, excludeRows []Row, opts Options, strategy Strategy) solve.Solution {
	atomIndex := make(map[string]int)
	var atoms []solve.Atom
	var solveTerms []solve.Term

	accIncl := bitset.New()
	accExcl := bitset.New()

	atomFor := func(field, pattern string) string {
		key := field + "\x00" + pattern
		if idx, ok := atomIndex[key]; ok {
			return atoms[idx].ID
		}
		stat := computeCoverage(field, pattern, rows, excludeRows)
		newID := "P" + itoa(len(atoms)+1)
		atoms = append(atoms, solve.Atom{
			ID:        newID,
			Text:      pattern,
			Kind:      classifyKind(pattern),
			Wildcards: matcher.WildcardCount(pattern),
			Length:    matcher.Length(pattern),
			Field:     field,
			TP:        stat.Include.Count(),
			FP:        stat.Exclude.Count(),
		})
		atomIndex[key] = len(atoms) - 1
		return newID
	}

	for _, t := range terms {
		fieldNames := make([]string, 0, len(t.Fields))
		for f := range t.Fields {
			fieldNames = append(fieldNames, f)
		}
		sort.Strings(fieldNames)

		var ids []string
		var rawParts []string
		for _, f := range fieldNames {
			p := t.Fields[f]
			ids = append(ids, atomFor(f, p))
			rawParts = append(rawParts, f+"="+p)
		}
		termText := strings.Join(ids, " & ")
		rawText := strings.Join(rawParts, " & ")

		incrIncl := bitset.AndNot(t.Include, accIncl)
		incrExcl := bitset.AndNot(t.Exclude, accExcl)

		solveTerms = append(solveTerms, solve.Term{
			Text:          termText,
			RawText:       rawText,
			Include:       t.Include,
			Exclude:       t.Exclude,
			IncrementalTP: incrIncl.Count(),
			IncrementalFP: incrExcl.Count(),
			Fields:        t.Fields,
		})

		accIncl = bitset.Or(accIncl, t.Include)
		accExcl = bitset.Or(accExcl, t.Exclude)
	}

	exprParts := make([]string, len(solveTerms))
	rawExprParts := make([]string, len(solveTerms))
	wildcards, length := 0, 0
	for i, t := range solveTerms {
		exprParts[i] = t.Text
		if len(strings.Fields(t.Text)) > 1 {
			exprParts[i] = "(" + t.Text + ")"
		}
		rawExprParts[i] = t.RawText
	}
	for _, a := range atoms {
		wildcards += a.Wildcards
		length += a.Length
	}

	ops := len(solveTerms) - 1
	if ops < 0 {
		ops = 0
	}
	metrics := solve.Metrics{
		Covered:       accIncl.Count(),
		TotalPositive: len(rows),
		FP:            accExcl.Count(),
		FN:            len(rows) - accIncl.Count(),
		Patterns:      len(atoms),
		BooleanOps:    ops,
		Wildcards:     wildcards,
		PatternChars:  length,
	}

	expr, rawExpr := "FALSE", "FALSE"
	if len(solveTerms) > 0 {
		expr = strings.Join(exprParts, " | ")
		rawExpr = strings.Join(rawExprParts, " | ")
	}

	witnesses := solve.Witnesses{
		TPExamples: firstMatching(flattenItem(rows), accIncl, true, 3),
		FPExamples: firstMatching(flattenItem(excludeRows), accExcl, true, 3),
		FNExamples: firstMatching(flattenItem(rows), accIncl, false, 3),
	}

	return solve.Solution{
		Expr:       expr,
		RawExpr:    rawExpr,
		TermMethod: string(strategy),
		Mode:       opts.Mode,
		Atoms:      atoms,
		Metrics:    metrics,
		Witnesses:  witnesses,
		Terms:      solveTerms,
	}
}

// flattenItem renders a row as a stable "field=value, ..." string for
// witness display, ordering fields alphabetically for determinism.
func flattenItem(rows []Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = k + "=" + row[k]
		}
		out[i] = strings.Join(parts, ", ")
	}
	return out
}

func firstMatching(items []string, bits *bitset.Set, want bool, limit int) []string {
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

func classifyKind(pattern string) candidates.Kind {
	wc := strings.Count(pattern, "*")
	switch {
	case wc == 0:
		return candidates.Exact
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		if wc == 2 {
			return candidates.Substring
		}
		return candidates.Multi
	case strings.HasPrefix(pattern, "*"):
		return candidates.Suffix
	case strings.HasSuffix(pattern, "*"):
		return candidates.Prefix
	default:
		return candidates.Multi
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ProposeSolutionStructured implements spec.md §6 entry point 2 for
// multi-field input. fieldOrder, if nil, is inferred from the first
// include row's fields (sorted; see inferFieldOrder).
func ProposeSolutionStructured(includeRows, excludeRows []Row, fieldOrder []string, opts Options) solve.Solution {
	opts = opts.normalize()

	if fieldOrder == nil {
		fieldOrder = inferFieldOrder(includeRows)
	}
	tokenizers := buildTokenizers(opts, fieldOrder)

	maxFP, hasMaxFP := opts.Budgets.MaxFP.Resolve(len(excludeRows))
	if !hasMaxFP {
		maxFP = len(excludeRows)
	}

	strategy := dispatch(len(includeRows), len(fieldOrder), opts.Effort)
	logging.Debugf(opts.Logger, "structured dispatch: n=%d f=%d effort=%s -> %s",
		len(includeRows), len(fieldOrder), opts.Effort, strategy)

	var terms []selectedTerm
	switch strategy {
	case Bounded:
		exprs := generateExpressionsBounded(includeRows, excludeRows, fieldOrder, tokenizers,
			opts.FieldWeights, opts.MaxExpressionsPerRow, opts.MaxTotalExpressions)
		terms = boundedSelect(exprs, len(includeRows), maxFP)
	default:
		patternsCap := patternCap(opts.MaxPatternsPerField, opts.Effort)
		fieldPatterns := generateFieldPatternsScalable(includeRows, fieldOrder, tokenizers, patternsCap)
		terms = scalableSelect(includeRows, excludeRows, fieldOrder, fieldPatterns, opts.FieldWeights, maxFP)
	}

	return assemble(terms, includeRows, excludeRows, opts, strategy)
}
