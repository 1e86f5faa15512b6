// Package refine implements the two post-passes spec.md runs after greedy
// selection: §4.6 refinement (replace several atoms with one more general
// atom of equal-or-better coverage) and §4.7 expansion/honing (tighten an
// atom while preserving its exact coverage).
//
// Grounded on original_source's engine/refinement.py and engine/
// expansion.py. refinement.py's _try_merge_patterns locates a valid merge
// but never applies it (`return solution  # TODO: Build proper refined
// solution`); tryMergePatterns below fixes that by actually rebuilding the solution
// from the surviving terms, per spec.md §4.6 ("replace the pair by it").
package refine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/saxyguy81/patternforge/bitset"
	"github.com/saxyguy81/patternforge/candidates"
	"github.com/saxyguy81/patternforge/matcher"
	"github.com/saxyguy81/patternforge/solve"
	"github.com/saxyguy81/patternforge/tokenize"
)

// Refine runs unconditionally (per spec.md §4.6's "always runs") and
// returns sol unchanged if neither transformation finds an improvement.
func Refine(sol solve.Solution, include, exclude []string) solve.Solution {
	if len(sol.Atoms) <= 1 {
		return sol
	}
	if single, ok := trySinglePatternCoverage(sol, include, exclude); ok {
		return single
	}
	if merged, ok := tryMergePatterns(sol, include, exclude); ok {
		return merged
	}
	return sol
}

// patternInfo is a pattern bound to a field with its full coverage over the
// whole include/exclude sets, the unit assemble rebuilds a Solution from.
type patternInfo struct {
	Pattern string
	Field   string
	Include *bitset.Set
	Exclude *bitset.Set
}

func computePatternInfo(pattern, field string, include, exclude []string) patternInfo {
	inc := bitset.New()
	for i, s := range include {
		if matcher.MatchPattern(s, pattern) {
			inc.Set(i)
		}
	}
	exc := bitset.New()
	for i, s := range exclude {
		if matcher.MatchPattern(s, pattern) {
			exc.Set(i)
		}
	}
	return patternInfo{Pattern: pattern, Field: field, Include: inc, Exclude: exc}
}

// classifyKind mirrors original_source's _classify_pattern: kind is a
// function of wildcard count and position, not provenance.
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

// assemble rebuilds a full Solution (atoms, terms, metrics, witnesses,
// expr/raw_expr) from an ordered list of surviving patterns, renumbering
// atom identifiers P1..Pn in order. It mirrors solve package's internal
// buildSolution, adapted to operate on bare pattern text instead of
// candidates.Candidate since refinement/expansion only ever deal in
// already-chosen pattern strings.
func assemble(infos []patternInfo, include, exclude []string, base solve.Solution) solve.Solution {
	atoms := make([]solve.Atom, 0, len(infos))
	terms := make([]solve.Term, 0, len(infos))
	accIncl := bitset.New()
	accExcl := bitset.New()

	for i, info := range infos {
		id := fmt.Sprintf("P%d", i+1)
		atoms = append(atoms, solve.Atom{
			ID:        id,
			Text:      info.Pattern,
			Kind:      classifyKind(info.Pattern),
			Wildcards: matcher.WildcardCount(info.Pattern),
			Length:    matcher.Length(info.Pattern),
			Field:     info.Field,
			TP:        info.Include.Count(),
			FP:        info.Exclude.Count(),
		})

		incrIncl := bitset.AndNot(info.Include, accIncl)
		incrExcl := bitset.AndNot(info.Exclude, accExcl)
		term := solve.Term{
			Text:          id,
			RawText:       info.Pattern,
			Include:       info.Include,
			Exclude:       info.Exclude,
			IncrementalTP: incrIncl.Count(),
			IncrementalFP: incrExcl.Count(),
		}
		if info.Field != "" {
			term.Fields = map[string]string{info.Field: info.Pattern}
		}
		terms = append(terms, term)

		accIncl = bitset.Or(accIncl, info.Include)
		accExcl = bitset.Or(accExcl, info.Exclude)
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

	ops := len(atoms) - 1
	if ops < 0 {
		ops = 0
	}
	metrics := solve.Metrics{
		Covered:       accIncl.Count(),
		TotalPositive: len(include),
		FP:            accExcl.Count(),
		FN:            len(include) - accIncl.Count(),
		Patterns:      len(atoms),
		BooleanOps:    ops,
		Wildcards:     wildcards,
		PatternChars:  length,
	}

	expr, rawExpr := "FALSE", "FALSE"
	if len(atoms) > 0 {
		expr = strings.Join(exprParts, " | ")
		rawExpr = strings.Join(rawParts, " | ")
	}

	witnesses := solve.Witnesses{
		TPExamples: firstMatching(include, accIncl, true, 3),
		FPExamples: firstMatching(exclude, accExcl, true, 3),
		FNExamples: firstMatching(include, accIncl, false, 3),
	}

	return solve.Solution{
		Expr:           expr,
		RawExpr:        rawExpr,
		GlobalInverted: base.GlobalInverted,
		TermMethod:     base.TermMethod,
		Mode:           base.Mode,
		Options:        base.Options,
		Atoms:          atoms,
		Metrics:        metrics,
		Witnesses:      witnesses,
		Terms:          terms,
	}
}

// firstMatching returns up to limit items whose accumulated-bitset
// membership equals want, mirroring solve package's own witness helpers.
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

// lastDelimiterBoundary returns the offset just past the last
// non-alphanumeric rune in s, or 0 if s has none.
func lastDelimiterBoundary(s string) int {
	boundary := 0
	for i, r := range s {
		if !isAlnum(r) {
			boundary = i + len(string(r))
		}
	}
	return boundary
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// generateGeneralizations proposes single-pattern candidates from the
// include set: the longest common prefix truncated at the last delimiter,
// tokens present in every include row, and adjacent pairs of those tokens.
// Grounded on original_source/engine/refinement.py's
// _generate_generalizations.
func generateGeneralizations(include []string) []string {
	candidatesSet := make(map[string]bool)

	if len(include) >= 2 {
		prefix := strings.ToLower(include[0])
		for _, s := range include[1:] {
			prefix = commonPrefix(prefix, strings.ToLower(s))
			if prefix == "" {
				break
			}
		}
		if boundary := lastDelimiterBoundary(prefix); boundary > 0 {
			candidatesSet[prefix[:boundary]+"*"] = true
		}
	}

	freq := make(map[string]int)
	for _, item := range include {
		for _, tok := range tokenize.Tokenize(strings.ToLower(item), tokenize.ClassChange, 3) {
			freq[tok.Value]++
		}
	}
	var commonTokens []string
	for tok, n := range freq {
		if n == len(include) {
			commonTokens = append(commonTokens, tok)
		}
	}
	sort.Strings(commonTokens)

	limit := len(commonTokens)
	if limit > 5 {
		limit = 5
	}
	for _, tok := range commonTokens[:limit] {
		candidatesSet["*"+tok+"*"] = true
	}

	for i := range commonTokens {
		for j := i + 1; j < len(commonTokens) && j < i+3; j++ {
			candidatesSet["*"+commonTokens[i]+"*"+commonTokens[j]+"*"] = true
		}
	}

	return sortedSet(candidatesSet)
}

// trySinglePatternCoverage looks for one pattern that covers every include
// row with zero exclude hits, replacing the whole selection with it.
func trySinglePatternCoverage(sol solve.Solution, include, exclude []string) (solve.Solution, bool) {
	for _, pattern := range generateGeneralizations(include) {
		info := computePatternInfo(pattern, "", include, exclude)
		if info.Include.Count() == len(include) && info.Exclude.Count() == 0 {
			return assemble([]patternInfo{info}, include, exclude, sol), true
		}
	}
	return solve.Solution{}, false
}

// generalizePair proposes generalizations that might cover both of two
// atom pattern texts: a shared prefix beyond 3 characters truncated to a
// delimiter boundary, and tokens common to both patterns' own text.
// Grounded on original_source/engine/refinement.py's _generalize_pair.
func generalizePair(pattern1, pattern2 string) []string {
	var out []string
	prefix := commonPrefix(pattern1, pattern2)
	if len(prefix) > 3 {
		if boundary := lastDelimiterBoundary(prefix); boundary > 0 {
			out = append(out, prefix[:boundary]+"*")
		}
	}

	tokens1 := make(map[string]bool)
	for _, t := range tokenize.Tokenize(pattern1, tokenize.ClassChange, 3) {
		tokens1[t.Value] = true
	}
	tokens2 := make(map[string]bool)
	for _, t := range tokenize.Tokenize(pattern2, tokenize.ClassChange, 3) {
		tokens2[t.Value] = true
	}
	var common []string
	for t := range tokens1 {
		if tokens2[t] {
			common = append(common, t)
		}
	}
	sort.Strings(common)
	if len(common) > 3 {
		common = common[:3]
	}
	for _, t := range common {
		out = append(out, "*"+t+"*")
	}
	return out
}

// tryMergePatterns looks for a pair of atoms that a single generalization
// can subsume (equal-or-better combined coverage, 0 FP), replacing the pair
// with it. Unlike original_source's _try_merge_patterns (which locates the
// merge but never applies it), this rebuilds and returns the merged
// solution.
func tryMergePatterns(sol solve.Solution, include, exclude []string) (solve.Solution, bool) {
	atoms := sol.Atoms
	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			p1Coverage := atoms[i].TP
			p2Coverage := atoms[j].TP

			for _, gen := range generalizePair(atoms[i].Text, atoms[j].Text) {
				info := computePatternInfo(gen, atoms[i].Field, include, exclude)
				if info.Include.Count() >= p1Coverage+p2Coverage && info.Exclude.Count() == 0 {
					var survivors []patternInfo
					for k, a := range atoms {
						if k == i || k == j {
							continue
						}
						survivors = append(survivors, patternInfo{
							Pattern: a.Text,
							Field:   a.Field,
							Include: sol.Terms[k].Include,
							Exclude: sol.Terms[k].Exclude,
						})
					}
					survivors = append(survivors, info)
					return assemble(survivors, include, exclude, sol), true
				}
			}
		}
	}
	return solve.Solution{}, false
}

// Expand hones every atom independently per spec.md §4.7, tightening it
// while preserving its exact include coverage and not exceeding its
// current exclude coverage, then rebuilds the solution from the honed
// pattern texts.
func Expand(sol solve.Solution, include, exclude []string) solve.Solution {
	if len(sol.Atoms) == 0 {
		return sol
	}
	infos := make([]patternInfo, len(sol.Atoms))
	for i, a := range sol.Atoms {
		honed := honePattern(a.Text, include, exclude)
		infos[i] = computePatternInfo(honed, a.Field, include, exclude)
	}
	return assemble(infos, include, exclude, sol)
}

const delimiterChars = "/_.-"

func matchedIndexes(pattern string, items []string) *bitset.Set {
	bits := bitset.New()
	for i, item := range items {
		if matcher.MatchPattern(item, pattern) {
			bits.Set(i)
		}
	}
	return bits
}

func bitsetTexts(bits *bitset.Set, items []string) []string {
	var out []string
	bits.Iter(func(i int) {
		if i < len(items) {
			out = append(out, items[i])
		}
	})
	return out
}

// simpleTokenize extracts runs of 3+ alphanumeric characters, the honing
// pass's lighter-weight stand-in for the full tokenizer (mirrors
// expansion.py's simple_tokenize regex).
func simpleTokenize(text string) []string {
	var out []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() >= 3 {
			out = append(out, strings.ToLower(buf.String()))
		}
		buf.Reset()
	}
	for _, r := range text {
		if isAlnum(r) {
			buf.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// extendMultiWildcard tries *a* -> *a*b* -> *a*b*c* by finding tokens that
// follow the last existing segment in every currently matched item,
// joining contiguously when no delimiter separates them in the source
// text and with a wildcard otherwise. Grounded on expansion.py's
// _try_extend_multi_wildcard.
func extendMultiWildcard(pattern string, include, exclude []string, currentMatch, currentFP *bitset.Set) string {
	segments := nonEmptySegments(pattern)
	if len(segments) == 0 || len(segments) >= 5 {
		return pattern
	}
	matches := bitsetTexts(currentMatch, include)
	if len(matches) == 0 {
		return pattern
	}
	lastSegment := segments[len(segments)-1]

	type tokenInfo struct {
		count     int
		allContig bool
	}
	seen := make(map[string]*tokenInfo)
	existing := make(map[string]bool, len(segments))
	for _, s := range segments {
		existing[s] = true
	}

	for _, text := range matches {
		lower := strings.ToLower(text)
		toks := simpleTokenize(text)
		lastIdx := -1
		for i, t := range toks {
			if t == lastSegment {
				lastIdx = i
			}
		}
		if lastIdx == -1 {
			continue
		}
		lastPos := strings.Index(lower, lastSegment)
		if lastPos < 0 {
			continue
		}
		searchStart := lastPos + len(lastSegment)
		for _, next := range toks[lastIdx+1:] {
			if existing[next] {
				continue
			}
			nextPos := strings.Index(lower[searchStart:], next)
			if nextPos < 0 {
				continue
			}
			nextPos += searchStart
			between := lower[searchStart:nextPos]
			contig := between == "" || strings.Trim(between, "_-") == ""

			info, ok := seen[next]
			if !ok {
				info = &tokenInfo{allContig: true}
				seen[next] = info
			}
			info.count++
			if !contig {
				info.allContig = false
			}
		}
	}

	var common []string
	for tok, info := range seen {
		if info.count == len(matches) {
			common = append(common, tok)
		}
	}
	sort.Slice(common, func(i, j int) bool { return len(common[i]) > len(common[j]) })
	if len(common) > 5 {
		common = common[:5]
	}

	best := pattern
	bestLength := matcher.Length(pattern)
	current := pattern

	for _, tok := range common {
		contig := seen[tok].allContig
		var next string
		if contig {
			next = strings.TrimSuffix(current, "*") + tok + "*"
		} else {
			next = strings.TrimSuffix(current, "*") + "*" + tok + "*"
		}

		newMatch := matchedIndexes(next, include)
		if !bitset.Equal(newMatch, currentMatch) {
			continue
		}
		newFP := matchedIndexes(next, exclude)
		if newFP.Count() > currentFP.Count() {
			continue
		}
		if l := matcher.Length(next); l > bestLength {
			best = next
			bestLength = l
			current = next
		}
	}

	return best
}

func nonEmptySegments(pattern string) []string {
	var out []string
	for _, s := range strings.Split(pattern, "*") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func delimiterPositions(s string) []int {
	var out []int
	for i, r := range s {
		if strings.ContainsRune(delimiterChars, r) {
			out = append(out, i+len(string(r)))
		}
	}
	return out
}

// honePattern implements spec.md §4.7's per-atom tightening. Only
// substring-shaped (*x*) and prefix-shaped (x*) atoms are covered per the
// spec; other kinds are returned unchanged.
func honePattern(pattern string, include, exclude []string) string {
	currentMatch := matchedIndexes(pattern, include)
	currentFP := matchedIndexes(pattern, exclude)
	if currentMatch.IsEmpty() {
		return pattern
	}

	matches := bitsetTexts(currentMatch, include)
	if len(matches) == 0 {
		return pattern
	}
	common := matches[0]
	for _, m := range matches[1:] {
		common = commonPrefix(common, m)
		if common == "" {
			return pattern
		}
	}

	best := pattern
	bestLength := matcher.Length(pattern)

	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		extended := extendMultiWildcard(pattern, include, exclude, currentMatch, currentFP)
		if l := matcher.Length(extended); l > bestLength {
			best, bestLength = extended, l
		}

		positions := delimiterPositions(common)
		positions = append(positions, len(common))
		sort.Sort(sort.Reverse(sort.IntSlice(positions)))
		if len(positions) > 10 {
			positions = positions[:10]
		}
		for _, pos := range positions {
			if pos == 0 {
				continue
			}
			candidate := common[:pos] + "*"
			newMatch := matchedIndexes(candidate, include)
			if !bitset.Equal(newMatch, currentMatch) {
				break
			}
			newFP := matchedIndexes(candidate, exclude)
			if newFP.Count() > currentFP.Count() {
				continue
			}
			if l := matcher.Length(candidate); l > bestLength {
				best, bestLength = candidate, l
				if pos == len(common) {
					return best
				}
			}
		}

	case !strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		prefixPart := strings.TrimSuffix(pattern, "*")
		if !strings.HasPrefix(common, prefixPart) {
			return pattern
		}
		remaining := common[len(prefixPart):]
		var positions []int
		for i, r := range remaining {
			if strings.ContainsRune(delimiterChars, r) {
				positions = append(positions, len(prefixPart)+i+len(string(r)))
			}
		}
		if len(common) > len(prefixPart) {
			positions = append(positions, len(common))
		}
		sort.Sort(sort.Reverse(sort.IntSlice(positions)))
		if len(positions) > 10 {
			positions = positions[:10]
		}
		for _, pos := range positions {
			candidate := common[:pos] + "*"
			newMatch := matchedIndexes(candidate, include)
			if !bitset.Equal(newMatch, currentMatch) {
				break
			}
			newFP := matchedIndexes(candidate, exclude)
			if newFP.Count() > currentFP.Count() {
				continue
			}
			if l := matcher.Length(candidate); l > bestLength {
				best, bestLength = candidate, l
				if pos >= len(common) {
					return best
				}
			}
		}
	}

	return best
}
