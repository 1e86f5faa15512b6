// Package candidates builds the scored pool of glob patterns the greedy
// solver chooses from. It is grounded on original_source's
// engine/candidates.py for the pooling/dedup idiom (push-keeps-max-score)
// and expanded per spec.md §4.3 to the full five-kind generator that file's
// stale on-disk snapshot no longer matched (solver.py calls it with a
// richer signature than the copy on disk retains).
package candidates

import (
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"
	"go.uber.org/zap"

	"github.com/saxyguy81/patternforge/bitset"
	"github.com/saxyguy81/patternforge/internal/logging"
	"github.com/saxyguy81/patternforge/matcher"
	"github.com/saxyguy81/patternforge/tokenize"
)

// Kind tags which of the five candidate shapes a Candidate is.
type Kind string

const (
	Exact     Kind = "exact"
	Substring Kind = "substring"
	Prefix    Kind = "prefix"
	Suffix    Kind = "suffix"
	Multi     Kind = "multi"
)

// Candidate is the unit of combinatorial choice handed to the greedy
// solver: a scored pattern plus its precomputed include/exclude coverage.
// Include/Exclude are populated by ComputeBitsets; generation alone leaves
// them nil.
type Candidate struct {
	Pattern   string
	Kind      Kind
	Score     float64
	Wildcards int
	Length    int
	Field     string
	Include   *bitset.Set
	Exclude   *bitset.Set
}

// Row is a single-field input row: its raw text plus an optional field name
// (empty for unstructured input).
type Row struct {
	Text  string
	Field string
}

// Options controls generation: the tokenizer method/floor, per-field
// weights, the allowed-pattern filter, and the output cap.
type Options struct {
	Method          tokenize.Method
	MinTokenLen     int
	MaxMultiSegment int
	FieldWeights    map[string]float64
	AllowedPatterns AllowedPatterns
	MaxCandidates   int
	Logger          *zap.SugaredLogger
}

// AllowedPatterns restricts which kinds survive generation, either globally
// or per field. A nil AllowedPatterns permits everything.
type AllowedPatterns struct {
	Global   map[Kind]bool
	PerField map[string]map[Kind]bool
}

func (a AllowedPatterns) permits(kind Kind, field string) bool {
	if a.PerField != nil {
		if set, ok := a.PerField[field]; ok {
			return set[kind]
		}
	}
	if a.Global == nil {
		return true
	}
	return a.Global[kind]
}

func fieldWeight(weights map[string]float64, field string) float64 {
	if weights == nil {
		return 1.0
	}
	if w, ok := weights[field]; ok {
		return w
	}
	return 1.0
}

// confirmedTokens builds a one-pattern Aho-Corasick automaton per token
// value (github.com/coregx/ahocorasick's NewBuilder/AddPattern/Build, the
// same construction meta/compile.go uses to build its literal-alternation
// automaton) and checks it against the row's lowercased text, returning
// which token indexes actually occur there verbatim. The length-floor merge
// step in tokenize.go (mergeClassChange/mergeDelimiter) occasionally folds
// non-adjacent fragments into a token that no longer occurs verbatim in the
// source row (mergeDelimiter always joins with a literal "_", even when the
// original separator was "/", ".", or "-"; mergeClassChange can bridge a
// dropped single-character chunk). spec.md §4.3 imposes no "found verbatim"
// precondition on substring/multi emission, so this is diagnostic only: it
// never withholds a candidate, it only logs the mismatch for debugging.
func confirmedTokens(tokens []tokenize.Token, lower string, logger *zap.SugaredLogger) map[int]bool {
	if len(tokens) == 0 {
		return nil
	}
	haystack := []byte(lower)
	confirmed := make(map[int]bool, len(tokens))
	for i, tok := range tokens {
		builder := ahocorasick.NewBuilder()
		builder.AddPattern([]byte(tok.Value))
		auto, err := builder.Build()
		if err != nil {
			continue
		}
		if auto.IsMatch(haystack) {
			confirmed[i] = true
		} else {
			logging.Debugf(logger, "token %q (merged, index %d) does not occur verbatim in %q", tok.Value, i, lower)
		}
	}
	return confirmed
}

// allConfirmed reports whether every token index in [start, start+winLen)
// was confirmed present by confirmedTokens; used only to decide whether a
// multi-segment candidate is worth a debug log line, never to skip it.
func allConfirmed(confirmed map[int]bool, start, winLen int) bool {
	for i := start; i < start+winLen; i++ {
		if !confirmed[i] {
			return false
		}
	}
	return true
}

// pool deduplicates by (pattern, field), keeping the highest-scoring entry,
// mirroring CandidatePool.push in original_source/engine/candidates.py.
type pool struct {
	byKey map[string]*Candidate
}

func newPool() *pool {
	return &pool{byKey: make(map[string]*Candidate)}
}

func key(pattern, field string) string { return field + "\x00" + pattern }

func (p *pool) push(c Candidate) {
	k := key(c.Pattern, c.Field)
	if existing, ok := p.byKey[k]; ok {
		if c.Score <= existing.Score {
			return
		}
	}
	cc := c
	p.byKey[k] = &cc
}

func (p *pool) items() []Candidate {
	out := make([]Candidate, 0, len(p.byKey))
	for _, c := range p.byKey {
		out = append(out, *c)
	}
	return out
}

// Generate produces the deduplicated, sorted, budget-truncated candidate
// pool for a set of rows (a single field's worth, or a whole unstructured
// row set with Field left empty on every Row).
func Generate(rows []Row, opts Options) []Candidate {
	if opts.MinTokenLen <= 0 {
		opts.MinTokenLen = 3
	}
	if opts.MaxMultiSegment <= 0 {
		opts.MaxMultiSegment = 3
	}
	p := newPool()

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
	}

	for _, row := range rows {
		lower := strings.ToLower(row.Text)
		tokens := tokenize.Tokenize(lower, opts.Method, opts.MinTokenLen)
		weight := fieldWeight(opts.FieldWeights, row.Field)

		emit := func(c Candidate) {
			if !opts.AllowedPatterns.permits(c.Kind, row.Field) {
				return
			}
			c.Field = row.Field
			c.Wildcards = matcher.WildcardCount(c.Pattern)
			c.Length = matcher.Length(c.Pattern)
			p.push(c)
		}

		// exact: full original text, and each individual token.
		emit(Candidate{Pattern: lower, Kind: Exact, Score: float64(len(lower)) * weight})
		for _, tok := range tokens {
			emit(Candidate{Pattern: tok.Value, Kind: Exact, Score: float64(len(tok.Value)) * weight})
		}

		confirmed := confirmedTokens(tokens, lower, opts.Logger)

		for _, tok := range tokens {
			t := tok.Value
			// substring/multi carry no "found verbatim" precondition per
			// spec.md §4.3; confirmedTokens above only logs the mismatch.
			emit(Candidate{Pattern: "*" + t + "*", Kind: Substring, Score: float64(len(t)) * weight})

			if strings.HasPrefix(lower, t) {
				emit(Candidate{Pattern: t + "*", Kind: Prefix, Score: 1.5 * float64(len(t)) * weight})
			}
			if strings.HasSuffix(lower, t) {
				emit(Candidate{Pattern: "*" + t, Kind: Suffix, Score: 1.5 * float64(len(t)) * weight})
			}
		}

		for winLen := 2; winLen <= opts.MaxMultiSegment; winLen++ {
			for start := 0; start+winLen <= len(tokens); start++ {
				if !allConfirmed(confirmed, start, winLen) {
					logging.Debugf(opts.Logger, "multi-segment window [%d,%d) not fully confirmed verbatim in %q", start, start+winLen, lower)
				}
				window := tokens[start : start+winLen]
				var b strings.Builder
				sum := 0
				for _, tok := range window {
					b.WriteString("*")
					b.WriteString(tok.Value)
					sum += len(tok.Value)
				}
				b.WriteString("*")
				score := float64(sum-(winLen-1)) * weight
				emit(Candidate{Pattern: b.String(), Kind: Multi, Score: score})
			}
		}
	}

	if prefix, ok := globalLongestCommonPrefix(texts); ok {
		p.push(Candidate{
			Pattern:   strings.ToLower(prefix) + "*",
			Kind:      Prefix,
			Score:     2 * float64(len(prefix)),
			Field:     "",
			Wildcards: matcher.WildcardCount(prefix + "*"),
			Length:    matcher.Length(prefix + "*"),
		})
	}

	out := p.items()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Pattern < out[j].Pattern
	})

	if opts.MaxCandidates > 0 && len(out) > opts.MaxCandidates {
		out = out[:opts.MaxCandidates]
	}
	return out
}

// globalLongestCommonPrefix computes the longest common prefix across at
// least two rows, truncated at the last non-alphanumeric boundary inside it
// per spec.md §4.3. Returns ok=false when fewer than two rows are given or
// the prefix truncates to nothing.
func globalLongestCommonPrefix(texts []string) (string, bool) {
	if len(texts) < 2 {
		return "", false
	}
	prefix := texts[0]
	for _, t := range texts[1:] {
		prefix = commonPrefix(prefix, t)
		if prefix == "" {
			return "", false
		}
	}
	cut := -1
	for i, r := range prefix {
		if !isAlnumRune(r) {
			cut = i + len(string(r))
		}
	}
	if cut > 0 {
		prefix = prefix[:cut]
	} else if cut == 0 {
		return "", false
	}
	if prefix == "" {
		return "", false
	}
	return prefix, true
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

func isAlnumRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// FieldValue returns the text a candidate bound to field should be matched
// against for the row at rowIndex. Unstructured callers ignore field and
// return the row's raw string; structured callers look up the named field.
type FieldValue func(rowIndex int, field string) string

// ComputeBitsets fills in Include/Exclude on every candidate by running the
// matcher over each include/exclude row, per spec.md §4.3 ("compute
// include-bitset and exclude-bitset by running the matcher over either the
// raw row string ... or the specific field value").
func ComputeBitsets(cands []Candidate, includeLen, excludeLen int, includeValue, excludeValue FieldValue) {
	for i := range cands {
		c := &cands[i]
		inc := bitset.New()
		for row := 0; row < includeLen; row++ {
			if matcher.MatchPattern(includeValue(row, c.Field), c.Pattern) {
				inc.Set(row)
			}
		}
		exc := bitset.New()
		for row := 0; row < excludeLen; row++ {
			if matcher.MatchPattern(excludeValue(row, c.Field), c.Pattern) {
				exc.Set(row)
			}
		}
		c.Include = inc
		c.Exclude = exc
	}
}
