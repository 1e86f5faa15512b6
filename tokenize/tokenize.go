// Package tokenize segments row strings into lowercase tokens ahead of
// candidate generation. It follows the same index-carrying-Token shape as
// original_source's tokens.py (Token{value, index}), adapted to Go's
// struct-value idiom in place of Python's __slots__ class, and extended
// with the delimiter method spec.md adds alongside classchange/char.
package tokenize

import (
	"strings"
	"unicode"
)

// Method selects the segmentation strategy.
type Method string

const (
	ClassChange Method = "classchange"
	Delimiter   Method = "delimiter"
	Char        Method = "char"
)

// Token is a lowercased substring paired with its position among the raw
// (pre-merge) chunks of its source string.
type Token struct {
	Value string
	Index int
}

const delimiterChars = "/_.-"

func charClass(r rune) int {
	switch {
	case unicode.IsLetter(r):
		return 0 // alpha
	case unicode.IsDigit(r):
		return 1 // digit
	default:
		return 2 // other
	}
}

// splitClassChange cuts text at alpha/digit/other class transitions.
func splitClassChange(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	var buf strings.Builder
	prev := -1
	for _, r := range text {
		cls := charClass(r)
		if prev != -1 && cls != prev {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
		prev = cls
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// splitDelimiter cuts text on '/', '_', '.', '-', keeping the delimiter runs
// as their own chunks so merge can fold them back into a neighboring token.
func splitDelimiter(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	var buf strings.Builder
	inDelim := false
	first := true
	for _, r := range text {
		isDelim := strings.ContainsRune(delimiterChars, r)
		if !first && isDelim != inDelim {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
		inDelim = isDelim
		first = false
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

func isSingleCharAlnum(chunk string) bool {
	if len(chunk) != 1 {
		return false
	}
	r := rune(chunk[0])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// mergeClassChange drops lone alphanumeric characters outright, then folds
// any chunk shorter than minLen into the following non-single-character
// chunk (absorbing whatever lies between them) until the floor is met;
// chunks that can never reach the floor are dropped.
func mergeClassChange(chunks []string, minLen int) []string {
	filtered := chunks[:0:0]
	for _, c := range chunks {
		if isSingleCharAlnum(c) {
			continue
		}
		filtered = append(filtered, c)
	}
	return mergeShortRuns(filtered, minLen)
}

// mergeDelimiter folds a chunk shorter than minLen into the next chunk,
// joining them with '_' (delimiter runs are absorbed as part of the next
// chunk's text since they were already split out as their own chunks).
func mergeDelimiter(chunks []string, minLen int) []string {
	var out []string
	i := 0
	for i < len(chunks) {
		c := chunks[i]
		if strings.Trim(c, delimiterChars) == "" {
			// Pure delimiter run: drop, it carries no token content.
			i++
			continue
		}
		if len(c) >= minLen {
			out = append(out, c)
			i++
			continue
		}
		merged := c
		j := i + 1
		for j < len(chunks) && len(merged) < minLen {
			next := chunks[j]
			if strings.Trim(next, delimiterChars) == "" {
				j++
				continue
			}
			merged = merged + "_" + next
			j++
			if len(merged) >= minLen {
				break
			}
		}
		if len(merged) >= minLen {
			out = append(out, merged)
			i = j
		} else {
			i = j
		}
	}
	return out
}

// mergeShortRuns folds a short chunk with the chunks that follow it
// (including delimiter-only spans) until it reaches minLen, dropping it if
// it never can.
func mergeShortRuns(chunks []string, minLen int) []string {
	var out []string
	i := 0
	for i < len(chunks) {
		c := chunks[i]
		if len(c) >= minLen {
			out = append(out, c)
			i++
			continue
		}
		merged := c
		j := i + 1
		for j < len(chunks) && len(merged) < minLen {
			merged += chunks[j]
			j++
		}
		if len(merged) >= minLen {
			out = append(out, merged)
			i = j
		} else {
			i++
		}
	}
	return out
}

// Tokenize segments text per method, lowercasing surviving tokens and
// tagging each with its position among the raw pre-merge chunks.
func Tokenize(text string, method Method, minTokenLen int) []Token {
	switch method {
	case Char:
		runes := []rune(text)
		tokens := make([]Token, 0, len(runes))
		for i, r := range runes {
			tokens = append(tokens, Token{Value: strings.ToLower(string(r)), Index: i})
		}
		return tokens
	case Delimiter:
		raw := splitDelimiter(text)
		merged := mergeDelimiter(raw, minTokenLen)
		return toTokens(raw, merged)
	default: // ClassChange
		raw := splitClassChange(text)
		merged := mergeClassChange(raw, minTokenLen)
		return toTokens(raw, merged)
	}
}

// toTokens maps each surviving (possibly merged) chunk back to the index of
// its first-contributing raw chunk, preserving source order for stable
// token_index semantics downstream.
func toTokens(raw, merged []string) []Token {
	tokens := make([]Token, 0, len(merged))
	rawIdx := 0
	for _, m := range merged {
		consumed := strings.ReplaceAll(m, "_", "")
		startIdx := rawIdx
		taken := 0
		for rawIdx < len(raw) && taken < len(consumed) {
			taken += len(raw[rawIdx])
			rawIdx++
		}
		tokens = append(tokens, Token{Value: strings.ToLower(m), Index: startIdx})
	}
	return tokens
}

// RowToken pairs a token with the index of the row it came from.
type RowToken struct {
	RowIndex int
	Token    Token
}

// IterTokens tokenizes every item and flattens the results into a single
// ordered slice of (row_index, token) pairs.
func IterTokens(items []string, method Method, minTokenLen int) []RowToken {
	var out []RowToken
	for idx, item := range items {
		for _, tok := range Tokenize(item, method, minTokenLen) {
			out = append(out, RowToken{RowIndex: idx, Token: tok})
		}
	}
	return out
}

// Tokenizer is a single-string tokenize function, bindable per field.
type Tokenizer func(text string) []Token

// MakeSplitTokenizer returns a Tokenizer bound to method and minTokenLen.
func MakeSplitTokenizer(method Method, minTokenLen int) Tokenizer {
	return func(text string) []Token {
		return Tokenize(text, method, minTokenLen)
	}
}

// FieldToken pairs a token with both its source row and the field name it
// was extracted from, for structured (multi-field) input.
type FieldToken struct {
	RowIndex int
	Token    Token
	Field    string
}

// IterStructuredTokensWithFields tokenizes rows of named fields using a
// per-field tokenizer, yielding (row_index, token, field_name) triples.
// fieldOrder controls which fields are visited and in what order; a field
// absent from fieldTokenizers is skipped.
func IterStructuredTokensWithFields(rows []map[string]string, fieldTokenizers map[string]Tokenizer, fieldOrder []string) []FieldToken {
	var out []FieldToken
	for idx, row := range rows {
		order := fieldOrder
		if order == nil {
			order = make([]string, 0, len(row))
			for name := range row {
				order = append(order, name)
			}
		}
		for _, name := range order {
			tok, ok := fieldTokenizers[name]
			if !ok {
				continue
			}
			for _, t := range tok(row[name]) {
				out = append(out, FieldToken{RowIndex: idx, Token: t, Field: name})
			}
		}
	}
	return out
}
