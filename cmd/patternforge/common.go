package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saxyguy81/patternforge/ioformat"
	"github.com/saxyguy81/patternforge/solve"
	"github.com/saxyguy81/patternforge/structured"
	"github.com/saxyguy81/patternforge/tokenize"
)

// parseLimit turns a budget flag value into a solve.Limit. "" means
// unlimited, a trailing "%" means a fraction of the include set, anything
// else parses as an absolute count.
func parseLimit(s string) (solve.Limit, error) {
	if s == "" {
		return solve.NoLimit(), nil
	}
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return solve.Limit{}, fmt.Errorf("invalid percentage budget %q: %w", s, err)
		}
		return solve.Fraction(f / 100), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return solve.Limit{}, fmt.Errorf("invalid budget %q: %w", s, err)
	}
	return solve.Absolute(n), nil
}

func parseMode(s string) (solve.Mode, error) {
	switch strings.ToLower(s) {
	case "", "exact":
		return solve.Exact, nil
	case "approx":
		return solve.Approx, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want exact|approx)", s)
	}
}

func parseInvert(s string) (solve.InvertStrategy, error) {
	switch strings.ToLower(s) {
	case "", "never":
		return solve.InvertNever, nil
	case "auto":
		return solve.InvertAuto, nil
	case "always":
		return solve.InvertAlways, nil
	default:
		return "", fmt.Errorf("unknown invert strategy %q (want never|auto|always)", s)
	}
}

func parseSplitMethod(s string) (tokenize.Method, error) {
	switch strings.ToLower(s) {
	case "", "classchange":
		return tokenize.ClassChange, nil
	case "delimiter":
		return tokenize.Delimiter, nil
	case "char":
		return tokenize.Char, nil
	default:
		return "", fmt.Errorf("unknown split method %q (want classchange|delimiter|char)", s)
	}
}

func parseEffort(s string) (structured.Effort, error) {
	switch strings.ToLower(s) {
	case "", "medium":
		return structured.Medium, nil
	case "low":
		return structured.Low, nil
	case "high":
		return structured.High, nil
	case "exhaustive":
		return structured.Exhaustive, nil
	default:
		return "", fmt.Errorf("unknown effort %q (want low|medium|high|exhaustive)", s)
	}
}

// buildWeights applies individual weight flags over solve.DefaultWeights,
// a zero flag value meaning "keep the default" for that term.
func buildWeights(fp, fn, atomW, op, wc, length float64, lengthReward bool) solve.Weights {
	w := solve.DefaultWeights()
	if fp != 0 {
		w.FP = fp
	}
	if fn != 0 {
		w.FN = fn
	}
	if atomW != 0 {
		w.Atom = atomW
	}
	if op != 0 {
		w.Op = op
	}
	if wc != 0 {
		w.Wildcard = wc
	}
	if length != 0 {
		w.Length = length
	}
	if lengthReward {
		w = solve.WithLengthReward(w)
	}
	return w
}

// resolveSchema prefers an explicit schema file over inline --delimiter/
// --fields flags; ok is false when the run is unstructured.
func resolveSchema(schemaPath, delimiter, fieldsCSV string) (ioformat.Schema, bool, error) {
	if schemaPath != "" {
		s, err := ioformat.LoadSchema(schemaPath)
		if err != nil {
			return ioformat.Schema{}, false, err
		}
		return s, true, nil
	}
	return ioformat.SchemaFromFlags(delimiter, fieldsCSV)
}

// rowsFromSchema converts ioformat's map[string]string rows into the
// structured.Row type ProposeSolutionStructured expects; ioformat itself
// stays free of a structured import (see DESIGN.md's ioformat entry).
func rowsFromSchema(items []string, schema ioformat.Schema) []structured.Row {
	raw := ioformat.RowsFromSchema(items, schema)
	rows := make([]structured.Row, len(raw))
	for i, m := range raw {
		rows[i] = structured.Row(m)
	}
	return rows
}

func writeSolution(sol solve.Solution, out string) error {
	return ioformat.WriteJSON(sol, out)
}

func loadSolution(path string) (solve.Solution, error) {
	var sol solve.Solution
	if err := ioformat.LoadJSON(path, &sol); err != nil {
		return solve.Solution{}, err
	}
	return sol, nil
}
