// Package patternforge re-exports the library entry points spec.md §6
// names — ProposeSolution, ProposeSolutionStructured, EvaluateExpr, and the
// Solution/Atom/Term value types — so a consumer that only wants the
// public surface can depend on this one package instead of reaching into
// solve/structured/eval directly.
package patternforge

import (
	"github.com/saxyguy81/patternforge/eval"
	"github.com/saxyguy81/patternforge/solve"
	"github.com/saxyguy81/patternforge/structured"
)

// Solution, Atom, Term, Metrics, and Witnesses are aliases of solve's types
// (the structured solver assembles into the same shape), so callers never
// need to import solve themselves for the result type alone.
type (
	Solution  = solve.Solution
	Atom      = solve.Atom
	Term      = solve.Term
	Metrics   = solve.Metrics
	Witnesses = solve.Witnesses
)

// Options is solve's single-field option set.
type Options = solve.Options

// StructuredOptions is structured's multi-field option set.
type StructuredOptions = structured.Options

// Row is a structured-solver input record.
type Row = structured.Row

// ProposeSolution derives a Solution covering include while avoiding
// exclude, per spec.md §6 entry point 1.
func ProposeSolution(include, exclude []string, opts Options) Solution {
	return solve.ProposeSolution(include, exclude, opts)
}

// ProposeSolutionStructured derives a multi-field Solution, per spec.md §6
// entry point 2.
func ProposeSolutionStructured(includeRows, excludeRows []Row, fieldOrder []string, opts StructuredOptions) Solution {
	return structured.ProposeSolutionStructured(includeRows, excludeRows, fieldOrder, opts)
}

// EvaluateExpr evaluates a boolean atom expression against a corpus, per
// spec.md §6 entry point 3.
func EvaluateExpr(expr string, atoms map[string]string, include, exclude []string) (eval.Result, error) {
	return eval.EvaluateExpr(expr, atoms, include, exclude)
}
