package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saxyguy81/patternforge/eval"
	"github.com/saxyguy81/patternforge/ioformat"
)

var evaluateFlags struct {
	solution string
	expr     string
	include  string
	exclude  string
	out      string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a boolean atom expression against an include/exclude corpus",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.solution, "solution", "", "path to a solution JSON (required; supplies the atom patterns)")
	f.StringVar(&evaluateFlags.expr, "expr", "", "expression to evaluate (defaults to the solution's own expr)")
	f.StringVar(&evaluateFlags.include, "include", "", "path to the include set (required)")
	f.StringVar(&evaluateFlags.exclude, "exclude", "", "path to the exclude set")
	f.StringVar(&evaluateFlags.out, "out", "-", "output path for the result JSON (\"-\" for stdout)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluateFlags.solution == "" {
		return fmt.Errorf("--solution is required")
	}
	if evaluateFlags.include == "" {
		return fmt.Errorf("--include is required")
	}

	sol, err := loadSolution(evaluateFlags.solution)
	if err != nil {
		return err
	}
	items, err := ioformat.EnsureItems(evaluateFlags.include, evaluateFlags.exclude)
	if err != nil {
		return err
	}

	expr := evaluateFlags.expr
	if expr == "" {
		expr = sol.Expr
	}

	ids := make([]string, len(sol.Atoms))
	patterns := make([]string, len(sol.Atoms))
	for i, a := range sol.Atoms {
		ids[i] = a.ID
		patterns[i] = a.Text
	}
	atoms := eval.AtomsFromSolutionAtoms(ids, patterns)

	result, err := eval.EvaluateExpr(expr, atoms, items.Include, items.Exclude)
	if err != nil {
		return err
	}
	return ioformat.WriteJSON(result, evaluateFlags.out)
}
