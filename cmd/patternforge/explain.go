package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saxyguy81/patternforge/explain"
	"github.com/saxyguy81/patternforge/ioformat"
)

var explainFlags struct {
	solution  string
	include   string
	exclude   string
	format    string
	out       string
	byField   bool
	schema    string
	delimiter string
	fields    string
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain a solution's coverage: per-pattern stats, terms, and witnesses",
	RunE:  runExplain,
}

var summarizeFlags struct {
	solution string
	out      string
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print a one-paragraph summary of a solution",
	RunE:  runSummarize,
}

func init() {
	f := explainCmd.Flags()
	f.StringVar(&explainFlags.solution, "solution", "", "path to a solution JSON (required)")
	f.StringVar(&explainFlags.include, "include", "", "path to the include set")
	f.StringVar(&explainFlags.exclude, "exclude", "", "path to the exclude set")
	f.StringVar(&explainFlags.format, "format", "dict", "dict|text|simple")
	f.StringVar(&explainFlags.out, "out", "-", "output path (\"-\" for stdout)")
	f.BoolVar(&explainFlags.byField, "by-field", false, "attribute each atom to its best-matching field (needs --schema or --delimiter/--fields)")
	f.StringVar(&explainFlags.schema, "schema", "", "path to a {name,delimiter,fields} schema file")
	f.StringVar(&explainFlags.delimiter, "delimiter", "", "inline schema delimiter (pairs with --fields)")
	f.StringVar(&explainFlags.fields, "fields", "", "inline schema field names, comma separated")

	sf := summarizeCmd.Flags()
	sf.StringVar(&summarizeFlags.solution, "solution", "", "path to a solution JSON (required)")
	sf.StringVar(&summarizeFlags.out, "out", "-", "output path (\"-\" for stdout)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	if explainFlags.solution == "" {
		return fmt.Errorf("--solution is required")
	}
	sol, err := loadSolution(explainFlags.solution)
	if err != nil {
		return err
	}

	if explainFlags.byField {
		schema, ok, err := resolveSchema(explainFlags.schema, explainFlags.delimiter, explainFlags.fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("--by-field requires --schema or --delimiter/--fields")
		}
		if explainFlags.include == "" {
			return fmt.Errorf("--include is required for --by-field")
		}
		items, err := ioformat.EnsureItems(explainFlags.include, explainFlags.exclude)
		if err != nil {
			return err
		}
		rows := ioformat.RowsFromSchema(items.Include, schema)
		result := explain.ByField(sol, rows, schema.Fields)
		return ioformat.WriteJSON(result, explainFlags.out)
	}

	if explainFlags.format == "simple" {
		return ioformat.WriteText(explain.Simple(sol), explainFlags.out)
	}

	if explainFlags.include == "" {
		return fmt.Errorf("--include is required for --format=%s", explainFlags.format)
	}
	items, err := ioformat.EnsureItems(explainFlags.include, explainFlags.exclude)
	if err != nil {
		return err
	}

	switch explainFlags.format {
	case "text":
		return ioformat.WriteText(explain.Text(sol, items.Include, items.Exclude), explainFlags.out)
	case "dict", "":
		return ioformat.WriteJSON(explain.Dict(sol, items.Include, items.Exclude), explainFlags.out)
	default:
		return fmt.Errorf("unknown format %q (want dict|text|simple)", explainFlags.format)
	}
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summarizeFlags.solution == "" {
		return fmt.Errorf("--solution is required")
	}
	sol, err := loadSolution(summarizeFlags.solution)
	if err != nil {
		return err
	}
	return ioformat.WriteText(explain.SummarizeText(sol), summarizeFlags.out)
}
