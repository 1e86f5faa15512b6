package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saxyguy81/patternforge/ioformat"
	"github.com/saxyguy81/patternforge/refine"
	"github.com/saxyguy81/patternforge/solve"
	"github.com/saxyguy81/patternforge/structured"
)

var proposeFlags struct {
	include string
	exclude string
	out     string

	mode        string
	invert      string
	splitMethod string
	minTokenLen int
	maxMulti    int
	maxCand     int

	maxPatterns string
	maxFP       string
	maxFN       string

	wFP, wFN, wAtom, wOp, wWildcard, wLength float64
	lengthReward                             bool
	allowComplex                              bool

	fieldWeights string

	structuredMode bool
	schemaFile     string
	delimiter      string
	fields         string
	effort         string

	noRefine bool
	noExpand bool
}

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Propose a solution covering --include while avoiding --exclude",
	RunE:  runPropose,
}

func init() {
	f := proposeCmd.Flags()
	f.StringVar(&proposeFlags.include, "include", "", "path to the include set (required)")
	f.StringVar(&proposeFlags.exclude, "exclude", "", "path to the exclude set")
	f.StringVar(&proposeFlags.out, "out", "-", "output path for the solution JSON (\"-\" for stdout)")

	f.StringVar(&proposeFlags.mode, "mode", "exact", "exact|approx")
	f.StringVar(&proposeFlags.invert, "invert", "never", "never|auto|always")
	f.StringVar(&proposeFlags.splitMethod, "split-method", "classchange", "classchange|delimiter|char")
	f.IntVar(&proposeFlags.minTokenLen, "min-token-len", 3, "minimum token length kept by the tokenizer")
	f.IntVar(&proposeFlags.maxMulti, "max-multi-segments", 3, "max token segments joined into a multi-wildcard candidate")
	f.IntVar(&proposeFlags.maxCand, "max-candidates", 4000, "cap on the generated candidate pool")

	f.StringVar(&proposeFlags.maxPatterns, "max-patterns", "", "pattern count budget (absolute, or N%% of |include|)")
	f.StringVar(&proposeFlags.maxFP, "max-fp", "", "false positive budget (absolute, or N%%)")
	f.StringVar(&proposeFlags.maxFN, "max-fn", "", "false negative budget (absolute, or N%%)")

	f.Float64Var(&proposeFlags.wFP, "w-fp", 0, "false-positive weight (0 keeps the default)")
	f.Float64Var(&proposeFlags.wFN, "w-fn", 0, "false-negative weight (0 keeps the default)")
	f.Float64Var(&proposeFlags.wAtom, "w-atom", 0, "per-pattern weight (0 keeps the default)")
	f.Float64Var(&proposeFlags.wOp, "w-op", 0, "per-boolean-op weight (0 keeps the default)")
	f.Float64Var(&proposeFlags.wWildcard, "w-wildcard", 0, "per-wildcard weight (0 keeps the default)")
	f.Float64Var(&proposeFlags.wLength, "w-length", 0, "per-character weight (0 keeps the default)")
	f.BoolVar(&proposeFlags.lengthReward, "length-reward", false, "flip --w-length's sign to reward longer, more specific patterns")
	f.BoolVar(&proposeFlags.allowComplex, "allow-complex-expressions", false, "record allow_complex_expressions in the solution's options (single-field terms stay single atoms)")

	f.StringVar(&proposeFlags.fieldWeights, "field-weights", "", "comma-separated field=weight pairs (e.g. host=2.0,zone=1.5)")

	f.BoolVar(&proposeFlags.structuredMode, "structured", false, "run the multi-field solver instead of the single-field one")
	f.StringVar(&proposeFlags.schemaFile, "schema", "", "path to a {name,delimiter,fields} schema file (YAML or JSON)")
	f.StringVar(&proposeFlags.delimiter, "delimiter", "", "inline schema delimiter (pairs with --fields)")
	f.StringVar(&proposeFlags.fields, "fields", "", "inline schema field names, comma separated")
	f.StringVar(&proposeFlags.effort, "effort", "medium", "low|medium|high|exhaustive (structured mode only)")

	f.BoolVar(&proposeFlags.noRefine, "no-refine", false, "skip the refinement post-pass")
	f.BoolVar(&proposeFlags.noExpand, "no-expand", false, "skip the expansion/honing post-pass")
}

func parseFieldWeights(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid field weight %q (want field=weight)", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", pair, err)
		}
		out[strings.TrimSpace(kv[0])] = w
	}
	return out, nil
}

func runPropose(cmd *cobra.Command, args []string) error {
	if proposeFlags.include == "" {
		return fmt.Errorf("--include is required")
	}

	items, err := ioformat.EnsureItems(proposeFlags.include, proposeFlags.exclude)
	if err != nil {
		return err
	}

	mode, err := parseMode(proposeFlags.mode)
	if err != nil {
		return err
	}
	invert, err := parseInvert(proposeFlags.invert)
	if err != nil {
		return err
	}
	splitMethod, err := parseSplitMethod(proposeFlags.splitMethod)
	if err != nil {
		return err
	}
	maxPatterns, err := parseLimit(proposeFlags.maxPatterns)
	if err != nil {
		return err
	}
	maxFP, err := parseLimit(proposeFlags.maxFP)
	if err != nil {
		return err
	}
	maxFN, err := parseLimit(proposeFlags.maxFN)
	if err != nil {
		return err
	}
	fieldWeights, err := parseFieldWeights(proposeFlags.fieldWeights)
	if err != nil {
		return err
	}
	weights := buildWeights(proposeFlags.wFP, proposeFlags.wFN, proposeFlags.wAtom,
		proposeFlags.wOp, proposeFlags.wWildcard, proposeFlags.wLength, proposeFlags.lengthReward)

	schema, structuredOK, err := resolveSchema(proposeFlags.schemaFile, proposeFlags.delimiter, proposeFlags.fields)
	if err != nil {
		return err
	}

	var sol solve.Solution
	if proposeFlags.structuredMode || structuredOK {
		if !structuredOK {
			return fmt.Errorf("--structured requires --schema or --delimiter/--fields")
		}
		effort, err := parseEffort(proposeFlags.effort)
		if err != nil {
			return err
		}
		includeRows := rowsFromSchema(items.Include, schema)
		excludeRows := rowsFromSchema(items.Exclude, schema)
		opts := structured.Options{
			Mode:         mode,
			Effort:       effort,
			Budgets:      solve.Budgets{MaxPatterns: maxPatterns, MaxFP: maxFP, MaxFN: maxFN},
			FieldWeights: fieldWeights,
			SplitMethod:  splitMethod,
			MinTokenLen:  proposeFlags.minTokenLen,
			Logger:       logger,
		}
		sol = structured.ProposeSolutionStructured(includeRows, excludeRows, schema.Fields, opts)
	} else {
		opts := solve.Options{
			Mode:                    mode,
			Invert:                  invert,
			Weights:                 weights,
			Budgets:                 solve.Budgets{MaxPatterns: maxPatterns, MaxFP: maxFP, MaxFN: maxFN},
			SplitMethod:             splitMethod,
			MinTokenLen:             proposeFlags.minTokenLen,
			MaxMultiSegments:        proposeFlags.maxMulti,
			AllowComplexExpressions: proposeFlags.allowComplex,
			FieldWeights:            fieldWeights,
			MaxCandidates:           proposeFlags.maxCand,
			Logger:                  logger,
		}
		sol = solve.ProposeSolution(items.Include, items.Exclude, opts)
	}

	if !proposeFlags.noRefine {
		sol = refine.Refine(sol, items.Include, items.Exclude)
	}
	if !proposeFlags.noExpand {
		sol = refine.Expand(sol, items.Include, items.Exclude)
	}

	return writeSolution(sol, proposeFlags.out)
}
