package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saxyguy81/patternforge/candidates"
	"github.com/saxyguy81/patternforge/ioformat"
)

var dumpCandidatesFlags struct {
	include     string
	exclude     string
	out         string
	splitMethod string
	minTokenLen int
	maxMulti    int
	maxCand     int
}

// dumpedCandidate is the JSON shape printed per candidate: the debugging
// view original_source's debug_splitmethod.py and debug_exact_mode.py print
// before greedy selection ever runs.
type dumpedCandidate struct {
	Pattern   string  `json:"pattern"`
	Kind      string  `json:"kind"`
	Score     float64 `json:"score"`
	Wildcards int     `json:"wildcards"`
	Length    int     `json:"length"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
}

var dumpCandidatesCmd = &cobra.Command{
	Use:   "dump-candidates",
	Short: "Print the full scored candidate pool before greedy selection runs",
	RunE:  runDumpCandidates,
}

func init() {
	f := dumpCandidatesCmd.Flags()
	f.StringVar(&dumpCandidatesFlags.include, "include", "", "path to the include set (required)")
	f.StringVar(&dumpCandidatesFlags.exclude, "exclude", "", "path to the exclude set")
	f.StringVar(&dumpCandidatesFlags.out, "out", "-", "output path for the candidate list JSON (\"-\" for stdout)")
	f.StringVar(&dumpCandidatesFlags.splitMethod, "split-method", "classchange", "classchange|delimiter|char")
	f.IntVar(&dumpCandidatesFlags.minTokenLen, "min-token-len", 3, "minimum token length kept by the tokenizer")
	f.IntVar(&dumpCandidatesFlags.maxMulti, "max-multi-segments", 3, "max token segments joined into a multi-wildcard candidate")
	f.IntVar(&dumpCandidatesFlags.maxCand, "max-candidates", 4000, "cap on the generated candidate pool")
}

func runDumpCandidates(cmd *cobra.Command, args []string) error {
	if dumpCandidatesFlags.include == "" {
		return fmt.Errorf("--include is required")
	}

	items, err := ioformat.EnsureItems(dumpCandidatesFlags.include, dumpCandidatesFlags.exclude)
	if err != nil {
		return err
	}

	splitMethod, err := parseSplitMethod(dumpCandidatesFlags.splitMethod)
	if err != nil {
		return err
	}

	rows := make([]candidates.Row, len(items.Include))
	for i, text := range items.Include {
		rows[i] = candidates.Row{Text: text}
	}

	cands := candidates.Generate(rows, candidates.Options{
		Method:          splitMethod,
		MinTokenLen:     dumpCandidatesFlags.minTokenLen,
		MaxMultiSegment: dumpCandidatesFlags.maxMulti,
		MaxCandidates:   dumpCandidatesFlags.maxCand,
	})

	includeValue := func(rowIndex int, field string) string { return strings.ToLower(items.Include[rowIndex]) }
	excludeValue := func(rowIndex int, field string) string { return strings.ToLower(items.Exclude[rowIndex]) }
	candidates.ComputeBitsets(cands, len(items.Include), len(items.Exclude), includeValue, excludeValue)

	dumped := make([]dumpedCandidate, len(cands))
	for i, c := range cands {
		dumped[i] = dumpedCandidate{
			Pattern:   c.Pattern,
			Kind:      string(c.Kind),
			Score:     c.Score,
			Wildcards: c.Wildcards,
			Length:    c.Length,
			TP:        c.Include.Count(),
			FP:        c.Exclude.Count(),
		}
	}

	return ioformat.WriteJSON(dumped, dumpCandidatesFlags.out)
}
