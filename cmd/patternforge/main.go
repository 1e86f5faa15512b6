// Package main implements the patternforge CLI: a cobra.Command tree over
// the propose/evaluate/explain/summarize core operations plus a
// dump-candidates debugging subcommand, per original_source's debug_*.py
// scripts.
//
// Commands are split one-per-file, mirroring codenerd's cmd/nerd layout
// (main.go holding rootCmd/global flags/init, one cmd_*.go per command
// group) rather than alex-vee-sh-kube-wild's single verb/resource main.go,
// since patternforge's surface is a handful of independent subcommands
// rather than one dispatch-by-verb loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saxyguy81/patternforge/internal/logging"
)

var (
	verbose bool
	logger  *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "patternforge",
	Short: "Derive compact glob expressions that separate an include set from an exclude set",
	Long: `patternforge proposes, refines, evaluates, and explains small glob
expressions over "*" wildcards that match an include set of strings while
avoiding an exclude set, under a cost budget on false positives/negatives,
pattern count, and pattern complexity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.NewCLILogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		proposeCmd,
		evaluateCmd,
		explainCmd,
		summarizeCmd,
		dumpCandidatesCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
