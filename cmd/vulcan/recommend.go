package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/cli"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/recommend"
)

var recommendFlags struct {
	bundleDir string
	factsFile string
	format    string
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a manufacturing process for a part",
	Long: `Score every process family in the bundle against the part facts
and print the ranked recommendation.

Examples:
  # Recommend a process for part.json
  vulcan recommend --bundle ./bundle --facts part.json

  # Full ranking as JSON
  vulcan recommend --bundle ./bundle --facts part.json --format json`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendFlags.bundleDir, "bundle", "", "bundle directory (uses config if not specified)")
	recommendCmd.Flags().StringVar(&recommendFlags.factsFile, "facts", "", "part facts JSON file (required)")
	recommendCmd.Flags().StringVar(&recommendFlags.format, "format", "text", "output format: text, json")
	recommendCmd.MarkFlagRequired("facts")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(recommendFlags.format)
	if err != nil {
		return err
	}

	dir, err := resolveBundleDir(recommendFlags.bundleDir)
	if err != nil {
		return err
	}
	b, err := bundle.Load(dir)
	if err != nil {
		return cli.NewCommandError("recommend", err)
	}

	snapshot, err := facts.LoadFile(recommendFlags.factsFile)
	if err != nil {
		return cli.NewCommandError("recommend", err)
	}

	rec, err := recommend.New(b, slog.Default()).Recommend(snapshot)
	if err != nil {
		return cli.NewCommandError("recommend", err)
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), rec)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recommended process: %s (score %.2f, confidence %s)\n",
		rec.ProcessID, rec.Score, rec.Level)
	for _, reason := range rec.Reasons {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", reason)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ranking:")
	for i, ps := range rec.Ranking {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d. %-20s %.2f\n", i+1, ps.ProcessID, ps.Score)
	}
	return nil
}
