package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vulcan",
	Short: "Vulcan - design-for-manufacturability review engine",
	Long: `Vulcan reviews mechanical part designs for manufacturability.

Given a rule bundle and a set of part facts it provides:
  - Heuristic manufacturing process recommendation
  - Deterministic DFM rule evaluation with findings and evidence gaps
  - Standards traceability for every cited reference
  - Rough-order-of-magnitude cost estimation with confidence scoring`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
