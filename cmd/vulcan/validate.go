package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/cli"
)

var validateFlags struct {
	bundleDir string
	format    string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule bundle",
	Long: `Load a rule bundle and report every validation violation found.

Validation covers JSON syntax, schema constraints, cross-references
between tables (rules, packs, references, processes, overlays,
templates, cost model) and manifest count expectations. All violations
are collected and reported in one pass.

Examples:
  # Validate the bundle in ./bundle
  vulcan validate --bundle ./bundle

  # Machine-readable violation list
  vulcan validate --bundle ./bundle --format json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.bundleDir, "bundle", "", "bundle directory (uses config if not specified)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	dir, err := resolveBundleDir(validateFlags.bundleDir)
	if err != nil {
		return err
	}

	b, err := bundle.Load(dir)
	if err != nil {
		var vErr *bundle.ValidationError
		if errors.As(err, &vErr) {
			if format == cli.FormatJSON {
				if jsonErr := cli.WriteJSON(cmd.OutOrStdout(), vErr.Violations); jsonErr != nil {
					return jsonErr
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "bundle %s is INVALID (%d violations):\n", dir, len(vErr.Violations))
				for _, v := range vErr.Violations {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", v.Error())
				}
			}
			return cli.NewCommandError("validate", fmt.Errorf("%d violations", len(vErr.Violations)))
		}
		return cli.NewCommandError("validate", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bundle %s is valid (version %s, %d rules, %d packs, %d references)\n",
		dir, b.Manifest.BundleVersion, len(b.Rules), len(b.Packs), len(b.References))
	return nil
}

// resolveBundleDir prefers the flag, falling back to configuration.
func resolveBundleDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if err := initializeConfig(); err != nil {
		return "", err
	}
	return loadedConfig().Bundle.Dir, nil
}
