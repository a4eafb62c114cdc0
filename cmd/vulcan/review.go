package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fabrica-hq/vulcan/pkg/archive"
	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/cli"
	"fabrica-hq/vulcan/pkg/costing"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/review"
	"fabrica-hq/vulcan/pkg/telemetry/tracing"
)

var reviewFlags struct {
	bundleDir string
	factsFile string

	roleID     string
	templateID string
	process    string
	overlayID  string
	runBoth    bool
	mode       string

	quantity     int
	materialKey  string
	supplierFile string
	skipCosting  bool

	partID      string
	saveArchive bool
	format      string
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a full manufacturability review",
	Long: `Run the complete review pipeline: process recommendation, execution
planning, rule evaluation and cost estimation.

A user process override that disagrees with the recommendation triggers
the bundle's mismatch policy; with --run-both both routes are evaluated
and their estimates compared.

Examples:
  # Standard review
  vulcan review --bundle ./bundle --facts part.json \
      --role design_engineer --template standard_report

  # Pin the process and evaluate both routes on mismatch
  vulcan review --bundle ./bundle --facts part.json \
      --role design_engineer --template standard_report \
      --process cnc_milling --run-both

  # Drawing and specification checks only
  vulcan review --bundle ./bundle --facts part.json \
      --role design_engineer --template standard_report \
      --mode drawing_spec`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewFlags.bundleDir, "bundle", "", "bundle directory (uses config if not specified)")
	reviewCmd.Flags().StringVar(&reviewFlags.factsFile, "facts", "", "part facts JSON file (required)")
	reviewCmd.Flags().StringVar(&reviewFlags.roleID, "role", "", "reviewer role id (uses config default if not specified)")
	reviewCmd.Flags().StringVar(&reviewFlags.templateID, "template", "", "report template id (uses config default if not specified)")
	reviewCmd.Flags().StringVar(&reviewFlags.process, "process", "", "pin the manufacturing process instead of recommending")
	reviewCmd.Flags().StringVar(&reviewFlags.overlayID, "overlay", "", "overlay id to apply")
	reviewCmd.Flags().BoolVar(&reviewFlags.runBoth, "run-both", false, "evaluate both routes when override and recommendation disagree")
	reviewCmd.Flags().StringVar(&reviewFlags.mode, "mode", "", "analysis mode: full, geometry_dfm, drawing_spec")
	reviewCmd.Flags().IntVar(&reviewFlags.quantity, "quantity", 0, "production quantity override")
	reviewCmd.Flags().StringVar(&reviewFlags.materialKey, "material", "", "material catalog key override")
	reviewCmd.Flags().StringVar(&reviewFlags.supplierFile, "supplier", "", "supplier profile JSON file")
	reviewCmd.Flags().BoolVar(&reviewFlags.skipCosting, "skip-costing", false, "evaluate rules without cost estimation")
	reviewCmd.Flags().StringVar(&reviewFlags.partID, "part-id", "", "part identifier used when archiving")
	reviewCmd.Flags().BoolVar(&reviewFlags.saveArchive, "archive", false, "archive the report per the configured backend")
	reviewCmd.Flags().StringVar(&reviewFlags.format, "format", "json", "output format: text, json")
	reviewCmd.MarkFlagRequired("facts")
}

func runReview(cmd *cobra.Command, args []string) error {
	if err := initializeConfig(); err != nil {
		return err
	}
	format, err := cli.ParseFormat(reviewFlags.format)
	if err != nil {
		return err
	}

	dir, err := resolveBundleDir(reviewFlags.bundleDir)
	if err != nil {
		return err
	}
	b, err := bundle.Load(dir)
	if err != nil {
		return cli.NewCommandError("review", err)
	}

	snapshot, err := facts.LoadFile(reviewFlags.factsFile)
	if err != nil {
		return cli.NewCommandError("review", err)
	}

	req, err := buildReviewRequest()
	if err != nil {
		return err
	}

	var opts []review.Option
	cfg := loadedConfig()
	if cfg.Telemetry.Tracing.Enabled {
		tracer, err := tracing.New(cmd.Context(), tracing.Config{
			Enabled:     true,
			Endpoint:    cfg.Telemetry.Tracing.Endpoint,
			ServiceName: cfg.Telemetry.Tracing.ServiceName,
			SampleRate:  cfg.Telemetry.Tracing.SampleRate,
		})
		if err != nil {
			return cli.NewCommandError("review", err)
		}
		defer tracer.Shutdown(context.Background())
		opts = append(opts, review.WithTracer(tracer))
	}

	reviewer := review.New(b, slog.Default(), opts...)
	report, err := reviewer.Review(cmd.Context(), snapshot, req)
	if err != nil {
		return cli.NewCommandError("review", err)
	}

	if reviewFlags.saveArchive {
		if err := archiveReport(cmd.Context(), report); err != nil {
			return cli.NewCommandError("review", err)
		}
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), report)
	}
	printReportSummary(cmd, report)
	return nil
}

func buildReviewRequest() (review.Request, error) {
	cfg := loadedConfig()

	req := review.Request{
		RoleID:            reviewFlags.roleID,
		TemplateID:        reviewFlags.templateID,
		ProcessOverride:   reviewFlags.process,
		OverlayID:         reviewFlags.overlayID,
		RunBothIfMismatch: reviewFlags.runBoth || cfg.Review.RunBothIfMismatch,
		AnalysisMode:      reviewFlags.mode,
		SkipCosting:       reviewFlags.skipCosting,
	}
	if req.RoleID == "" {
		req.RoleID = cfg.Review.DefaultRoleID
	}
	if req.TemplateID == "" {
		req.TemplateID = cfg.Review.DefaultTemplateID
	}
	if req.AnalysisMode == "" {
		req.AnalysisMode = cfg.Review.AnalysisMode
	}

	ctx := make(map[string]any)
	if reviewFlags.quantity > 0 {
		ctx["quantity"] = reviewFlags.quantity
	}
	if reviewFlags.materialKey != "" {
		ctx["material_key"] = reviewFlags.materialKey
	}
	if len(ctx) > 0 {
		req.ComponentContext = ctx
	}

	if reviewFlags.supplierFile != "" {
		data, err := os.ReadFile(reviewFlags.supplierFile)
		if err != nil {
			return req, cli.NewCommandError("review", fmt.Errorf("reading supplier profile: %w", err))
		}
		var profile costing.SupplierProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			return req, cli.NewCommandError("review", fmt.Errorf("parsing supplier profile: %w", err))
		}
		req.SupplierProfile = &profile
	}
	return req, nil
}

func archiveReport(ctx context.Context, report *review.Report) error {
	store, err := openArchiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record := archive.NewRecord(reviewFlags.partID, report)
	if err := store.Save(ctx, record); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "archived review %s\n", record.ID)
	return nil
}

func printReportSummary(cmd *cobra.Command, report *review.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "bundle %s, mode %s\n", report.BundleVersion, report.AnalysisMode)
	fmt.Fprintf(out, "recommended process: %s (score %.2f, confidence %s)\n",
		report.Recommendation.ProcessID, report.Recommendation.Score, report.Recommendation.Level)
	if report.MismatchBanner != "" {
		fmt.Fprintf(out, "NOTE: %s\n", report.MismatchBanner)
	}

	for _, route := range report.Evaluation.Routes {
		fmt.Fprintf(out, "\nroute %s (%s, process %s): %d findings (%d violations, %d evidence gaps)\n",
			route.PlanID, route.RouteSource, route.ProcessID,
			route.Counts.Total, route.Counts.Violations, route.Counts.EvidenceGaps)
		for _, f := range route.Findings {
			fmt.Fprintf(out, "  [%s] %s (%s): %s\n", f.Severity, f.RuleID, f.FindingType, f.Evidence)
		}
	}

	for _, est := range report.Estimates {
		fmt.Fprintf(out, "\nestimate for %s (%s): %.2f %s/unit (range %.2f-%.2f, confidence %s)\n",
			est.PlanID, est.ProcessID, est.UnitCost, est.Currency,
			est.CostRange.Low, est.CostRange.High, est.Confidence.Level)
	}
	if report.Comparison != nil {
		fmt.Fprintf(out, "\ncheaper plan: %s (%+.1f%% delta)\n",
			report.Comparison.CheaperPlanID, report.Comparison.PercentDelta)
	}
}
