package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fabrica-hq/vulcan/pkg/archive"
	"fabrica-hq/vulcan/pkg/archive/retention"
	"fabrica-hq/vulcan/pkg/cli"
)

var archiveFlags struct {
	partID string
	mode   string
	limit  int
	format string
	days   int
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse and prune archived reviews",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reviews",
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one archived review report",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

var archivePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived reviews past the retention window",
	RunE:  runArchivePrune,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd, archivePruneCmd)

	archiveListCmd.Flags().StringVar(&archiveFlags.partID, "part-id", "", "filter by part id")
	archiveListCmd.Flags().StringVar(&archiveFlags.mode, "mode", "", "filter by analysis mode")
	archiveListCmd.Flags().IntVar(&archiveFlags.limit, "limit", 20, "maximum records to list")
	archiveListCmd.Flags().StringVar(&archiveFlags.format, "format", "text", "output format: text, json")

	archiveShowCmd.Flags().StringVar(&archiveFlags.format, "format", "json", "output format: text, json")

	archivePruneCmd.Flags().IntVar(&archiveFlags.days, "days", 0, "retention window in days (uses config if not specified)")
}

// openArchiveStore opens the configured archive backend.
func openArchiveStore() (archive.Store, error) {
	if err := initializeConfig(); err != nil {
		return nil, err
	}
	cfg := loadedConfig()

	switch cfg.Archive.Backend {
	case "sqlite":
		return archive.NewSQLiteStore(&archive.SQLiteConfig{Path: cfg.Archive.SQLite.Path})
	case "memory":
		// A fresh memory store per invocation is only useful in tests,
		// but it keeps the CLI usable without a database.
		return archive.NewMemoryStore(), nil
	default:
		return nil, cli.NewConfigError("archive.backend",
			fmt.Sprintf("unknown backend %q", cfg.Archive.Backend))
	}
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(archiveFlags.format)
	if err != nil {
		return err
	}

	store, err := openArchiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), &archive.Query{
		PartID:       archiveFlags.partID,
		AnalysisMode: archiveFlags.mode,
		Limit:        archiveFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("archive list", err)
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), records)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no archived reviews")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  part=%s mode=%s findings=%d bundle=%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.PartID, r.AnalysisMode,
			r.FindingCount, r.BundleVersion)
	}
	return nil
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	store, err := openArchiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("archive show", err)
	}
	return cli.WriteJSON(cmd.OutOrStdout(), record)
}

func runArchivePrune(cmd *cobra.Command, args []string) error {
	store, err := openArchiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	days := archiveFlags.days
	if days == 0 {
		days = loadedConfig().Archive.Retention.Days
	}
	if days <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "retention disabled, nothing to prune")
		return nil
	}

	pruner := retention.NewPruner(store, retention.Config{RetentionDays: days})
	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("archive prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d archived reviews older than %d days\n", deleted, days)
	return nil
}
