package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"imgindex/pkg/imgindex/config"
	"imgindex/pkg/imgindex/manifest"
	"imgindex/pkg/imgindex/output"
	"imgindex/pkg/imgindex/purge"
)

var (
	purgeCutoff    string
	purgeDryRun    bool
	purgePermanent bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired user-uploaded images",
	Long: `Delete every user upload whose sidecar upload date falls on or before
the cutoff date (inclusive, end of day). The primary file, the webp
variant, and the metadata sidecar are removed as a unit, and the
user-content index is regenerated afterwards.

Images without an upload date are retained regardless of age and
reported in the summary. Use --dry-run to preview.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeCutoff, "cutoff", "", "inclusive cutoff date, YYYY-MM-DD (required)")
	purgeCmd.Flags().BoolVarP(&purgeDryRun, "dry-run", "d", false, "classify and report without deleting")
	purgeCmd.Flags().BoolVar(&purgePermanent, "permanent", false, "bypass the system trash")
	_ = purgeCmd.MarkFlagRequired("cutoff")

	rootCmd.AddCommand(purgeCmd)
}

// runPurge is the purge command handler.
func runPurge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cutoffDay, err := time.Parse("2006-01-02", purgeCutoff)
	if err != nil {
		return fmt.Errorf("invalid cutoff date %q, expected YYYY-MM-DD: %w", purgeCutoff, err)
	}

	coordinator := purge.New(purge.Options{
		UploadsDir:    cfg.UploadsDir,
		IndexFilename: config.DefaultIndexFilename,
		Cutoff:        purge.EndOfDay(cutoffDay),
		DryRun:        purgeDryRun,
		Permanent:     purgePermanent,
	})

	result, err := coordinator.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	fmt.Println(output.PurgeSummary(purgeDryRun,
		result.Deleted, result.Kept, result.Skipped, result.BytesFreed))

	logRun(cfg, manifest.OpPurge, purgeDryRun, manifest.Summary{
		Images:  len(result.Candidates),
		Errors:  result.Errored,
		Bytes:   result.BytesFreed,
		Deleted: result.Deleted,
	})
	return nil
}
