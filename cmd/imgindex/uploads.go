package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"imgindex/pkg/imgindex/config"
	"imgindex/pkg/imgindex/manifest"
	"imgindex/pkg/imgindex/output"
	"imgindex/pkg/imgindex/uploads"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Build the user-content image index",
	Long: `Read every metadata sidecar under the uploads directory and write the
image-index.json document, ordered newest-first by upload date with
per-category ID buckets.

An empty uploads directory still produces a well-formed empty index.`,
	RunE: runUploads,
}

func init() {
	uploadsCmd.Flags().Bool("watch", false, "rebuild whenever the tree changes")

	rootCmd.AddCommand(uploadsCmd)
}

// runUploads is the uploads command handler.
func runUploads(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	build := func(ctx context.Context) error {
		builder := uploads.New(uploads.Options{
			UploadsDir:    cfg.UploadsDir,
			IndexFilename: config.DefaultIndexFilename,
		})

		result, err := builder.Build(ctx)
		if err != nil {
			return fmt.Errorf("upload index build failed: %w", err)
		}

		fmt.Println(output.BuildSummary("Upload index", result.IndexPath, result.Stats))

		logRun(cfg, manifest.OpBuildUploads, false, manifest.Summary{
			Images: result.Stats.Processed,
			Errors: result.Stats.Errored,
			Bytes:  result.Stats.OutputBytes,
		})
		return nil
	}

	ctx := cmd.Context()
	if err := build(ctx); err != nil {
		return err
	}

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return runWatch(ctx, cfg.UploadsDir, cfg, build)
	}
	return nil
}
