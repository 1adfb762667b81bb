package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"imgindex/pkg/imgindex/assets"
	"imgindex/pkg/imgindex/config"
	"imgindex/pkg/imgindex/manifest"
	"imgindex/pkg/imgindex/output"
	"imgindex/pkg/imgindex/watch"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Build the game-asset image index",
	Long: `Recursively scan the CDN directory for image files and write the
image-index.json and image-search-index.json documents.

An empty tree is not an error: the command exits 0 with a warning and
leaves any previous index untouched.`,
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().String("cdn-dir", "", "root of the image tree to scan")
	assetsCmd.Flags().String("output-dir", "", "directory for the generated index files")
	assetsCmd.Flags().Bool("watch", false, "rebuild whenever the tree changes")

	_ = viper.BindPFlag("cdn_dir", assetsCmd.Flags().Lookup("cdn-dir"))
	_ = viper.BindPFlag("output_dir", assetsCmd.Flags().Lookup("output-dir"))

	rootCmd.AddCommand(assetsCmd)
}

// runAssets is the assets command handler.
func runAssets(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	build := func(ctx context.Context) error {
		builder := assets.New(assets.Options{
			CDNDir:              cfg.CDNDir,
			OutputDir:           cfg.OutputDir,
			IndexFilename:       config.DefaultIndexFilename,
			SearchIndexFilename: config.DefaultSearchIndexFilename,
			Exclude:             cfg.Exclude,
		})

		result, err := builder.Build(ctx)
		if err != nil {
			return fmt.Errorf("asset index build failed: %w", err)
		}

		// An empty tree leaves the previous index untouched; the builder
		// already warned, so there is no summary to print.
		if result.Index == nil {
			return nil
		}

		fmt.Println(output.BuildSummary("Asset index", result.IndexPath, result.Stats))

		logRun(cfg, manifest.OpBuildAssets, false, manifest.Summary{
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
		return runWatch(ctx, cfg.CDNDir, cfg, build)
	}
	return nil
}

// runWatch runs a build loop until interrupted. The generated index files
// are ignored so rebuilds do not retrigger themselves.
func runWatch(ctx context.Context, root string, cfg *config.Config, build func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := watch.Run(ctx, watch.Options{
		Root:     root,
		Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
		IgnoreNames: []string{
			config.DefaultIndexFilename,
			config.DefaultSearchIndexFilename,
		},
		OnChange: build,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
