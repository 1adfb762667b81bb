package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgindex/pkg/imgindex/manifest"
	"imgindex/pkg/imgindex/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent index builds and purges",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum records to show (0 = all)")

	rootCmd.AddCommand(historyCmd)
}

// runHistory prints the operation manifest, newest first.
func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return err
	}

	records, err := m.List(historyLimit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, r := range records {
		line := fmt.Sprintf("%s  %-13s  images=%d errors=%d",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Operation, r.Summary.Images, r.Summary.Errors)
		if r.Operation == manifest.OpPurge {
			line += fmt.Sprintf(" deleted=%d freed=%s", r.Summary.Deleted, types.FormatSize(r.Summary.Bytes))
			if r.DryRun {
				line += " (dry run)"
			}
		}
		fmt.Println(line)
	}
	return nil
}
