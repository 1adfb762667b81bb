package output

import (
	"fmt"
	"strings"
	"time"

	"imgindex/pkg/imgindex/types"
)

// BuildSummary renders the end-of-run report for an index build.
func BuildSummary(title, indexPath string, stats types.BuildStats) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	writeField(&b, "Indexed", SuccessStyle.Render(fmt.Sprintf("%d", stats.Processed)))
	if stats.Skipped > 0 {
		writeField(&b, "Skipped", fmt.Sprintf("%d", stats.Skipped))
	}
	if stats.Errored > 0 {
		writeField(&b, "Errors", DangerStyle.Render(fmt.Sprintf("%d", stats.Errored)))
	}
	writeField(&b, "Categories", fmt.Sprintf("%d", stats.Categories))
	writeField(&b, "Output", fmt.Sprintf("%s (%s)", indexPath, types.FormatSize(stats.OutputBytes)))
	writeField(&b, "Elapsed", stats.Elapsed.Round(time.Millisecond).String())

	return b.String()
}

// PurgeSummary renders the end-of-run report for a purge.
func PurgeSummary(dryRun bool, deleted, kept, skipped int, bytesFreed int64) string {
	var b strings.Builder

	title := "Purge complete"
	if dryRun {
		title = "Purge preview (dry run)"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	deleteLabel := "Deleted"
	if dryRun {
		deleteLabel = "Would delete"
	}
	writeField(&b, deleteLabel, DangerStyle.Render(fmt.Sprintf("%d", deleted)))
	writeField(&b, "Kept", SuccessStyle.Render(fmt.Sprintf("%d", kept)))
	if skipped > 0 {
		writeField(&b, "No upload date", WarningStyle.Render(fmt.Sprintf("%d (retained)", skipped)))
	}
	writeField(&b, "Bytes freed", types.FormatSize(bytesFreed))

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render(label+":"), value))
}
