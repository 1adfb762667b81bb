// Package manifest records each index build and purge run to the
// filesystem so operators can review recent operations.
package manifest

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpBuildAssets represents a game-asset index build.
	OpBuildAssets OperationType = "build-assets"
	// OpBuildUploads represents a user-content index build.
	OpBuildUploads OperationType = "build-uploads"
	// OpPurge represents an image purge.
	OpPurge OperationType = "purge"
)

// Record represents a single completed run.
type Record struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
	DryRun    bool          `json:"dry_run,omitempty"`
	Summary   Summary       `json:"summary"`
}

// Summary contains the run's aggregate counters.
type Summary struct {
	Images  int   `json:"images"`
	Errors  int   `json:"errors"`
	Bytes   int64 `json:"bytes"`
	Deleted int   `json:"deleted,omitempty"`
}
