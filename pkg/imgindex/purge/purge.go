// Package purge deletes expired user-uploaded images based on the upload
// timestamps recorded in their metadata sidecars. Images lacking an upload
// date are retained and reported, never deleted. After a real run the
// user-content index is regenerated.
package purge

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"imgindex/pkg/imgindex/logging"
	"imgindex/pkg/imgindex/trash"
	"imgindex/pkg/imgindex/uploads"
)

// Action classifies one image during a purge run.
type Action string

const (
	// ActionDelete marks an image whose upload date is on or before the
	// cutoff.
	ActionDelete Action = "delete"
	// ActionKeep marks an image newer than the cutoff.
	ActionKeep Action = "keep"
	// ActionSkip marks an image with no parseable upload date. Skipped
	// images are retained regardless of age.
	ActionSkip Action = "skip"
)

// Candidate is the classification of one image.
type Candidate struct {
	// ID is the image identifier.
	ID string

	// Action is the classification outcome.
	Action Action

	// UploadDate is the raw sidecar timestamp, empty when absent.
	UploadDate string

	// Files are the paths removed as a unit: primary, webp variant, and
	// the sidecar itself.
	Files []string

	// Bytes is the total size of Files.
	Bytes int64
}

// Options configures a purge run.
type Options struct {
	// UploadsDir holds the image files and their metadata sidecars.
	UploadsDir string

	// IndexFilename names the index document regenerated after deletion.
	IndexFilename string

	// Cutoff is the inclusive deletion threshold. Images uploaded at or
	// before it are deleted. Use EndOfDay to widen a date to its last
	// instant.
	Cutoff time.Time

	// DryRun computes and reports the classification without deleting.
	DryRun bool

	// Permanent bypasses the system trash.
	Permanent bool
}

// Result reports the outcome of a purge run.
type Result struct {
	// Candidates is the classification of every discovered image.
	Candidates []Candidate

	// Deleted, Kept and Skipped count candidates per action.
	Deleted int
	Kept    int
	Skipped int

	// Errored counts sidecars that could not be parsed. They are never
	// deleted.
	Errored int

	// BytesFreed is the total size of deleted files (or of files that
	// would be deleted, on a dry run).
	BytesFreed int64
}

// EndOfDay widens a date to the last instant of that day, making the
// cutoff inclusive of everything uploaded on it.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Coordinator runs the purge workflow.
type Coordinator struct {
	opts Options
}

// New creates a Coordinator with the given options.
func New(opts Options) *Coordinator {
	return &Coordinator{opts: opts}
}

// Run classifies every image under the uploads directory and, unless this
// is a dry run, deletes the expired ones and regenerates the index. A
// missing uploads directory is fatal.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	logger := logging.Get("purge")

	info, err := os.Stat(c.opts.UploadsDir)
	if err != nil || !info.IsDir() {
		return nil, uploads.ErrRootMissing
	}

	sidecars, err := uploads.FindSidecars(c.opts.UploadsDir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, sidecarPath := range sidecars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidate, err := c.classify(sidecarPath)
		if err != nil {
			logger.Warn("unreadable sidecar, not touching its files",
				"sidecar", filepath.Base(sidecarPath), "error", err)
			result.Errored++
			continue
		}

		result.Candidates = append(result.Candidates, candidate)
		switch candidate.Action {
		case ActionDelete:
			result.Deleted++
			result.BytesFreed += candidate.Bytes
		case ActionKeep:
			result.Kept++
		case ActionSkip:
			result.Skipped++
			logger.Warn("no upload date, retained regardless of age", "id", candidate.ID)
		}
	}

	if c.opts.DryRun {
		logger.Info("dry run, nothing deleted",
			"would_delete", result.Deleted, "bytes", result.BytesFreed)
		return result, nil
	}

	for _, candidate := range result.Candidates {
		if candidate.Action != ActionDelete {
			continue
		}
		for _, file := range candidate.Files {
			if err := trash.Remove(file, c.opts.Permanent); err != nil {
				logger.Error("delete failed", "path", file, "error", err)
				continue
			}
			logger.Debug("deleted", "path", file)
		}
	}

	if result.Deleted > 0 {
		if _, err := uploads.New(uploads.Options{
			UploadsDir:    c.opts.UploadsDir,
			IndexFilename: c.opts.IndexFilename,
		}).Build(ctx); err != nil {
			return result, err
		}
		logger.Info("index regenerated after purge")
	}

	return result, nil
}

// classify decides the purge action for one sidecar and gathers the file
// unit that would be removed with it.
func (c *Coordinator) classify(sidecarPath string) (Candidate, error) {
	sc, err := uploads.LoadSidecar(sidecarPath)
	if err != nil {
		return Candidate{}, err
	}

	candidate := Candidate{
		ID:         uploads.IDFromSidecar(sidecarPath),
		UploadDate: sc.EffectiveUploadDate(),
	}

	if candidate.UploadDate == "" {
		candidate.Action = ActionSkip
		return candidate, nil
	}

	uploadedAt, err := uploads.ParseUploadDate(candidate.UploadDate)
	if err != nil {
		candidate.Action = ActionSkip
		return candidate, nil
	}

	if uploadedAt.After(c.opts.Cutoff) {
		candidate.Action = ActionKeep
		return candidate, nil
	}

	candidate.Action = ActionDelete
	primary, webp := uploads.LocateFiles(c.opts.UploadsDir, candidate.ID)
	for _, file := range []string{primary, webp, sidecarPath} {
		if file == "" {
			continue
		}
		if lo.Contains(candidate.Files, file) {
			continue
		}
		candidate.Files = append(candidate.Files, file)
		if info, err := os.Stat(file); err == nil {
			candidate.Bytes += info.Size()
		}
	}

	return candidate, nil
}
