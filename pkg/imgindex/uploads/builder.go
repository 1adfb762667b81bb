package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"imgindex/pkg/imgindex/logging"
	"imgindex/pkg/imgindex/meta"
	"imgindex/pkg/imgindex/output"
	"imgindex/pkg/imgindex/types"
)

// ErrRootMissing indicates the uploads directory does not exist.
var ErrRootMissing = errors.New("uploads directory missing or not a directory")

// Options configures a user-content index build.
type Options struct {
	// UploadsDir holds the image files and their metadata sidecars.
	UploadsDir string

	// IndexFilename is the index document name, written into UploadsDir.
	IndexFilename string
}

// Result reports the outcome of one build.
type Result struct {
	// Index is the assembled document. Always non-nil on success; an
	// empty uploads directory still produces a well-formed empty index.
	Index *types.UploadIndex

	// IndexPath is the path the document was written to.
	IndexPath string

	// Stats holds the operator-facing counters for this run.
	Stats types.BuildStats
}

// Builder assembles the user-content index from metadata sidecars.
type Builder struct {
	opts Options
}

// New creates a Builder with the given options.
func New(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build reads every sidecar under the uploads directory and writes the
// index document. Entries are ordered newest-first by upload date, with
// input order preserved between equal dates.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	logger := logging.Get("uploads")
	start := time.Now()

	info, err := os.Stat(b.opts.UploadsDir)
	if err != nil || !info.IsDir() {
		return nil, ErrRootMissing
	}

	sidecars, err := FindSidecars(b.opts.UploadsDir)
	if err != nil {
		return nil, err
	}

	result := &Result{
		IndexPath: filepath.Join(b.opts.UploadsDir, b.opts.IndexFilename),
	}

	entries := make([]types.UploadEntry, 0, len(sidecars))
	for _, sidecarPath := range sidecars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, err := b.extract(sidecarPath)
		if err != nil {
			logger.Warn("skipping entry", "sidecar", filepath.Base(sidecarPath), "error", err)
			result.Stats.Errored++
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		logger.Warn("no uploads found, writing empty index", "dir", b.opts.UploadsDir)
	}

	sortByUploadDate(entries)

	index := &types.UploadIndex{
		Version:       types.IndexVersion,
		TotalImages:   len(entries),
		GeneratedDate: time.Now().UTC(),
		Images:        entries,
		ByCategory:    groupByCategory(entries),
	}

	indexBytes, err := output.WriteJSON(result.IndexPath, index)
	if err != nil {
		return nil, err
	}

	result.Index = index
	result.Stats.Processed = len(entries)
	result.Stats.Categories = len(index.ByCategory)
	result.Stats.OutputBytes = indexBytes
	result.Stats.Elapsed = time.Since(start)

	logger.Info("index written",
		"images", result.Stats.Processed,
		"categories", result.Stats.Categories,
		"path", result.IndexPath)

	return result, nil
}

// extract assembles one entry from a sidecar and the files next to it.
func (b *Builder) extract(sidecarPath string) (types.UploadEntry, error) {
	logger := logging.Get("uploads")

	sc, err := LoadSidecar(sidecarPath)
	if err != nil {
		return types.UploadEntry{}, err
	}

	id := IDFromSidecar(sidecarPath)

	entry := types.UploadEntry{
		ID:          id,
		Filename:    sc.Filename,
		Name:        sc.Name,
		Description: sc.Description,
		Category:    sc.Category,
		Tags:        sc.Tags,
		UploadedBy:  sc.UploadedBy,
		UploadDate:  sc.EffectiveUploadDate(),
	}
	if entry.Filename == "" {
		entry.Filename = id
	}
	if entry.Name == "" {
		entry.Name = strings.TrimSuffix(entry.Filename, filepath.Ext(entry.Filename))
	}
	if entry.Category == "" {
		entry.Category = types.DefaultCategory
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	primary, webp := LocateFiles(b.opts.UploadsDir, id)
	if primary != "" {
		rel := types.NormalizePath(filepath.Base(primary))
		entry.Path = &rel
		entry.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(primary)), ".")
		if info, err := os.Stat(primary); err == nil {
			entry.Filesize = info.Size()
		}
	}
	if webp != "" {
		rel := types.NormalizePath(filepath.Base(webp))
		entry.WebpPath = &rel
	}

	switch {
	case sc.Dimensions != nil:
		entry.Dimensions = *sc.Dimensions
	case primary != "":
		dims, err := meta.ReadDimensions(primary)
		if err != nil {
			// Zeroed dimensions rather than a failed entry.
			logger.Warn("could not read dimensions", "id", id, "error", err)
		}
		entry.Dimensions = dims
	default:
		logger.Warn("no image file found for sidecar", "id", id)
	}

	return entry, nil
}

// sortByUploadDate orders entries newest-first. The sort is stable so
// entries with equal or unparseable dates keep their input order.
func sortByUploadDate(entries []types.UploadEntry) {
	type keyed struct {
		entry types.UploadEntry
		when  time.Time
	}

	keyedEntries := make([]keyed, len(entries))
	for i, e := range entries {
		k := keyed{entry: e}
		if e.UploadDate != "" {
			if t, err := ParseUploadDate(e.UploadDate); err == nil {
				k.when = t
			}
		}
		keyedEntries[i] = k
	}

	sort.SliceStable(keyedEntries, func(i, j int) bool {
		return keyedEntries[i].when.After(keyedEntries[j].when)
	})

	for i, k := range keyedEntries {
		entries[i] = k.entry
	}
}

// groupByCategory builds the category buckets by walking the entries in
// their final sorted order, creating each bucket on first occurrence.
func groupByCategory(entries []types.UploadEntry) map[string][]string {
	buckets := make(map[string][]string)
	for _, e := range entries {
		buckets[e.Category] = append(buckets[e.Category], e.ID)
	}
	return buckets
}
