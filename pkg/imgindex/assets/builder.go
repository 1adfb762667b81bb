// Package assets builds the game-asset image index. It scans a CDN
// directory tree for image files, extracts per-file metadata, and writes
// the image-index.json and image-search-index.json documents.
package assets

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"time"

	"github.com/samber/lo"

	"imgindex/pkg/imgindex/logging"
	"imgindex/pkg/imgindex/meta"
	"imgindex/pkg/imgindex/output"
	"imgindex/pkg/imgindex/scanner"
	"imgindex/pkg/imgindex/types"
)

// Options configures an asset index build.
type Options struct {
	// CDNDir is the root of the image tree to scan.
	CDNDir string

	// OutputDir is where the index documents are written.
	OutputDir string

	// IndexFilename is the primary index document name.
	IndexFilename string

	// SearchIndexFilename is the path-keyed companion document name.
	SearchIndexFilename string

	// Exclude lists directory names skipped during the scan.
	Exclude []string
}

// Result reports the outcome of one build.
type Result struct {
	// Index is the assembled document, nil when nothing was written.
	Index *types.AssetIndex

	// IndexPath is the path the primary document was written to.
	IndexPath string

	// Stats holds the operator-facing counters for this run.
	Stats types.BuildStats
}

// Builder runs the scan-extract-assemble pipeline for game assets.
type Builder struct {
	opts Options
}

// New creates a Builder with the given options.
func New(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build scans the CDN tree and writes both index documents. A missing scan
// root is fatal. An empty tree is not: the build succeeds with a warning
// and writes nothing, leaving any previous index untouched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	logger := logging.Get("assets")
	start := time.Now()

	scan, err := scanner.New(scanner.Options{
		Root:    b.opts.CDNDir,
		Exclude: b.opts.Exclude,
	}).Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		IndexPath: filepath.Join(b.opts.OutputDir, b.opts.IndexFilename),
	}
	result.Stats.Skipped = int(scan.FilesSkipped)
	result.Stats.Errored = len(scan.Errors)

	if len(scan.Files) == 0 {
		logger.Warn("no images found, index not written", "root", b.opts.CDNDir)
		result.Stats.Elapsed = time.Since(start)
		return result, nil
	}

	entries := make([]types.AssetEntry, 0, len(scan.Files))
	for _, file := range scan.Files {
		entries = append(entries, b.extract(file))
		logger.Debug("indexed", "path", file.RelPath)
	}

	// Stable output order keeps repeat runs byte-identical apart from
	// the generation timestamp.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	index := &types.AssetIndex{
		Version:     types.IndexVersion,
		Path:        types.NormalizePath(b.opts.CDNDir),
		TotalImages: len(entries),
		GeneratedAt: time.Now().UTC(),
		Images:      entries,
	}

	indexBytes, err := output.WriteJSON(result.IndexPath, index)
	if err != nil {
		return nil, err
	}

	searchPath := filepath.Join(b.opts.OutputDir, b.opts.SearchIndexFilename)
	if _, err := output.WriteJSON(searchPath, buildSearchIndex(index)); err != nil {
		return nil, err
	}

	result.Index = index
	result.Stats.Processed = len(entries)
	result.Stats.Categories = len(lo.UniqMap(entries, func(e types.AssetEntry, _ int) string {
		return e.Category
	}))
	result.Stats.OutputBytes = indexBytes
	result.Stats.Elapsed = time.Since(start)

	logger.Info("index written",
		"images", result.Stats.Processed,
		"categories", result.Stats.Categories,
		"path", result.IndexPath)

	return result, nil
}

// extract derives the index entry for one discovered file.
func (b *Builder) extract(file scanner.FileEntry) types.AssetEntry {
	category := meta.Category(file.RelPath)

	entry := types.AssetEntry{
		Path:         file.RelPath,
		Filename:     filepath.Base(file.Path),
		Category:     category,
		Filesize:     file.Size,
		Keywords:     meta.Keywords(file.RelPath, category),
		LastModified: file.ModTime,
	}

	dims, err := meta.ReadDimensions(file.Path)
	switch {
	case err == nil:
		entry.Dimensions = &dims
	case errors.Is(err, meta.ErrVectorFormat):
		// No dimension concept for vector images.
	default:
		logging.Get("assets").Warn("could not read dimensions", "path", file.RelPath, "error", err)
	}

	return entry
}

// buildSearchIndex re-keys the entry set by path for direct lookup.
func buildSearchIndex(index *types.AssetIndex) *types.AssetSearchIndex {
	return &types.AssetSearchIndex{
		Version:     index.Version,
		TotalImages: index.TotalImages,
		GeneratedAt: index.GeneratedAt,
		Images: lo.KeyBy(index.Images, func(e types.AssetEntry) string {
			return e.Path
		}),
	}
}
