// Package types provides core data types for the imgindex CDN tooling.
// It includes the image entry and index document structures shared by the
// asset and upload builders, along with the image extension allow-list.
package types

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// IndexVersion is the schema version stamped on every generated index.
const IndexVersion = "1.0"

// DefaultCategory is assigned to images that sit directly under the scan
// root with no grouping directory.
const DefaultCategory = "uncategorized"

// ImageExtensions is the allow-list of indexable image file extensions.
// Extensions include the leading dot and are matched case-insensitively.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg"}

// IsImageFile reports whether the path has an allowed image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// IsVectorFormat reports whether the path is a vector image, which has no
// pixel dimension concept.
func IsVectorFormat(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".svg")
}

// Dimensions holds pixel dimensions of a raster image.
type Dimensions struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// AssetEntry describes one image discovered by the game-asset builder.
type AssetEntry struct {
	// Path is the root-relative, forward-slash-normalized path.
	// It is unique within a single run.
	Path string `json:"path"`

	// Filename is the base name of the file.
	Filename string `json:"filename"`

	// Category is the first path segment under the scan root.
	Category string `json:"category"`

	// Filesize is the file size in bytes.
	Filesize int64 `json:"filesize"`

	// Keywords are lowercase search tokens derived from the filename,
	// category, and path segments.
	Keywords []string `json:"keywords"`

	// LastModified is the file's modification time.
	LastModified time.Time `json:"lastModified"`

	// Dimensions holds pixel dimensions. Nil for vector formats and for
	// files whose headers could not be decoded.
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// AssetIndex is the game-asset index document written to image-index.json.
type AssetIndex struct {
	Version     string       `json:"version"`
	Path        string       `json:"path"`
	TotalImages int          `json:"totalImages"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Images      []AssetEntry `json:"images"`
}

// AssetSearchIndex is the lookup-oriented companion document written to
// image-search-index.json. It carries the same entry set keyed by path.
type AssetSearchIndex struct {
	Version     string                `json:"version"`
	TotalImages int                   `json:"totalImages"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Images      map[string]AssetEntry `json:"images"`
}

// UploadEntry describes one user-uploaded image, assembled from its
// metadata sidecar and the files found next to it.
type UploadEntry struct {
	// ID is derived from the sidecar filename and is unique per entry.
	ID string `json:"id"`

	// Filename is the original upload filename recorded in the sidecar.
	Filename string `json:"filename"`

	// Name is the user-facing display name.
	Name string `json:"name"`

	// Description is free-form user text.
	Description string `json:"description"`

	// Path points at the primary image file. Nil when no file exists on
	// disk for this entry.
	Path *string `json:"path"`

	// WebpPath points at the converted webp variant when one exists.
	WebpPath *string `json:"webpPath,omitempty"`

	// Category is the coarse grouping key from the sidecar.
	Category string `json:"category"`

	// Tags are user-supplied search tokens.
	Tags []string `json:"tags"`

	// Dimensions holds pixel dimensions. Zeroed when no file could be
	// decoded.
	Dimensions Dimensions `json:"dimensions"`

	// Filesize is the primary file size in bytes, 0 when the file is
	// missing.
	Filesize int64 `json:"filesize"`

	// UploadedBy identifies the uploading user.
	UploadedBy string `json:"uploadedBy"`

	// UploadDate is the upload timestamp as recorded in the sidecar.
	UploadDate string `json:"uploadDate"`

	// Format is the primary file's format, e.g. "png".
	Format string `json:"format"`
}

// UploadIndex is the user-content index document written to image-index.json.
type UploadIndex struct {
	Version       string        `json:"version"`
	TotalImages   int           `json:"totalImages"`
	GeneratedDate time.Time     `json:"generatedDate"`
	Images        []UploadEntry `json:"images"`

	// ByCategory maps each category to the IDs of its images, in the same
	// newest-first order as Images.
	ByCategory map[string][]string `json:"byCategory"`
}

// BuildStats aggregates per-run counters reported to the operator.
// Per-item failures are surfaced here and never embedded in the index.
type BuildStats struct {
	// Processed is the number of entries written to the index.
	Processed int `json:"processed"`

	// Skipped is the number of files or sidecars ignored on purpose.
	Skipped int `json:"skipped"`

	// Errored is the number of files or sidecars that failed extraction.
	Errored int `json:"errored"`

	// Categories is the number of distinct categories seen.
	Categories int `json:"categories"`

	// OutputBytes is the size of the serialized index document.
	OutputBytes int64 `json:"output_bytes"`

	// Elapsed is the total build duration.
	Elapsed time.Duration `json:"elapsed"`
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// NormalizePath converts a filesystem path to the forward-slash form used
// in index documents.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}
