// Package uploads builds the user-content image index from metadata
// sidecar files, and exposes the sidecar schema shared with the purge
// coordinator.
package uploads

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"imgindex/pkg/imgindex/types"
)

// SidecarSuffix is the naming convention for metadata sidecar files:
// an image with ID "abc123" has a sidecar named "abc123-metadata.json".
const SidecarSuffix = "-metadata.json"

// Sidecar is the metadata document stored alongside each uploaded image.
// All fields are optional in the JSON; missing values fall back to the
// defaults documented per field. Unknown fields are ignored.
type Sidecar struct {
	// Filename is the original upload filename. Defaults to the ID.
	Filename string `json:"filename"`

	// Name is the display name. Defaults to Filename without extension.
	Name string `json:"name"`

	// Description is free-form user text. Defaults to empty.
	Description string `json:"description"`

	// Category groups the image. Defaults to "uncategorized".
	Category string `json:"category"`

	// Tags are user-supplied search tokens. Defaults to empty.
	Tags []string `json:"tags"`

	// Dimensions are the pixel dimensions recorded at upload time. When
	// absent the builder lazily decodes whichever file exists on disk.
	Dimensions *types.Dimensions `json:"dimensions"`

	// UploadedBy identifies the uploading user. Defaults to empty.
	UploadedBy string `json:"uploadedBy"`

	// UploadDate is the upload timestamp. UploadedAt is accepted as an
	// alias; when both are present UploadDate wins. An image lacking both
	// is indexed but never eligible for purging.
	UploadDate string `json:"uploadDate"`
	UploadedAt string `json:"uploadedAt"`
}

// EffectiveUploadDate returns the upload timestamp string, preferring
// uploadDate over uploadedAt. Empty when the sidecar carries neither.
func (s *Sidecar) EffectiveUploadDate() string {
	if s.UploadDate != "" {
		return s.UploadDate
	}
	return s.UploadedAt
}

// uploadDateLayouts are the accepted timestamp formats, tried in order.
var uploadDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseUploadDate parses a sidecar timestamp string.
func ParseUploadDate(s string) (time.Time, error) {
	for _, layout := range uploadDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized upload date %q", s)
}

// IsSidecar reports whether the path follows the sidecar naming convention.
func IsSidecar(path string) bool {
	return strings.HasSuffix(filepath.Base(path), SidecarSuffix)
}

// IDFromSidecar derives the image ID from a sidecar path.
func IDFromSidecar(path string) string {
	return strings.TrimSuffix(filepath.Base(path), SidecarSuffix)
}

// LoadSidecar reads and parses one sidecar file. Malformed JSON is
// rejected here, the single validation point for sidecar data.
func LoadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %q: %w", path, err)
	}

	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("malformed sidecar %q: %w", path, err)
	}
	return &sc, nil
}

// FindSidecars returns all sidecar files directly under dir, in
// lexical order.
func FindSidecars(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+SidecarSuffix))
	if err != nil {
		return nil, fmt.Errorf("globbing sidecars in %q: %w", dir, err)
	}
	return matches, nil
}

// LocateFiles finds the primary image file and the optional webp variant
// for an ID. Non-webp extensions are tried in allow-list order; when none
// match, the webp variant itself is promoted to primary. Both results are
// empty when no file exists for the ID.
func LocateFiles(dir, id string) (primary, webp string) {
	for _, ext := range types.ImageExtensions {
		if ext == ".webp" {
			continue
		}
		candidate := filepath.Join(dir, id+ext)
		if fileExists(candidate) {
			primary = candidate
			break
		}
	}

	webpCandidate := filepath.Join(dir, id+".webp")
	if fileExists(webpCandidate) {
		webp = webpCandidate
		if primary == "" {
			primary = webpCandidate
		}
	}

	return primary, webp
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
