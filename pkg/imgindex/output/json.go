// Package output handles serialization of index documents and rendering of
// operator-facing summaries.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON serializes v as pretty-printed JSON to path, creating the
// destination directory first. The write is atomic: data goes to a temp
// file which is renamed over the destination, so an interrupted run leaves
// any previous document intact.
func WriteJSON(path string, v interface{}) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal document: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Cleanup temp file on rename failure
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return int64(len(data)), nil
}
