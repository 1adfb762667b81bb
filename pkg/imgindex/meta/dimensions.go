// Package meta extracts structural metadata from image files: pixel
// dimensions read from format headers, category derivation from paths, and
// search keywords derived from filenames.
package meta

import (
	"errors"
	"fmt"
	"image"
	"os"

	// Registered decoders for header-only dimension reads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"imgindex/pkg/imgindex/types"
)

// ErrVectorFormat indicates the file is a vector image with no pixel
// dimension concept.
var ErrVectorFormat = errors.New("vector formats have no pixel dimensions")

// ReadDimensions decodes just enough of the file's header to determine its
// pixel dimensions. Vector formats return ErrVectorFormat.
func ReadDimensions(path string) (types.Dimensions, error) {
	if types.IsVectorFormat(path) {
		return types.Dimensions{}, ErrVectorFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("decoding %q: %w", path, err)
	}

	return types.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
