// Package service contains business logic for the Fotoden application.
//
// This file implements thumbnail generation for uploaded photos.
package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Register the webp decoder so image.Decode handles all supported
	// upload formats; jpeg, png and gif come with the imaging import.
	_ "golang.org/x/image/webp"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ThumbnailProcessor handles thumbnail generation from uploaded images.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a thumbnail from the provided image data.
	// Returns the thumbnail bytes (as JPEG), original width, and original
	// height. The thumbnail is resized to the configured width with height
	// scaled proportionally.
	GenerateThumbnail(data io.Reader) ([]byte, int, int, error)
}

// =============================================================================
// Implementation
// =============================================================================

// imagingProcessor implements ThumbnailProcessor using the imaging library.
type imagingProcessor struct {
	width   int
	quality int
}

// NewImagingProcessor creates a thumbnail processor producing JPEGs of the
// given width at the given quality.
func NewImagingProcessor(width, quality int) ThumbnailProcessor {
	return &imagingProcessor{width: width, quality: quality}
}

// GenerateThumbnail creates a thumbnail from the provided image data.
//
// The image is resized to the configured width with the height computed
// from the original aspect ratio. The output is always JPEG regardless of
// the source format.
func (p *imagingProcessor) GenerateThumbnail(data io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	// Height 0 preserves the aspect ratio
	thumbnail := imaging.Resize(img, p.width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), originalWidth, originalHeight, nil
}
