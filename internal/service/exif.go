package service

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/fotoden/fotoden/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ImageMetadata is everything readable from an uploaded image without a
// full pixel decode: intrinsic dimensions plus camera metadata.
type ImageMetadata struct {
	// Width and Height are the intrinsic pixel dimensions.
	// HasDimensions is false when the header could not be decoded.
	Width         int
	Height        int
	HasDimensions bool

	// Exif holds camera metadata; nil when none was present.
	Exif *domain.ExifData

	// TakenAt is the capture timestamp from EXIF, nil when absent.
	TakenAt *time.Time

	// Latitude and Longitude are the GPS coordinates, nil when absent.
	Latitude  *float64
	Longitude *float64
}

// MetadataExtractor reads metadata from uploaded image bytes.
type MetadataExtractor interface {
	// ExtractMetadata inspects the image and returns whatever metadata it
	// could read. It never fails; undecodable input yields an empty result.
	ExtractMetadata(data []byte) ImageMetadata
}

// =============================================================================
// Implementation
// =============================================================================

// exifExtractor implements MetadataExtractor using the goexif library.
type exifExtractor struct{}

// NewExifExtractor creates a metadata extractor backed by goexif.
func NewExifExtractor() MetadataExtractor {
	return &exifExtractor{}
}

// ExtractMetadata reads intrinsic dimensions and EXIF tags.
//
// Both reads are independent and best-effort: a PNG without EXIF still
// yields dimensions, and a corrupt header still yields EXIF when the tags
// parse. Missing data is reported through zero values, never errors.
func (e *exifExtractor) ExtractMetadata(data []byte) ImageMetadata {
	var meta ImageMetadata

	// DecodeConfig reads only the header, not the pixel data
	if config, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = config.Width
		meta.Height = config.Height
		meta.HasDimensions = true
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil || x == nil {
		return meta
	}

	var ed domain.ExifData

	if tag, err := x.Get(exif.Make); err == nil {
		ed.Make = cleanExifString(tag.String())
	}
	if tag, err := x.Get(exif.Model); err == nil {
		ed.Model = cleanExifString(tag.String())
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if numer, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			ed.ExposureTime = fmt.Sprintf("%d/%d", numer, denom)
		}
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if numer, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			ed.FNumber = strconv.FormatFloat(float64(numer)/float64(denom), 'f', -1, 64)
		}
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			ed.ISO = iso
		}
	}
	if tag, err := x.Get(exif.FocalLength); err == nil {
		if numer, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			ed.FocalLength = strconv.FormatFloat(float64(numer)/float64(denom), 'f', -1, 64)
		}
	}

	// Capture time: prefer DateTimeOriginal, fall back to DateTime
	if t, err := x.DateTime(); err == nil {
		ed.DateTime = t.Format("2006:01:02 15:04:05")
		taken := t
		meta.TakenAt = &taken
	}

	if lat, lng, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lng
	}

	if !ed.IsZero() {
		meta.Exif = &ed
	}

	return meta
}

// cleanExifString strips the quotes goexif leaves on ASCII tag values and
// trims embedded NUL padding some cameras write.
func cleanExifString(s string) string {
	s = strings.Trim(s, `"`)
	return strings.TrimRight(strings.TrimSpace(s), "\x00")
}
