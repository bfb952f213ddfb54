package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetadata_DimensionsWithoutExif(t *testing.T) {
	e := NewExifExtractor()

	meta := e.ExtractMetadata(encodePNG(t, 320, 240))

	assert.True(t, meta.HasDimensions)
	assert.Equal(t, 320, meta.Width)
	assert.Equal(t, 240, meta.Height)

	// PNGs carry no EXIF; absence is not an error
	assert.Nil(t, meta.Exif)
	assert.Nil(t, meta.TakenAt)
	assert.Nil(t, meta.Latitude)
	assert.Nil(t, meta.Longitude)
}

func TestExtractMetadata_UndecodableInput(t *testing.T) {
	e := NewExifExtractor()

	meta := e.ExtractMetadata([]byte("not an image at all"))

	assert.False(t, meta.HasDimensions)
	assert.Zero(t, meta.Width)
	assert.Zero(t, meta.Height)
	assert.Nil(t, meta.Exif)
}

func TestCleanExifString(t *testing.T) {
	assert.Equal(t, "Canon", cleanExifString(`"Canon"`))
	assert.Equal(t, "NIKON D850", cleanExifString("NIKON D850\x00\x00"))
	assert.Equal(t, "Sony", cleanExifString(`"Sony "`))
}
