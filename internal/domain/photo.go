// Package domain contains core business types and interfaces.
//
// This file defines the Photo entity, upload parameters and the gallery
// filter criteria.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Upload Constants
// =============================================================================

// SupportedImageTypes maps accepted MIME types to their display names.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
	"image/webp": "WebP",
}

const (
	// MaxPhotoSize is the maximum allowed upload size (10 MiB).
	MaxPhotoSize = 10 * 1024 * 1024

	// MaxTitleLength bounds photo titles.
	MaxTitleLength = 255

	// MaxDescriptionLength bounds photo descriptions.
	MaxDescriptionLength = 5000

	// MaxAltTextLength bounds alt text.
	MaxAltTextLength = 255
)

const (
	// DefaultThumbnailWidth is the fixed target width for thumbnails.
	// Height is computed to preserve aspect ratio.
	DefaultThumbnailWidth = 400

	// DefaultThumbnailQuality is the JPEG quality for thumbnail encoding.
	DefaultThumbnailQuality = 85
)

// =============================================================================
// EXIF Metadata
// =============================================================================

// ExifData holds the camera metadata extracted from an uploaded image.
// All fields are best-effort; absent values are empty/zero.
type ExifData struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	ExposureTime string `json:"exposureTime,omitempty"`
	FNumber      string `json:"fNumber,omitempty"`
	ISO          int    `json:"iso,omitempty"`
	DateTime     string `json:"dateTime,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
}

// IsZero reports whether no metadata was extracted at all.
func (e ExifData) IsZero() bool {
	return e == ExifData{}
}

// =============================================================================
// Photo Entity
// =============================================================================

// Photo represents one uploaded image in the catalog.
type Photo struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	CategoryID       *uuid.UUID
	Title            string
	Slug             string // unique, immutable after creation
	Description      string
	FilePath         string // storage key of the original
	ThumbnailPath    string // storage key of the thumbnail; empty when generation failed
	OriginalFilename string
	MimeType         string
	FileSize         int64
	Width            int32 // 0 when the image could not be decoded
	Height           int32
	Exif             *ExifData
	AltText          string
	CameraMake       string
	CameraModel      string
	Lens             string
	FocalLength      string
	Aperture         string
	ShutterSpeed     string
	ISO              int32
	TakenAt          *time.Time
	Latitude         *float64
	Longitude        *float64
	IsPublic         bool
	IsFeatured       bool
	ViewsCount       int32
	DownloadsCount   int32
	LikesCount       int32
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Computed fields, populated by services from the storage backend.
	FileURL      string
	ThumbnailURL string
	OwnerName    string
	Category     *Category
	Tags         []Tag
}

// ViewableBy reports whether the given viewer may see this photo.
// Anonymous viewers pass uuid.Nil.
func (p *Photo) ViewableBy(viewerID uuid.UUID) bool {
	return p.IsPublic || (viewerID != uuid.Nil && p.UserID == viewerID)
}

// OwnedBy reports whether the given user owns this photo.
func (p *Photo) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.UserID == userID
}

// SizeMB returns the file size in megabytes.
func (p *Photo) SizeMB() float64 {
	return float64(p.FileSize) / (1024 * 1024)
}

// =============================================================================
// Upload / Update Parameters
// =============================================================================

// UploadPhotoParams carries the metadata payload accompanying an upload.
// File content and detected MIME type are validated separately.
type UploadPhotoParams struct {
	Title       string
	Description string
	CategoryID  *uuid.UUID
	TagIDs      []uuid.UUID
	AltText     string
	IsPublic    *bool // nil defaults to true
	IsFeatured  *bool // nil defaults to false
}

// UpdatePhotoParams carries an edit to an existing photo. The slug, file and
// derived metadata are immutable.
type UpdatePhotoParams struct {
	Title       string
	Description string
	CategoryID  *uuid.UUID
	TagIDs      []uuid.UUID // nil leaves tags untouched; empty slice clears them
	AltText     string
	IsPublic    *bool // nil keeps the current value
	IsFeatured  *bool
}

// Validate checks the metadata payload. File checks live in ValidatePhotoFile.
func (p UploadPhotoParams) Validate(op string) error {
	var ve *ValidationError
	ve = validatePhotoText(ve, p.Title, p.Description, p.AltText)
	return ve.withOp(op).OrNil()
}

// Validate checks an update payload.
func (p UpdatePhotoParams) Validate(op string) error {
	var ve *ValidationError
	ve = validatePhotoText(ve, p.Title, p.Description, p.AltText)
	return ve.withOp(op).OrNil()
}

func validatePhotoText(ve *ValidationError, title, description, altText string) *ValidationError {
	if title == "" {
		ve = ve.AddField("title", "Title is required")
	} else if len(title) > MaxTitleLength {
		ve = ve.AddField("title", "Title must be at most 255 characters")
	}
	if len(description) > MaxDescriptionLength {
		ve = ve.AddField("description", "Description must be at most 5000 characters")
	}
	if len(altText) > MaxAltTextLength {
		ve = ve.AddField("alt_text", "Alt text must be at most 255 characters")
	}
	return ve
}

func (e *ValidationError) withOp(op string) *ValidationError {
	if e != nil && e.Op == "" {
		e.Op = op
	}
	return e
}

// IsSupportedImageType checks the detected MIME type against the accepted set.
func IsSupportedImageType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidatePhotoFile checks the uploaded file's detected MIME type and size.
func ValidatePhotoFile(op, contentType string, size int64) error {
	if size == 0 {
		return NewValidationError(op, "file", "A photo file is required")
	}
	if !IsSupportedImageType(contentType) {
		return NewValidationError(op, "file",
			"Unsupported image type "+contentType+". Accepted types: JPEG, PNG, GIF, WebP")
	}
	if size > MaxPhotoSize {
		return &Error{
			Code:    ETOOLARGE,
			Op:      op,
			Message: "Photo exceeds the maximum size of 10 MiB",
		}
	}
	return nil
}

// =============================================================================
// Filter / Sort Criteria
// =============================================================================

// SortKey identifies a gallery ordering.
type SortKey string

const (
	SortLatest     SortKey = "latest"
	SortOldest     SortKey = "oldest"
	SortMostViewed SortKey = "most_viewed"
	SortMostLiked  SortKey = "most_liked"
	SortTitle      SortKey = "title"
)

// ParseSortKey maps a query parameter to a sort key, defaulting to latest.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortMostViewed, SortMostLiked, SortTitle:
		return SortKey(s)
	default:
		return SortLatest
	}
}

// PhotoFilter parameterizes a gallery listing. Zero values mean "no filter".
type PhotoFilter struct {
	ViewerID     uuid.UUID // uuid.Nil for anonymous requests
	Search       string
	CategoryID   *uuid.UUID
	TagID        *uuid.UUID
	FeaturedOnly bool
	Sort         SortKey
	Page         int
	PerPage      int
}

// Normalize clamps pagination and fills defaults.
func (f *PhotoFilter) Normalize(defaultPerPage int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Sort == "" {
		f.Sort = SortLatest
	}
}

// Offset returns the row offset for the current page.
func (f *PhotoFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// =============================================================================
// Gallery Statistics
// =============================================================================

// GalleryStats are the aggregate counters shown on the gallery index.
type GalleryStats struct {
	TotalPhotos     int64 `json:"total_photos"`
	TotalCategories int64 `json:"total_categories"`
	TotalTags       int64 `json:"total_tags"`
	TotalViews      int64 `json:"total_views"`
	TotalDownloads  int64 `json:"total_downloads"`
}
