package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a free-form label attached to photos (many-to-many).
// It shares the color-coding and uniqueness conventions of Category.
type Tag struct {
	ID          uuid.UUID
	Name        string // unique among non-deleted tags
	Slug        string
	Description string
	Color       string // "#RRGGBB"
	PhotosCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TagParams carries a create or update payload for a tag.
type TagParams struct {
	Name        string
	Description string
	Color       string
}

// Validate checks the payload. Name uniqueness is enforced at the service
// layer against the catalog.
func (p TagParams) Validate(op string) error {
	var ve *ValidationError
	ve = validateLabel(ve, p.Name, p.Description, p.Color)
	return ve.withOp(op).OrNil()
}

// TagFilter parameterizes the tag listing.
type TagFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Normalize clamps pagination and fills defaults.
func (f *TagFilter) Normalize(defaultPerPage int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
}

// Offset returns the row offset for the current page.
func (f *TagFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}
