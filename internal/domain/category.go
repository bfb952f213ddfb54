// Package domain contains core business types and interfaces.
//
// This file defines the Category entity and its admin validation rules.
package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// MaxLabelDescriptionLength bounds category and tag descriptions.
const MaxLabelDescriptionLength = 1000

// colorPattern matches a 6-hex-digit CSS color like "#10B981".
var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidColor reports whether s is a 6-hex-digit color with leading '#'.
// The value is stored exactly as supplied; case is never normalized.
func IsValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// Category is a named grouping of photos with display attributes.
type Category struct {
	ID           uuid.UUID
	Name         string // unique among non-deleted categories
	Slug         string
	Description  string
	Color        string // "#RRGGBB"
	Icon         string
	DisplayOrder int32
	IsActive     bool
	PhotosCount  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CategoryParams carries a create or update payload for a category.
type CategoryParams struct {
	Name         string
	Description  string
	Color        string
	Icon         string
	DisplayOrder int32
	IsActive     *bool // nil defaults to true on create, keeps current on update
}

// Validate checks the payload. Name uniqueness is enforced at the service
// layer against the catalog.
func (p CategoryParams) Validate(op string) error {
	var ve *ValidationError
	ve = validateLabel(ve, p.Name, p.Description, p.Color)
	if p.DisplayOrder < 0 {
		ve = ve.AddField("order", "Order must be a non-negative integer")
	}
	return ve.withOp(op).OrNil()
}

// validateLabel holds the rules shared by categories and tags.
func validateLabel(ve *ValidationError, name, description, color string) *ValidationError {
	if name == "" {
		ve = ve.AddField("name", "Name is required")
	} else if len(name) > MaxTitleLength {
		ve = ve.AddField("name", "Name must be at most 255 characters")
	}
	if len(description) > MaxLabelDescriptionLength {
		ve = ve.AddField("description", "Description must be at most 1000 characters")
	}
	if !IsValidColor(color) {
		ve = ve.AddField("color", "Color must be a hex value like #10B981")
	}
	return ve
}

// CategoryFilter parameterizes the category listing.
type CategoryFilter struct {
	Search  string
	Active  *bool
	Page    int
	PerPage int
}

// Normalize clamps pagination and fills defaults.
func (f *CategoryFilter) Normalize(defaultPerPage int) {
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
func (f *CategoryFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}
