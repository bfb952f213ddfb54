package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// =============================================================================
// Response Shapes
// =============================================================================

// The domain types carry no serialization concerns, so each API resource
// has an explicit JSON shape here. Fields that are empty for a given photo
// (no category, no EXIF, failed thumbnail) are omitted rather than nulled.

type photoJSON struct {
	ID               uuid.UUID        `json:"id"`
	Slug             string           `json:"slug"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	AltText          string           `json:"alt_text"`
	OriginalFilename string           `json:"original_filename"`
	MimeType         string           `json:"mime_type"`
	FileSize         int64            `json:"file_size"`
	Width            int32            `json:"width,omitempty"`
	Height           int32            `json:"height,omitempty"`
	FileURL          string           `json:"file_url,omitempty"`
	ThumbnailURL     string           `json:"thumbnail_url,omitempty"`
	Exif             *domain.ExifData `json:"exif,omitempty"`
	TakenAt          *time.Time       `json:"taken_at,omitempty"`
	Latitude         *float64         `json:"latitude,omitempty"`
	Longitude        *float64         `json:"longitude,omitempty"`
	IsPublic         bool             `json:"is_public"`
	IsFeatured       bool             `json:"is_featured"`
	ViewsCount       int32            `json:"views_count"`
	DownloadsCount   int32            `json:"downloads_count"`
	LikesCount       int32            `json:"likes_count"`
	OwnerName        string           `json:"owner_name,omitempty"`
	Category         *categoryJSON    `json:"category,omitempty"`
	Tags             []tagJSON        `json:"tags"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type categoryJSON struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Color        string    `json:"color"`
	Icon         string    `json:"icon,omitempty"`
	DisplayOrder int32     `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	PhotosCount  int64     `json:"photos_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type tagJSON struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	PhotosCount int64     `json:"photos_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type userJSON struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// pageJSON mirrors domain.Page with navigation metadata spelled out.
type pageJSON[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
}

type galleryJSON struct {
	Photos  pageJSON[photoJSON] `json:"photos"`
	Filters galleryFilterJSON   `json:"filters"`
	Stats   domain.GalleryStats `json:"stats"`
}

// galleryFilterJSON echoes the applied filters back so clients can render
// the active filter state without re-parsing their own query string.
type galleryFilterJSON struct {
	Search     string     `json:"search,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	TagID      *uuid.UUID `json:"tag_id,omitempty"`
	Featured   bool       `json:"featured,omitempty"`
	Sort       string     `json:"sort"`
}

type photoDetailJSON struct {
	Photo   photoJSON   `json:"photo"`
	Related []photoJSON `json:"related"`
}

type categoryDetailJSON struct {
	Category categoryJSON        `json:"category"`
	Photos   pageJSON[photoJSON] `json:"photos"`
}

type tagDetailJSON struct {
	Tag    tagJSON             `json:"tag"`
	Photos pageJSON[photoJSON] `json:"photos"`
}

// =============================================================================
// Converters
// =============================================================================

func renderPhoto(p *domain.Photo) photoJSON {
	out := photoJSON{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title,
		Description:      p.Description,
		AltText:          p.AltText,
		OriginalFilename: p.OriginalFilename,
		MimeType:         p.MimeType,
		FileSize:         p.FileSize,
		Width:            p.Width,
		Height:           p.Height,
		FileURL:          p.FileURL,
		ThumbnailURL:     p.ThumbnailURL,
		Exif:             p.Exif,
		TakenAt:          p.TakenAt,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		IsPublic:         p.IsPublic,
		IsFeatured:       p.IsFeatured,
		ViewsCount:       p.ViewsCount,
		DownloadsCount:   p.DownloadsCount,
		LikesCount:       p.LikesCount,
		OwnerName:        p.OwnerName,
		Tags:             make([]tagJSON, 0, len(p.Tags)),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Category != nil {
		c := renderCategory(p.Category)
		out.Category = &c
	}
	for i := range p.Tags {
		out.Tags = append(out.Tags, renderTag(&p.Tags[i]))
	}
	return out
}

func renderPhotos(photos []*domain.Photo) []photoJSON {
	out := make([]photoJSON, 0, len(photos))
	for _, p := range photos {
		out = append(out, renderPhoto(p))
	}
	return out
}

func renderCategory(c *domain.Category) categoryJSON {
	return categoryJSON{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		Color:        c.Color,
		Icon:         c.Icon,
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
		PhotosCount:  c.PhotosCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func renderTag(t *domain.Tag) tagJSON {
	return tagJSON{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Color:       t.Color,
		PhotosCount: t.PhotosCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func renderUser(u *domain.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func renderPage[D any, S any](p *domain.Page[S], convert func(S) D) pageJSON[D] {
	out := pageJSON[D]{
		Data:        make([]D, 0, len(p.Items)),
		Total:       p.TotalCount,
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		LastPage:    p.LastPage(),
	}
	for _, item := range p.Items {
		out.Data = append(out.Data, convert(item))
	}
	return out
}

func renderGallery(page *service.GalleryPage) galleryJSON {
	return galleryJSON{
		Photos: renderPage(&page.Photos, renderPhoto),
		Filters: galleryFilterJSON{
			Search:     page.Filter.Search,
			CategoryID: page.Filter.CategoryID,
			TagID:      page.Filter.TagID,
			Featured:   page.Filter.FeaturedOnly,
			Sort:       string(page.Filter.Sort),
		},
		Stats: page.Stats,
	}
}
