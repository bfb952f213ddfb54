package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// GalleryPage is one page of the gallery plus the echoed filter and the
// catalog-wide stats shown alongside the index.
type GalleryPage struct {
	Photos domain.Page[*domain.Photo]
	Filter domain.PhotoFilter
	Stats  domain.GalleryStats
}

// GalleryService lists and aggregates the photo catalog.
type GalleryService interface {
	// List returns one filtered, sorted, paginated page of photos together
	// with gallery stats. Anonymous viewers (uuid.Nil) see public photos
	// only; signed-in viewers additionally see their own private photos.
	List(ctx context.Context, filter domain.PhotoFilter) (*GalleryPage, error)
}

// =============================================================================
// Implementation
// =============================================================================

type galleryService struct {
	catalog Catalog
	store   URLResolver
	logger  *slog.Logger
}

// NewGalleryService creates a new GalleryService.
func NewGalleryService(catalog Catalog, store URLResolver, logger *slog.Logger) GalleryService {
	return &galleryService{
		catalog: catalog,
		store:   store,
		logger:  logger,
	}
}

// List returns one page of the gallery.
func (s *galleryService) List(ctx context.Context, filter domain.PhotoFilter) (*GalleryPage, error) {
	const op = "gallery.list"

	filter.Normalize(domain.GalleryPerPage)

	arg := repository.ListPhotosParams{
		Search:       filter.Search,
		CategoryID:   nullUUID(filter.CategoryID),
		TagID:        nullUUID(filter.TagID),
		FeaturedOnly: filter.FeaturedOnly,
		SortKey:      string(filter.Sort),
		Limit:        int32(filter.PerPage),
		Offset:       int32(filter.Offset()),
	}
	if filter.ViewerID != uuid.Nil {
		arg.ViewerID = uuid.NullUUID{UUID: filter.ViewerID, Valid: true}
	}

	rows, err := s.catalog.ListPhotos(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list photos")
	}
	total, err := s.catalog.CountPhotos(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count photos")
	}

	photos := make([]*domain.Photo, 0, len(rows))
	for _, row := range rows {
		p := photoFromRow(row)
		fillPhotoURLs(ctx, s.store, p)
		photos = append(photos, p)
	}

	statsRow, err := s.catalog.GetGalleryStats(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load gallery stats")
	}

	return &GalleryPage{
		Photos: domain.Page[*domain.Photo]{
			Items:      photos,
			TotalCount: total,
			Page:       filter.Page,
			PerPage:    filter.PerPage,
		},
		Filter: filter,
		Stats: domain.GalleryStats{
			TotalPhotos:     statsRow.TotalPhotos,
			TotalCategories: statsRow.TotalCategories,
			TotalTags:       statsRow.TotalTags,
			TotalViews:      statsRow.TotalViews,
			TotalDownloads:  statsRow.TotalDownloads,
		},
	}, nil
}
