package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// TagService defines the interface for tag administration.
type TagService interface {
	// Create adds a tag. Returns domain.EINVALID when the name is already
	// in use by a live tag.
	Create(ctx context.Context, params domain.TagParams) (*domain.Tag, error)

	// GetByID returns a tag with its photo count.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)

	// List returns one page of tags ordered by name.
	List(ctx context.Context, filter domain.TagFilter) (*domain.Page[*domain.Tag], error)

	// Update edits a tag. Name uniqueness excludes the tag itself.
	Update(ctx context.Context, id uuid.UUID, params domain.TagParams) (*domain.Tag, error)

	// Delete soft-deletes a tag. Returns domain.ECONFLICT while photos are
	// still tagged with it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type tagService struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewTagService creates a new TagService.
func NewTagService(catalog Catalog, logger *slog.Logger) TagService {
	return &tagService{catalog: catalog, logger: logger}
}

// Create adds a tag.
func (s *tagService) Create(ctx context.Context, params domain.TagParams) (*domain.Tag, error) {
	const op = "tag.create"

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, op, params.Name, uuid.Nil); err != nil {
		return nil, err
	}

	row, err := s.catalog.CreateTag(ctx, repository.CreateTagParams{
		Name:        params.Name,
		Slug:        domain.Slugify(params.Name),
		Description: nullString(params.Description),
		Color:       params.Color,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.NewValidationError(op, "name", "A tag with this name already exists")
		}
		return nil, domain.Internal(err, op, "failed to create tag")
	}

	s.logger.Info("tag created", "tag_id", row.ID, "name", row.Name)

	return tagFromRow(row), nil
}

// GetByID returns a tag.
func (s *tagService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	const op = "tag.get"

	row, err := s.catalog.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "tag", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load tag")
	}
	return tagFromRow(row), nil
}

// List returns one page of tags.
func (s *tagService) List(ctx context.Context, filter domain.TagFilter) (*domain.Page[*domain.Tag], error) {
	const op = "tag.list"

	filter.Normalize(domain.TagPerPage)

	arg := repository.ListTagsParams{
		Search: filter.Search,
		Limit:  int32(filter.PerPage),
		Offset: int32(filter.Offset()),
	}

	rows, err := s.catalog.ListTags(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list tags")
	}
	total, err := s.catalog.CountTags(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count tags")
	}

	items := make([]*domain.Tag, 0, len(rows))
	for _, row := range rows {
		items = append(items, tagFromRow(row))
	}

	return &domain.Page[*domain.Tag]{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
	}, nil
}

// Update edits a tag.
func (s *tagService) Update(ctx context.Context, id uuid.UUID, params domain.TagParams) (*domain.Tag, error) {
	const op = "tag.update"

	if _, err := s.catalog.GetTagByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "tag", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load tag")
	}

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, op, params.Name, id); err != nil {
		return nil, err
	}

	row, err := s.catalog.UpdateTag(ctx, repository.UpdateTagParams{
		ID:          id,
		Name:        params.Name,
		Slug:        domain.Slugify(params.Name),
		Description: nullString(params.Description),
		Color:       params.Color,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.NewValidationError(op, "name", "A tag with this name already exists")
		}
		return nil, domain.Internal(err, op, "failed to update tag")
	}

	s.logger.Info("tag updated", "tag_id", id, "name", row.Name)

	return tagFromRow(row), nil
}

// Delete soft-deletes a tag unless photos are still tagged with it.
func (s *tagService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "tag.delete"

	if _, err := s.catalog.GetTagByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "tag", id.String())
		}
		return domain.Internal(err, op, "failed to load tag")
	}

	count, err := s.catalog.CountPhotosByTag(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to count photos")
	}
	if count > 0 {
		return domain.Conflict(op, "Cannot delete tag with existing photos. Untag them first.")
	}

	if err := s.catalog.SoftDeleteTag(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete tag")
	}

	s.logger.Info("tag deleted", "tag_id", id)

	return nil
}

// checkNameFree enforces name uniqueness among live tags, excluding the tag
// being edited.
func (s *tagService) checkNameFree(ctx context.Context, op, name string, selfID uuid.UUID) error {
	existing, err := s.catalog.GetTagByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return domain.Internal(err, op, "failed to check name uniqueness")
	}
	if existing.ID == selfID {
		return nil
	}
	return domain.NewValidationError(op, "name", "A tag with this name already exists")
}
