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

// CategoryService defines the interface for category administration.
type CategoryService interface {
	// Create adds a category. Returns domain.EINVALID when the name is
	// already in use by a live category.
	Create(ctx context.Context, params domain.CategoryParams) (*domain.Category, error)

	// GetByID returns a category with its photo count.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// List returns one page of categories ordered by display order.
	List(ctx context.Context, filter domain.CategoryFilter) (*domain.Page[*domain.Category], error)

	// Update edits a category. Name uniqueness excludes the category itself.
	Update(ctx context.Context, id uuid.UUID, params domain.CategoryParams) (*domain.Category, error)

	// Delete soft-deletes a category. Returns domain.ECONFLICT while photos
	// still reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type categoryService struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(catalog Catalog, logger *slog.Logger) CategoryService {
	return &categoryService{catalog: catalog, logger: logger}
}

// Create adds a category.
func (s *categoryService) Create(ctx context.Context, params domain.CategoryParams) (*domain.Category, error) {
	const op = "category.create"

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, op, params.Name, uuid.Nil); err != nil {
		return nil, err
	}

	isActive := params.IsActive == nil || *params.IsActive

	row, err := s.catalog.CreateCategory(ctx, repository.CreateCategoryParams{
		Name:         params.Name,
		Slug:         domain.Slugify(params.Name),
		Description:  nullString(params.Description),
		Color:        params.Color,
		Icon:         nullString(params.Icon),
		DisplayOrder: params.DisplayOrder,
		IsActive:     isActive,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.NewValidationError(op, "name", "A category with this name already exists")
		}
		return nil, domain.Internal(err, op, "failed to create category")
	}

	s.logger.Info("category created", "category_id", row.ID, "name", row.Name)

	return categoryFromRow(row), nil
}

// GetByID returns a category.
func (s *categoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	const op = "category.get"

	row, err := s.catalog.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "category", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load category")
	}
	return categoryFromRow(row), nil
}

// List returns one page of categories.
func (s *categoryService) List(ctx context.Context, filter domain.CategoryFilter) (*domain.Page[*domain.Category], error) {
	const op = "category.list"

	filter.Normalize(domain.CategoryPerPage)

	arg := repository.ListCategoriesParams{
		Search: filter.Search,
		Limit:  int32(filter.PerPage),
		Offset: int32(filter.Offset()),
	}
	if filter.Active != nil {
		arg.IsActive = sql.NullBool{Bool: *filter.Active, Valid: true}
	}

	rows, err := s.catalog.ListCategories(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list categories")
	}
	total, err := s.catalog.CountCategories(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count categories")
	}

	items := make([]*domain.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, categoryFromRow(row))
	}

	return &domain.Page[*domain.Category]{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
	}, nil
}

// Update edits a category.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, params domain.CategoryParams) (*domain.Category, error) {
	const op = "category.update"

	current, err := s.catalog.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "category", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load category")
	}

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, op, params.Name, id); err != nil {
		return nil, err
	}

	isActive := current.IsActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row, err := s.catalog.UpdateCategory(ctx, repository.UpdateCategoryParams{
		ID:           id,
		Name:         params.Name,
		Slug:         domain.Slugify(params.Name),
		Description:  nullString(params.Description),
		Color:        params.Color,
		Icon:         nullString(params.Icon),
		DisplayOrder: params.DisplayOrder,
		IsActive:     isActive,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.NewValidationError(op, "name", "A category with this name already exists")
		}
		return nil, domain.Internal(err, op, "failed to update category")
	}

	s.logger.Info("category updated", "category_id", id, "name", row.Name)

	return categoryFromRow(row), nil
}

// Delete soft-deletes a category unless photos still reference it.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "category.delete"

	if _, err := s.catalog.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "category", id.String())
		}
		return domain.Internal(err, op, "failed to load category")
	}

	count, err := s.catalog.CountPhotosByCategory(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to count photos")
	}
	if count > 0 {
		return domain.Conflict(op, "Cannot delete category with existing photos. Reassign them first.")
	}

	if err := s.catalog.SoftDeleteCategory(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete category")
	}

	s.logger.Info("category deleted", "category_id", id)

	return nil
}

// checkNameFree enforces name uniqueness among live categories, excluding
// the category being edited.
func (s *categoryService) checkNameFree(ctx context.Context, op, name string, selfID uuid.UUID) error {
	existing, err := s.catalog.GetCategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return domain.Internal(err, op, "failed to check name uniqueness")
	}
	if existing.ID == selfID {
		return nil
	}
	return domain.NewValidationError(op, "name", "A category with this name already exists")
}
