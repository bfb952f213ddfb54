package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
)

// fakeLabelCatalog implements the category and tag slices of Catalog.
type fakeLabelCatalog struct {
	Catalog

	mu         sync.Mutex
	categories map[uuid.UUID]repository.Category
	tags       map[uuid.UUID]repository.Tag

	// photo counts per label, for the delete guards
	categoryPhotos map[uuid.UUID]int64
	tagPhotos      map[uuid.UUID]int64
}

func newFakeLabelCatalog() *fakeLabelCatalog {
	return &fakeLabelCatalog{
		categories:     make(map[uuid.UUID]repository.Category),
		tags:           make(map[uuid.UUID]repository.Tag),
		categoryPhotos: make(map[uuid.UUID]int64),
		tagPhotos:      make(map[uuid.UUID]int64),
	}
}

func (f *fakeLabelCatalog) CreateCategory(ctx context.Context, arg repository.CreateCategoryParams) (repository.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := repository.Category{
		ID:           uuid.New(),
		Name:         arg.Name,
		Slug:         arg.Slug,
		Description:  arg.Description,
		Color:        arg.Color,
		Icon:         arg.Icon,
		DisplayOrder: arg.DisplayOrder,
		IsActive:     arg.IsActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.categories[row.ID] = row
	return row, nil
}

func (f *fakeLabelCatalog) GetCategoryByID(ctx context.Context, id uuid.UUID) (repository.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.categories[id]
	if !ok {
		return repository.Category{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeLabelCatalog) GetCategoryByName(ctx context.Context, name string) (repository.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.categories {
		if row.Name == name {
			return row, nil
		}
	}
	return repository.Category{}, sql.ErrNoRows
}

func (f *fakeLabelCatalog) UpdateCategory(ctx context.Context, arg repository.UpdateCategoryParams) (repository.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.categories[arg.ID]
	if !ok {
		return repository.Category{}, sql.ErrNoRows
	}
	row.Name = arg.Name
	row.Slug = arg.Slug
	row.Description = arg.Description
	row.Color = arg.Color
	row.Icon = arg.Icon
	row.DisplayOrder = arg.DisplayOrder
	row.IsActive = arg.IsActive
	f.categories[arg.ID] = row
	return row, nil
}

func (f *fakeLabelCatalog) SoftDeleteCategory(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.categories, id)
	return nil
}

func (f *fakeLabelCatalog) CountPhotosByCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categoryPhotos[id], nil
}

func (f *fakeLabelCatalog) CreateTag(ctx context.Context, arg repository.CreateTagParams) (repository.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := repository.Tag{
		ID:          uuid.New(),
		Name:        arg.Name,
		Slug:        arg.Slug,
		Description: arg.Description,
		Color:       arg.Color,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.tags[row.ID] = row
	return row, nil
}

func (f *fakeLabelCatalog) GetTagByID(ctx context.Context, id uuid.UUID) (repository.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tags[id]
	if !ok {
		return repository.Tag{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeLabelCatalog) GetTagByName(ctx context.Context, name string) (repository.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.tags {
		if row.Name == name {
			return row, nil
		}
	}
	return repository.Tag{}, sql.ErrNoRows
}

func (f *fakeLabelCatalog) SoftDeleteTag(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tags, id)
	return nil
}

func (f *fakeLabelCatalog) CountPhotosByTag(ctx context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tagPhotos[id], nil
}

// =============================================================================
// Category Tests
// =============================================================================

func TestCategoryCreate_Defaults(t *testing.T) {
	svc := NewCategoryService(newFakeLabelCatalog(), testLogger())

	cat, err := svc.Create(context.Background(), domain.CategoryParams{
		Name:  "Landscapes",
		Color: "#10B981",
	})
	require.NoError(t, err)

	assert.Equal(t, "Landscapes", cat.Name)
	assert.Equal(t, "landscapes", cat.Slug)
	assert.True(t, cat.IsActive, "categories default to active")
}

func TestCategoryCreate_Validation(t *testing.T) {
	svc := NewCategoryService(newFakeLabelCatalog(), testLogger())

	tests := []struct {
		name   string
		params domain.CategoryParams
		field  string
	}{
		{
			name:   "missing name",
			params: domain.CategoryParams{Color: "#10B981"},
			field:  "name",
		},
		{
			name:   "bad color",
			params: domain.CategoryParams{Name: "X", Color: "#10g981"},
			field:  "color",
		},
		{
			name:   "negative order",
			params: domain.CategoryParams{Name: "X", Color: "#10B981", DisplayOrder: -1},
			field:  "order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.params)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestCategoryCreate_DuplicateName(t *testing.T) {
	svc := NewCategoryService(newFakeLabelCatalog(), testLogger())

	_, err := svc.Create(context.Background(), domain.CategoryParams{Name: "Nature", Color: "#10B981"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CategoryParams{Name: "Nature", Color: "#3B82F6"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
}

func TestCategoryCreate_NameFreedBySoftDelete(t *testing.T) {
	catalog := newFakeLabelCatalog()
	svc := NewCategoryService(catalog, testLogger())

	cat, err := svc.Create(context.Background(), domain.CategoryParams{Name: "Nature", Color: "#10B981"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), cat.ID))

	// Deleting releases both the name and its derived slug, so the same
	// name can be created again.
	again, err := svc.Create(context.Background(), domain.CategoryParams{Name: "Nature", Color: "#3B82F6"})
	require.NoError(t, err)
	assert.Equal(t, "nature", again.Slug)
	assert.NotEqual(t, cat.ID, again.ID)
}

func TestCategoryUpdate_NameUniquenessExcludesSelf(t *testing.T) {
	catalog := newFakeLabelCatalog()
	svc := NewCategoryService(catalog, testLogger())

	cat, err := svc.Create(context.Background(), domain.CategoryParams{Name: "Travel", Color: "#10B981"})
	require.NoError(t, err)

	// Keeping its own name is not a conflict
	updated, err := svc.Update(context.Background(), cat.ID, domain.CategoryParams{
		Name:  "Travel",
		Color: "#3B82F6",
	})
	require.NoError(t, err)
	assert.Equal(t, "#3B82F6", updated.Color)
}

func TestCategoryDelete_GuardedWhilePhotosExist(t *testing.T) {
	catalog := newFakeLabelCatalog()
	svc := NewCategoryService(catalog, testLogger())

	cat, err := svc.Create(context.Background(), domain.CategoryParams{Name: "Busy", Color: "#10B981"})
	require.NoError(t, err)

	catalog.categoryPhotos[cat.ID] = 3

	err = svc.Delete(context.Background(), cat.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// Still there
	_, err = svc.GetByID(context.Background(), cat.ID)
	require.NoError(t, err)

	// Once the photos are gone, deletion goes through
	catalog.categoryPhotos[cat.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), cat.ID))

	_, err = svc.GetByID(context.Background(), cat.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

// =============================================================================
// Tag Tests
// =============================================================================

func TestTagDelete_GuardedWhilePhotosExist(t *testing.T) {
	catalog := newFakeLabelCatalog()
	svc := NewTagService(catalog, testLogger())

	tag, err := svc.Create(context.Background(), domain.TagParams{Name: "macro", Color: "#F59E0B"})
	require.NoError(t, err)

	catalog.tagPhotos[tag.ID] = 1

	err = svc.Delete(context.Background(), tag.ID)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	catalog.tagPhotos[tag.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), tag.ID))
}

func TestTagCreate_DuplicateName(t *testing.T) {
	svc := NewTagService(newFakeLabelCatalog(), testLogger())

	_, err := svc.Create(context.Background(), domain.TagParams{Name: "street", Color: "#10B981"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.TagParams{Name: "street", Color: "#10B981"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
}
