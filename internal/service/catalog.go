package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/repository"
)

// Catalog is the slice of the repository the services depend on.
// *repository.Queries satisfies it; tests substitute fakes.
type Catalog interface {
	// Photos
	CreatePhoto(ctx context.Context, arg repository.CreatePhotoParams) (repository.Photo, error)
	GetPhotoByID(ctx context.Context, id uuid.UUID) (repository.Photo, error)
	GetPhotoBySlug(ctx context.Context, slug string) (repository.Photo, error)
	UpdatePhoto(ctx context.Context, arg repository.UpdatePhotoParams) (repository.Photo, error)
	SoftDeletePhoto(ctx context.Context, id uuid.UUID) error
	IncrementPhotoViews(ctx context.Context, id uuid.UUID) error
	IncrementPhotoDownloads(ctx context.Context, id uuid.UUID) error
	IncrementPhotoLikes(ctx context.Context, id uuid.UUID) error
	ListPhotos(ctx context.Context, arg repository.ListPhotosParams) ([]repository.Photo, error)
	CountPhotos(ctx context.Context, arg repository.ListPhotosParams) (int64, error)
	ListRelatedPhotos(ctx context.Context, arg repository.ListRelatedPhotosParams) ([]repository.Photo, error)
	AttachPhotoTag(ctx context.Context, photoID, tagID uuid.UUID) error
	ClearPhotoTags(ctx context.Context, photoID uuid.UUID) error
	ListPhotoTags(ctx context.Context, photoID uuid.UUID) ([]repository.Tag, error)
	GetGalleryStats(ctx context.Context) (repository.GalleryStatsRow, error)

	// Categories
	CreateCategory(ctx context.Context, arg repository.CreateCategoryParams) (repository.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (repository.Category, error)
	GetCategoryByName(ctx context.Context, name string) (repository.Category, error)
	ListCategories(ctx context.Context, arg repository.ListCategoriesParams) ([]repository.Category, error)
	CountCategories(ctx context.Context, arg repository.ListCategoriesParams) (int64, error)
	UpdateCategory(ctx context.Context, arg repository.UpdateCategoryParams) (repository.Category, error)
	SoftDeleteCategory(ctx context.Context, id uuid.UUID) error
	CountPhotosByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// Tags
	CreateTag(ctx context.Context, arg repository.CreateTagParams) (repository.Tag, error)
	GetTagByID(ctx context.Context, id uuid.UUID) (repository.Tag, error)
	GetTagByName(ctx context.Context, name string) (repository.Tag, error)
	ListTags(ctx context.Context, arg repository.ListTagsParams) ([]repository.Tag, error)
	CountTags(ctx context.Context, arg repository.ListTagsParams) (int64, error)
	UpdateTag(ctx context.Context, arg repository.UpdateTagParams) (repository.Tag, error)
	SoftDeleteTag(ctx context.Context, id uuid.UUID) error
	CountPhotosByTag(ctx context.Context, tagID uuid.UUID) (int64, error)

	// Users and sessions
	CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error)
	GetUserBySessionToken(ctx context.Context, tokenHash string) (repository.User, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Compile-time check that the real repository satisfies the interface.
var _ Catalog = (*repository.Queries)(nil)
