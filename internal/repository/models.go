package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// User is a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a row in the sessions table. TokenHash is the SHA-256 of the
// opaque token handed to the client.
type Session struct {
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Category is a row in the categories table. PhotosCount is computed by a
// subquery over non-deleted photos.
type Category struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  sql.NullString
	Color        string
	Icon         sql.NullString
	DisplayOrder int32
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    sql.NullTime
	PhotosCount  int64
}

// Tag is a row in the tags table. PhotosCount is computed by a subquery.
type Tag struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description sql.NullString
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   sql.NullTime
	PhotosCount int64
}

// Photo is a row in the photos table.
type Photo struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	CategoryID       uuid.NullUUID
	Title            string
	Slug             string
	Description      sql.NullString
	FilePath         string
	ThumbnailPath    sql.NullString
	OriginalFilename string
	MimeType         string
	FileSize         int64
	Width            sql.NullInt32
	Height           sql.NullInt32
	Exif             pqtype.NullRawMessage
	AltText          sql.NullString
	CameraMake       sql.NullString
	CameraModel      sql.NullString
	Lens             sql.NullString
	FocalLength      sql.NullString
	Aperture         sql.NullString
	ShutterSpeed     sql.NullString
	Iso              sql.NullInt32
	TakenAt          sql.NullTime
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	IsPublic         bool
	IsFeatured       bool
	ViewsCount       int32
	DownloadsCount   int32
	LikesCount       int32
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        sql.NullTime
}
