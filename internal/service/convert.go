package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
)

// Conversions between repository rows (sql.Null* wrappers) and domain types.
// Services own this boundary so handlers and the repository never see each
// other's representations.

// URLResolver is the slice of storage.Storage the read paths need.
type URLResolver interface {
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// fillPhotoURLs resolves storage keys to serving URLs. Failures leave the
// URL empty rather than failing the read. Photos whose thumbnail was never
// generated serve the original in its place, so grid views always have
// something to show.
func fillPhotoURLs(ctx context.Context, r URLResolver, p *domain.Photo) {
	if url, err := r.URL(ctx, p.FilePath, 0); err == nil {
		p.FileURL = url
	}
	if p.ThumbnailPath != "" {
		if url, err := r.URL(ctx, p.ThumbnailPath, 0); err == nil {
			p.ThumbnailURL = url
		}
	}
	if p.ThumbnailURL == "" {
		p.ThumbnailURL = p.FileURL
	}
}

func photoFromRow(row repository.Photo) *domain.Photo {
	p := &domain.Photo{
		ID:               row.ID,
		UserID:           row.UserID,
		Title:            row.Title,
		Slug:             row.Slug,
		Description:      row.Description.String,
		FilePath:         row.FilePath,
		ThumbnailPath:    row.ThumbnailPath.String,
		OriginalFilename: row.OriginalFilename,
		MimeType:         row.MimeType,
		FileSize:         row.FileSize,
		Width:            row.Width.Int32,
		Height:           row.Height.Int32,
		AltText:          row.AltText.String,
		CameraMake:       row.CameraMake.String,
		CameraModel:      row.CameraModel.String,
		Lens:             row.Lens.String,
		FocalLength:      row.FocalLength.String,
		Aperture:         row.Aperture.String,
		ShutterSpeed:     row.ShutterSpeed.String,
		ISO:              row.Iso.Int32,
		IsPublic:         row.IsPublic,
		IsFeatured:       row.IsFeatured,
		ViewsCount:       row.ViewsCount,
		DownloadsCount:   row.DownloadsCount,
		LikesCount:       row.LikesCount,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.UUID
		p.CategoryID = &id
	}
	if row.TakenAt.Valid {
		t := row.TakenAt.Time
		p.TakenAt = &t
	}
	if row.Latitude.Valid {
		v := row.Latitude.Float64
		p.Latitude = &v
	}
	if row.Longitude.Valid {
		v := row.Longitude.Float64
		p.Longitude = &v
	}
	if row.Exif.Valid {
		var exif domain.ExifData
		if err := json.Unmarshal(row.Exif.RawMessage, &exif); err == nil && !exif.IsZero() {
			p.Exif = &exif
		}
	}
	return p
}

func categoryFromRow(row repository.Category) *domain.Category {
	return &domain.Category{
		ID:           row.ID,
		Name:         row.Name,
		Slug:         row.Slug,
		Description:  row.Description.String,
		Color:        row.Color,
		Icon:         row.Icon.String,
		DisplayOrder: row.DisplayOrder,
		IsActive:     row.IsActive,
		PhotosCount:  row.PhotosCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func tagFromRow(row repository.Tag) *domain.Tag {
	return &domain.Tag{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description.String,
		Color:       row.Color,
		PhotosCount: row.PhotosCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func userFromRow(row repository.User) *domain.User {
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// Null wrapper helpers for building repository params.

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt32(v int32, valid bool) sql.NullInt32 {
	return sql.NullInt32{Int32: v, Valid: valid}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullExif(exif *domain.ExifData) pqtype.NullRawMessage {
	if exif == nil || exif.IsZero() {
		return pqtype.NullRawMessage{}
	}
	raw, err := json.Marshal(exif)
	if err != nil {
		return pqtype.NullRawMessage{}
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}
}
