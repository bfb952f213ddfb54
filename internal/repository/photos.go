package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const photoColumns = `p.id, p.user_id, p.category_id, p.title, p.slug, p.description,
	p.file_path, p.thumbnail_path, p.original_filename, p.mime_type, p.file_size,
	p.width, p.height, p.exif, p.alt_text, p.camera_make, p.camera_model, p.lens,
	p.focal_length, p.aperture, p.shutter_speed, p.iso, p.taken_at, p.latitude,
	p.longitude, p.is_public, p.is_featured, p.views_count, p.downloads_count,
	p.likes_count, p.created_at, p.updated_at, p.deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (Photo, error) {
	var p Photo
	err := row.Scan(
		&p.ID, &p.UserID, &p.CategoryID, &p.Title, &p.Slug, &p.Description,
		&p.FilePath, &p.ThumbnailPath, &p.OriginalFilename, &p.MimeType, &p.FileSize,
		&p.Width, &p.Height, &p.Exif, &p.AltText, &p.CameraMake, &p.CameraModel, &p.Lens,
		&p.FocalLength, &p.Aperture, &p.ShutterSpeed, &p.Iso, &p.TakenAt, &p.Latitude,
		&p.Longitude, &p.IsPublic, &p.IsFeatured, &p.ViewsCount, &p.DownloadsCount,
		&p.LikesCount, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	return p, err
}

// CreatePhotoParams holds every column set at insert time.
type CreatePhotoParams struct {
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
}

// CreatePhoto inserts a photo and returns the stored row.
func (q *Queries) CreatePhoto(ctx context.Context, arg CreatePhotoParams) (Photo, error) {
	query := `INSERT INTO photos (
		user_id, category_id, title, slug, description, file_path, thumbnail_path,
		original_filename, mime_type, file_size, width, height, exif, alt_text,
		camera_make, camera_model, lens, focal_length, aperture, shutter_speed,
		iso, taken_at, latitude, longitude, is_public, is_featured
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
	) RETURNING ` + strings.ReplaceAll(photoColumns, "p.", "")
	row := q.db.QueryRowContext(ctx, query,
		arg.UserID, arg.CategoryID, arg.Title, arg.Slug, arg.Description,
		arg.FilePath, arg.ThumbnailPath, arg.OriginalFilename, arg.MimeType,
		arg.FileSize, arg.Width, arg.Height, arg.Exif, arg.AltText,
		arg.CameraMake, arg.CameraModel, arg.Lens, arg.FocalLength, arg.Aperture,
		arg.ShutterSpeed, arg.Iso, arg.TakenAt, arg.Latitude, arg.Longitude,
		arg.IsPublic, arg.IsFeatured,
	)
	return scanPhoto(row)
}

// GetPhotoByID fetches a non-deleted photo by id.
func (q *Queries) GetPhotoByID(ctx context.Context, id uuid.UUID) (Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p WHERE p.id = $1 AND p.deleted_at IS NULL`
	return scanPhoto(q.db.QueryRowContext(ctx, query, id))
}

// GetPhotoBySlug fetches a non-deleted photo by its public slug.
func (q *Queries) GetPhotoBySlug(ctx context.Context, slug string) (Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p WHERE p.slug = $1 AND p.deleted_at IS NULL`
	return scanPhoto(q.db.QueryRowContext(ctx, query, slug))
}

// UpdatePhotoParams holds the mutable columns of a photo.
type UpdatePhotoParams struct {
	ID          uuid.UUID
	Title       string
	Description sql.NullString
	CategoryID  uuid.NullUUID
	AltText     sql.NullString
	IsPublic    bool
	IsFeatured  bool
}

// UpdatePhoto applies an edit and returns the stored row.
func (q *Queries) UpdatePhoto(ctx context.Context, arg UpdatePhotoParams) (Photo, error) {
	query := `UPDATE photos SET
		title = $2, description = $3, category_id = $4, alt_text = $5,
		is_public = $6, is_featured = $7, updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL
	RETURNING ` + strings.ReplaceAll(photoColumns, "p.", "")
	row := q.db.QueryRowContext(ctx, query,
		arg.ID, arg.Title, arg.Description, arg.CategoryID, arg.AltText,
		arg.IsPublic, arg.IsFeatured,
	)
	return scanPhoto(row)
}

// SoftDeletePhoto marks a photo deleted. Blob cleanup is the caller's job.
func (q *Queries) SoftDeletePhoto(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photos SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// Counter increments are single SQL statements so concurrent requests never
// lose updates.

// IncrementPhotoViews bumps views_count by one.
func (q *Queries) IncrementPhotoViews(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photos SET views_count = views_count + 1 WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// IncrementPhotoDownloads bumps downloads_count by one.
func (q *Queries) IncrementPhotoDownloads(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photos SET downloads_count = downloads_count + 1 WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// IncrementPhotoLikes bumps likes_count by one.
func (q *Queries) IncrementPhotoLikes(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photos SET likes_count = likes_count + 1 WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// =============================================================================
// Listing
// =============================================================================

// ListPhotosParams parameterizes the filtered gallery query.
// Filters combine with AND; search sub-terms are OR'd across text columns.
type ListPhotosParams struct {
	ViewerID     uuid.NullUUID // valid: public OR owned by viewer; invalid: public only
	Search       string
	CategoryID   uuid.NullUUID
	TagID        uuid.NullUUID
	FeaturedOnly bool
	SortKey      string
	Limit        int32
	Offset       int32
}

// photoFilterClauses builds the WHERE conditions and args shared by
// ListPhotos and CountPhotos.
func photoFilterClauses(arg ListPhotosParams) ([]string, []any) {
	conds := []string{"p.deleted_at IS NULL"}
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if arg.ViewerID.Valid {
		conds = append(conds, fmt.Sprintf("(p.is_public = TRUE OR p.user_id = %s)", next(arg.ViewerID.UUID)))
	} else {
		conds = append(conds, "p.is_public = TRUE")
	}
	if arg.Search != "" {
		ph := next(likePattern(arg.Search))
		conds = append(conds, fmt.Sprintf(
			"(p.title ILIKE %[1]s OR p.description ILIKE %[1]s OR p.alt_text ILIKE %[1]s)", ph))
	}
	if arg.CategoryID.Valid {
		conds = append(conds, fmt.Sprintf("p.category_id = %s", next(arg.CategoryID.UUID)))
	}
	if arg.TagID.Valid {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM photo_tags pt WHERE pt.photo_id = p.id AND pt.tag_id = %s)", next(arg.TagID.UUID)))
	}
	if arg.FeaturedOnly {
		conds = append(conds, "p.is_featured = TRUE")
	}
	return conds, args
}

// photoOrderClause maps a sort key to an ORDER BY expression.
// Ties always break on id ascending so pagination stays stable.
func photoOrderClause(sortKey string) string {
	switch sortKey {
	case "oldest":
		return "p.created_at ASC, p.id ASC"
	case "most_viewed":
		return "p.views_count DESC, p.id ASC"
	case "most_liked":
		return "p.likes_count DESC, p.id ASC"
	case "title":
		return "p.title ASC, p.id ASC"
	default: // latest
		return "p.created_at DESC, p.id ASC"
	}
}

// ListPhotos returns one page of photos matching the filter.
func (q *Queries) ListPhotos(ctx context.Context, arg ListPhotosParams) ([]Photo, error) {
	conds, args := photoFilterClauses(arg)
	args = append(args, arg.Limit, arg.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM photos p WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		photoColumns, strings.Join(conds, " AND "), photoOrderClause(arg.SortKey),
		len(args)-1, len(args),
	)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CountPhotos returns the total number of photos matching the filter.
func (q *Queries) CountPhotos(ctx context.Context, arg ListPhotosParams) (int64, error) {
	conds, args := photoFilterClauses(arg)
	query := fmt.Sprintf(`SELECT count(*) FROM photos p WHERE %s`, strings.Join(conds, " AND "))

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// ListRelatedPhotosParams selects public photos shown alongside a detail view.
type ListRelatedPhotosParams struct {
	PhotoID    uuid.UUID
	CategoryID uuid.NullUUID
	Limit      int32
}

// ListRelatedPhotos returns the newest public photos excluding the photo
// itself, restricted to its category when it has one.
func (q *Queries) ListRelatedPhotos(ctx context.Context, arg ListRelatedPhotosParams) ([]Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p
	WHERE p.deleted_at IS NULL AND p.is_public = TRUE AND p.id <> $1
	  AND ($2::uuid IS NULL OR p.category_id = $2)
	ORDER BY p.created_at DESC, p.id ASC
	LIMIT $3`

	rows, err := q.db.QueryContext(ctx, query, arg.PhotoID, arg.CategoryID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// =============================================================================
// Tag Associations
// =============================================================================

// AttachPhotoTag creates a photo-tag association. Idempotent.
func (q *Queries) AttachPhotoTag(ctx context.Context, photoID, tagID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO photo_tags (photo_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		photoID, tagID)
	return err
}

// ClearPhotoTags removes all tag associations for a photo.
func (q *Queries) ClearPhotoTags(ctx context.Context, photoID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM photo_tags WHERE photo_id = $1`, photoID)
	return err
}

// ListPhotoTags returns the non-deleted tags attached to a photo.
func (q *Queries) ListPhotoTags(ctx context.Context, photoID uuid.UUID) ([]Tag, error) {
	query := `SELECT ` + tagColumns + `, 0 AS photos_count
	FROM tags t
	JOIN photo_tags pt ON pt.tag_id = t.id
	WHERE pt.photo_id = $1 AND t.deleted_at IS NULL
	ORDER BY t.name ASC`

	rows, err := q.db.QueryContext(ctx, query, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// =============================================================================
// Aggregates
// =============================================================================

// GalleryStatsRow holds the aggregate counters for the gallery index.
type GalleryStatsRow struct {
	TotalPhotos     int64
	TotalCategories int64
	TotalTags       int64
	TotalViews      int64
	TotalDownloads  int64
}

// GetGalleryStats returns catalog-wide counters over non-deleted rows.
func (q *Queries) GetGalleryStats(ctx context.Context) (GalleryStatsRow, error) {
	query := `SELECT
		(SELECT count(*) FROM photos WHERE deleted_at IS NULL),
		(SELECT count(*) FROM categories WHERE deleted_at IS NULL),
		(SELECT count(*) FROM tags WHERE deleted_at IS NULL),
		(SELECT COALESCE(sum(views_count), 0) FROM photos WHERE deleted_at IS NULL),
		(SELECT COALESCE(sum(downloads_count), 0) FROM photos WHERE deleted_at IS NULL)`

	var s GalleryStatsRow
	err := q.db.QueryRowContext(ctx, query).Scan(
		&s.TotalPhotos, &s.TotalCategories, &s.TotalTags, &s.TotalViews, &s.TotalDownloads)
	return s, err
}
