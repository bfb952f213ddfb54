package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const tagColumns = `t.id, t.name, t.slug, t.description, t.color,
	t.created_at, t.updated_at, t.deleted_at`

// tagPhotosCount counts the non-deleted photos associated with a tag.
const tagPhotosCount = `(SELECT count(*) FROM photo_tags pt
	JOIN photos p ON p.id = pt.photo_id AND p.deleted_at IS NULL
	WHERE pt.tag_id = t.id)`

func scanTag(row rowScanner) (Tag, error) {
	var t Tag
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt, &t.PhotosCount,
	)
	return t, err
}

// CreateTagParams holds the insert payload for a tag.
type CreateTagParams struct {
	Name        string
	Slug        string
	Description sql.NullString
	Color       string
}

// CreateTag inserts a tag and returns the stored row.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	query := `INSERT INTO tags (name, slug, description, color)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + strings.ReplaceAll(tagColumns, "t.", "") + `, 0::bigint AS photos_count`
	row := q.db.QueryRowContext(ctx, query, arg.Name, arg.Slug, arg.Description, arg.Color)
	return scanTag(row)
}

// GetTagByID fetches a non-deleted tag with its photo count.
func (q *Queries) GetTagByID(ctx context.Context, id uuid.UUID) (Tag, error) {
	query := `SELECT ` + tagColumns + `, ` + tagPhotosCount + ` AS photos_count
	FROM tags t WHERE t.id = $1 AND t.deleted_at IS NULL`
	return scanTag(q.db.QueryRowContext(ctx, query, id))
}

// GetTagByName fetches a non-deleted tag by exact name.
// Used for uniqueness checks; sql.ErrNoRows means the name is free.
func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	query := `SELECT ` + tagColumns + `, ` + tagPhotosCount + ` AS photos_count
	FROM tags t WHERE t.name = $1 AND t.deleted_at IS NULL`
	return scanTag(q.db.QueryRowContext(ctx, query, name))
}

// ListTagsParams parameterizes the tag listing.
type ListTagsParams struct {
	Search string
	Limit  int32
	Offset int32
}

func tagFilterClauses(arg ListTagsParams) ([]string, []any) {
	conds := []string{"t.deleted_at IS NULL"}
	var args []any
	if arg.Search != "" {
		args = append(args, likePattern(arg.Search))
		conds = append(conds, "(t.name ILIKE $1 OR t.description ILIKE $1)")
	}
	return conds, args
}

// ListTags returns one page ordered by name.
func (q *Queries) ListTags(ctx context.Context, arg ListTagsParams) ([]Tag, error) {
	conds, args := tagFilterClauses(arg)
	args = append(args, arg.Limit, arg.Offset)
	query := fmt.Sprintf(
		`SELECT %s, %s AS photos_count FROM tags t
		WHERE %s ORDER BY t.name ASC LIMIT $%d OFFSET $%d`,
		tagColumns, tagPhotosCount, strings.Join(conds, " AND "),
		len(args)-1, len(args),
	)

	rows, err := q.db.QueryContext(ctx, query, args...)
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

// CountTags returns the total matching the filter.
func (q *Queries) CountTags(ctx context.Context, arg ListTagsParams) (int64, error) {
	conds, args := tagFilterClauses(arg)
	query := fmt.Sprintf(`SELECT count(*) FROM tags t WHERE %s`, strings.Join(conds, " AND "))

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateTagParams holds the mutable columns of a tag.
type UpdateTagParams struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description sql.NullString
	Color       string
}

// UpdateTag applies an edit and returns the stored row.
func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	query := `UPDATE tags t SET
		name = $2, slug = $3, description = $4, color = $5, updated_at = now()
	WHERE t.id = $1 AND t.deleted_at IS NULL
	RETURNING ` + tagColumns + `, ` + tagPhotosCount + ` AS photos_count`
	row := q.db.QueryRowContext(ctx, query, arg.ID, arg.Name, arg.Slug, arg.Description, arg.Color)
	return scanTag(row)
}

// SoftDeleteTag marks a tag deleted.
func (q *Queries) SoftDeleteTag(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE tags SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// CountPhotosByTag counts non-deleted photos associated with a tag.
// The delete guard in the service layer relies on this.
func (q *Queries) CountPhotosByTag(ctx context.Context, tagID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT count(*) FROM photo_tags pt
		JOIN photos p ON p.id = pt.photo_id AND p.deleted_at IS NULL
		WHERE pt.tag_id = $1`, tagID).Scan(&count)
	return count, err
}
