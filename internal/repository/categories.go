package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const categoryColumns = `c.id, c.name, c.slug, c.description, c.color, c.icon,
	c.display_order, c.is_active, c.created_at, c.updated_at, c.deleted_at`

// categoryPhotosCount counts the non-deleted photos referencing a category.
const categoryPhotosCount = `(SELECT count(*) FROM photos p
	WHERE p.category_id = c.id AND p.deleted_at IS NULL)`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon,
		&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
		&c.PhotosCount,
	)
	return c, err
}

// CreateCategoryParams holds the insert payload for a category.
type CreateCategoryParams struct {
	Name         string
	Slug         string
	Description  sql.NullString
	Color        string
	Icon         sql.NullString
	DisplayOrder int32
	IsActive     bool
}

// CreateCategory inserts a category and returns the stored row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	query := `INSERT INTO categories (name, slug, description, color, icon, display_order, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + strings.ReplaceAll(categoryColumns, "c.", "") + `, 0::bigint AS photos_count`
	row := q.db.QueryRowContext(ctx, query,
		arg.Name, arg.Slug, arg.Description, arg.Color, arg.Icon, arg.DisplayOrder, arg.IsActive)
	return scanCategory(row)
}

// GetCategoryByID fetches a non-deleted category with its photo count.
func (q *Queries) GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error) {
	query := `SELECT ` + categoryColumns + `, ` + categoryPhotosCount + ` AS photos_count
	FROM categories c WHERE c.id = $1 AND c.deleted_at IS NULL`
	return scanCategory(q.db.QueryRowContext(ctx, query, id))
}

// GetCategoryByName fetches a non-deleted category by exact name.
// Used for uniqueness checks; sql.ErrNoRows means the name is free.
func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	query := `SELECT ` + categoryColumns + `, ` + categoryPhotosCount + ` AS photos_count
	FROM categories c WHERE c.name = $1 AND c.deleted_at IS NULL`
	return scanCategory(q.db.QueryRowContext(ctx, query, name))
}

// ListCategoriesParams parameterizes the category listing.
type ListCategoriesParams struct {
	Search   string
	IsActive sql.NullBool
	Limit    int32
	Offset   int32
}

func categoryFilterClauses(arg ListCategoriesParams) ([]string, []any) {
	conds := []string{"c.deleted_at IS NULL"}
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if arg.Search != "" {
		ph := next(likePattern(arg.Search))
		conds = append(conds, fmt.Sprintf("(c.name ILIKE %[1]s OR c.description ILIKE %[1]s)", ph))
	}
	if arg.IsActive.Valid {
		conds = append(conds, fmt.Sprintf("c.is_active = %s", next(arg.IsActive.Bool)))
	}
	return conds, args
}

// ListCategories returns one page ordered by display order, then name.
func (q *Queries) ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error) {
	conds, args := categoryFilterClauses(arg)
	args = append(args, arg.Limit, arg.Offset)
	query := fmt.Sprintf(
		`SELECT %s, %s AS photos_count FROM categories c
		WHERE %s ORDER BY c.display_order ASC, c.name ASC LIMIT $%d OFFSET $%d`,
		categoryColumns, categoryPhotosCount, strings.Join(conds, " AND "),
		len(args)-1, len(args),
	)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountCategories returns the total matching the filter.
func (q *Queries) CountCategories(ctx context.Context, arg ListCategoriesParams) (int64, error) {
	conds, args := categoryFilterClauses(arg)
	query := fmt.Sprintf(`SELECT count(*) FROM categories c WHERE %s`, strings.Join(conds, " AND "))

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateCategoryParams holds the mutable columns of a category.
type UpdateCategoryParams struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  sql.NullString
	Color        string
	Icon         sql.NullString
	DisplayOrder int32
	IsActive     bool
}

// UpdateCategory applies an edit and returns the stored row.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	query := `UPDATE categories c SET
		name = $2, slug = $3, description = $4, color = $5, icon = $6,
		display_order = $7, is_active = $8, updated_at = now()
	WHERE c.id = $1 AND c.deleted_at IS NULL
	RETURNING ` + categoryColumns + `, ` + categoryPhotosCount + ` AS photos_count`
	row := q.db.QueryRowContext(ctx, query,
		arg.ID, arg.Name, arg.Slug, arg.Description, arg.Color, arg.Icon,
		arg.DisplayOrder, arg.IsActive)
	return scanCategory(row)
}

// SoftDeleteCategory marks a category deleted.
func (q *Queries) SoftDeleteCategory(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// CountPhotosByCategory counts non-deleted photos referencing a category.
// The delete guard in the service layer relies on this.
func (q *Queries) CountPhotosByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT count(*) FROM photos WHERE category_id = $1 AND deleted_at IS NULL`,
		categoryID).Scan(&count)
	return count, err
}
