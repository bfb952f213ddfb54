package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the insert payload for a user account.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
}

// CreateUser inserts an account and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	query := `INSERT INTO users (email, name, password_hash)
	VALUES ($1, $2, $3)
	RETURNING ` + userColumns
	row := q.db.QueryRowContext(ctx, query, arg.Email, arg.Name, arg.PasswordHash)
	return scanUser(row)
}

// GetUserByEmail fetches an account by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, email))
}

// GetUserByID fetches an account by id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, id))
}

// CreateSessionParams holds the insert payload for a login session.
type CreateSessionParams struct {
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// CreateSession records a login session keyed by the hash of its token.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	query := `INSERT INTO sessions (token_hash, user_id, expires_at)
	VALUES ($1, $2, $3)
	RETURNING token_hash, user_id, expires_at, created_at`
	row := q.db.QueryRowContext(ctx, query, arg.TokenHash, arg.UserID, arg.ExpiresAt)
	var s Session
	err := row.Scan(&s.TokenHash, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// GetUserBySessionToken resolves a session token hash to its account,
// ignoring expired sessions.
func (q *Queries) GetUserBySessionToken(ctx context.Context, tokenHash string) (User, error) {
	query := `SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
	FROM sessions s
	JOIN users u ON u.id = s.user_id
	WHERE s.token_hash = $1 AND s.expires_at > now()`
	return scanUser(q.db.QueryRowContext(ctx, query, tokenHash))
}

// DeleteSession removes a session on logout.
func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
