package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes in a session token.
	// The token is hex-encoded to 64 characters for the cookie.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour
)

// =============================================================================
// Interface Definition
// =============================================================================

// LoginResult carries the authenticated user plus the raw session token.
// The token is only ever returned here; the database stores its hash.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService defines the interface for accounts and sessions.
type UserService interface {
	// Register creates an account.
	// Returns domain.ECONFLICT if the email is already registered.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates and opens a session.
	// Returns domain.EUNAUTHORIZED on bad credentials, with a message that
	// never reveals whether the email exists.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetBySessionToken resolves a raw session token to its user.
	// Returns domain.EUNAUTHORIZED if the token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// DeleteExpiredSessions prunes sessions past their expiry.
	DeleteExpiredSessions(ctx context.Context) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(catalog Catalog, logger *slog.Logger) UserService {
	return &userService{catalog: catalog, logger: logger}
}

// Register creates an account.
//
// The password is hashed with bcrypt before storage; the raw value is never
// logged. A duplicate email still burns a bcrypt hashing round so response
// timing does not reveal registration status.
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "user.register"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if err := params.Validate(op); err != nil {
		return nil, err
	}

	_, err := s.catalog.GetUserByEmail(ctx, params.Email)
	if err == nil {
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	row, err := s.catalog.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		// Concurrent registration of the same email
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "failed to create user")
	}

	s.logger.Info("user registered", "user_id", row.ID, "email", row.Email)

	user := userFromRow(row)
	user.PasswordHash = ""
	return user, nil
}

// Login authenticates and opens a session.
func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "user.login"

	email = strings.ToLower(strings.TrimSpace(email))

	row, err := s.catalog.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a comparison so unknown emails cost the same as wrong
			// passwords. The hash is bcrypt("dummy") at cost 12.
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate session token")
	}
	expiresAt := time.Now().Add(SessionDuration)

	_, err = s.catalog.CreateSession(ctx, repository.CreateSessionParams{
		TokenHash: hashSessionToken(token),
		UserID:    row.ID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create session")
	}

	s.logger.Info("user logged in", "user_id", row.ID)

	user := userFromRow(row)
	user.PasswordHash = ""
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout invalidates a session.
func (s *userService) Logout(ctx context.Context, token string) error {
	const op = "user.logout"

	if token == "" {
		return nil
	}
	if err := s.catalog.DeleteSession(ctx, hashSessionToken(token)); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

// GetBySessionToken resolves a raw token to its user.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "user.session"

	if token == "" {
		return nil, domain.Unauthorized(op, "Authentication required")
	}

	row, err := s.catalog.GetUserBySessionToken(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Session is invalid or expired")
		}
		return nil, domain.Internal(err, op, "failed to load session")
	}

	user := userFromRow(row)
	user.PasswordHash = ""
	return user, nil
}

// DeleteExpiredSessions prunes expired sessions.
func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	const op = "user.prune_sessions"

	n, err := s.catalog.DeleteExpiredSessions(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to prune sessions")
	}
	if n > 0 {
		s.logger.Info("pruned expired sessions", "count", n)
	}
	return nil
}

// =============================================================================
// Token Helpers
// =============================================================================

// newSessionToken returns a hex-encoded random token.
func newSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashSessionToken derives the storage key for a session token. Storing
// only the hash keeps a leaked database from yielding usable sessions.
func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
