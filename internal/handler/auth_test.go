package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// fakeUserService implements service.UserService for handler tests.
type fakeUserService struct {
	registered   *domain.User
	registerErr  error
	loginResult  *service.LoginResult
	loginErr     error
	loggedOut    []string
	sessionUser  *domain.User
	sessionErr   error
	loginCalls   int
}

func (f *fakeUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registered, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeUserService) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.sessionUser, nil
}

func (f *fakeUserService) DeleteExpiredSessions(ctx context.Context) error { return nil }

var _ service.UserService = (*fakeUserService)(nil)

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     "ansel@example.com",
		Name:      "Ansel",
		CreatedAt: time.Now(),
	}
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegister_SetsSessionCookie(t *testing.T) {
	user := testUser()
	users := &fakeUserService{
		registered: user,
		loginResult: &service.LoginResult{
			User:      user,
			Token:     "raw-token",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	h := NewAuthHandler(users, testLogger(), false)

	body := `{"email":"ansel@example.com","name":"Ansel","password":"f/64 and be there"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))

	h.Register(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	cookie := sessionCookie(t, w.Result())
	require.NotNil(t, cookie, "register must log the new account in")
	assert.Equal(t, "raw-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, user.Email, resp.User.Email)
}

func TestRegister_BadJSON(t *testing.T) {
	h := NewAuthHandler(&fakeUserService{}, testLogger(), false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))

	h.Register(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	users := &fakeUserService{
		loginErr: domain.Errorf(domain.EUNAUTHORIZED, "user.login", "Invalid email or password"),
	}
	h := NewAuthHandler(users, testLogger(), false)

	body := `{"email":"ansel@example.com","password":"wrong"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))

	h.Login(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(t, w.Result()))
}

func TestLogout_Idempotent(t *testing.T) {
	users := &fakeUserService{}
	h := NewAuthHandler(users, testLogger(), false)

	// Without a cookie: still 204, cookie cleared
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, users.loggedOut)

	cleared := sessionCookie(t, w.Result())
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0, "cookie must be deleted")

	// With a cookie: session invalidated
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "raw-token"})
	h.Logout(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"raw-token"}, users.loggedOut)
}

func TestMe_RequiresUser(t *testing.T) {
	h := NewAuthHandler(&fakeUserService{}, testLogger(), false)

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := testUser()
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r = r.WithContext(auth.SetUser(r.Context(), user))
	h.Me(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp["user"].ID)
}
