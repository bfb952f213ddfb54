package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoden/fotoden/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ESTORAGE, http.StatusInternalServerError},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/gallery/nope", nil)

	ErrorResponse(w, r, testLogger(), domain.Errorf(domain.ENOTFOUND, "photo.get", "Photo not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body JSONError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.ENOTFOUND, body.Error.Code)
	assert.Equal(t, "Photo not found", body.Error.Message)
	assert.Empty(t, body.Error.Fields)
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/photos", nil)

	ve := domain.NewValidationError("photo.upload", "title", "Title is required")
	ve = ve.AddField("file", "A photo file is required")

	ErrorResponse(w, r, testLogger(), ve)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body JSONError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "Title is required", body.Error.Fields["title"])
	assert.Equal(t, "A photo file is required", body.Error.Fields["file"])
}

func TestErrorResponse_InternalHidesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/gallery", nil)

	wrapped := domain.Internal(assert.AnError, "gallery.list", "Something went wrong")
	ErrorResponse(w, r, testLogger(), wrapped)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error(),
		"internal error detail must not leak to the client")
}
