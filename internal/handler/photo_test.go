package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// =============================================================================
// Fakes
// =============================================================================

type fakePhotoService struct {
	uploadedParams domain.UploadPhotoParams
	uploadedFile   service.UploadFile
	uploadResult   *domain.Photo
	uploadErr      error

	detail    *service.PhotoDetail
	detailErr error

	download    *service.DownloadResult
	downloadErr error

	likeCount int32
	likeErr   error

	updated   *domain.Photo
	updateErr error
	deleteErr error
}

func (f *fakePhotoService) Upload(ctx context.Context, userID uuid.UUID, params domain.UploadPhotoParams, file service.UploadFile) (*domain.Photo, error) {
	f.uploadedParams = params
	f.uploadedFile = file
	return f.uploadResult, f.uploadErr
}

func (f *fakePhotoService) GetBySlug(ctx context.Context, slug string, viewerID uuid.UUID) (*service.PhotoDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakePhotoService) Download(ctx context.Context, slug string, viewerID uuid.UUID) (*service.DownloadResult, error) {
	return f.download, f.downloadErr
}

func (f *fakePhotoService) Like(ctx context.Context, slug string, viewerID uuid.UUID) (int32, error) {
	return f.likeCount, f.likeErr
}

func (f *fakePhotoService) Update(ctx context.Context, id, userID uuid.UUID, params domain.UpdatePhotoParams) (*domain.Photo, error) {
	return f.updated, f.updateErr
}

func (f *fakePhotoService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return f.deleteErr
}

var _ service.PhotoService = (*fakePhotoService)(nil)

type fakeGalleryService struct {
	filter domain.PhotoFilter
	page   *service.GalleryPage
	err    error
}

func (f *fakeGalleryService) List(ctx context.Context, filter domain.PhotoFilter) (*service.GalleryPage, error) {
	f.filter = filter
	return f.page, f.err
}

var _ service.GalleryService = (*fakeGalleryService)(nil)

func testPhoto() *domain.Photo {
	return &domain.Photo{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Title:            "Dunes at Dawn",
		Slug:             "dunes-at-dawn-a1b2c3",
		AltText:          "Dunes at Dawn",
		OriginalFilename: "dunes.jpg",
		MimeType:         "image/jpeg",
		FileSize:         2048,
		IsPublic:         true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// multipartUpload builds a multipart body with a PNG file part and fields.
func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "tiny.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(auth.SetUser(r.Context(), &domain.User{ID: uuid.New(), Name: "Ansel"}))
}

// =============================================================================
// Upload
// =============================================================================

func TestUpload_SniffsContentType(t *testing.T) {
	photos := &fakePhotoService{uploadResult: testPhoto()}
	h := NewPhotoHandler(photos, &fakeGalleryService{}, testLogger())

	body, contentType := multipartUpload(t, map[string]string{
		"title":     "Dunes at Dawn",
		"is_public": "false",
	})
	r := authedRequest(http.MethodPost, "/photos", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The part carried no Content-Type worth trusting; sniffing wins
	assert.Equal(t, "image/png", photos.uploadedFile.ContentType)
	assert.Equal(t, "tiny.png", photos.uploadedFile.Filename)
	assert.NotEmpty(t, photos.uploadedFile.Data)

	assert.Equal(t, "Dunes at Dawn", photos.uploadedParams.Title)
	require.NotNil(t, photos.uploadedParams.IsPublic)
	assert.False(t, *photos.uploadedParams.IsPublic)
}

func TestUpload_RequiresAuth(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	body, contentType := multipartUpload(t, map[string]string{"title": "X"})
	r := httptest.NewRequest(http.MethodPost, "/photos", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "No file here"))
	require.NoError(t, mw.Close())

	r := authedRequest(http.MethodPost, "/photos", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.Upload(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp JSONError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error.Fields, "photo")
}

func TestUpload_BadTagIDs(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	body, contentType := multipartUpload(t, map[string]string{
		"title":   "X",
		"tag_ids": "not-a-uuid",
	})
	r := authedRequest(http.MethodPost, "/photos", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// =============================================================================
// Gallery
// =============================================================================

func TestGallery_FilterParsing(t *testing.T) {
	categoryID := uuid.New()
	gallery := &fakeGalleryService{page: &service.GalleryPage{
		Photos: domain.Page[*domain.Photo]{Items: []*domain.Photo{testPhoto()}, TotalCount: 1, Page: 2, PerPage: 20},
	}}
	h := NewPhotoHandler(&fakePhotoService{}, gallery, testLogger())

	target := "/gallery?search=dunes&sort=most_viewed&page=2&per_page=20&featured=true&category_id=" + categoryID.String()
	w := httptest.NewRecorder()
	h.Gallery(w, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "dunes", gallery.filter.Search)
	assert.Equal(t, domain.SortMostViewed, gallery.filter.Sort)
	assert.Equal(t, 2, gallery.filter.Page)
	assert.Equal(t, 20, gallery.filter.PerPage)
	assert.True(t, gallery.filter.FeaturedOnly)
	require.NotNil(t, gallery.filter.CategoryID)
	assert.Equal(t, categoryID, *gallery.filter.CategoryID)
	assert.Equal(t, uuid.Nil, gallery.filter.ViewerID, "anonymous request")
}

func TestGallery_UnknownSortFallsBack(t *testing.T) {
	gallery := &fakeGalleryService{page: &service.GalleryPage{}}
	h := NewPhotoHandler(&fakePhotoService{}, gallery, testLogger())

	w := httptest.NewRecorder()
	h.Gallery(w, httptest.NewRequest(http.MethodGet, "/gallery?sort=sneaky", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SortLatest, gallery.filter.Sort)
}

func TestGallery_BadCategoryID(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	w := httptest.NewRecorder()
	h.Gallery(w, httptest.NewRequest(http.MethodGet, "/gallery?category_id=garbage", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// =============================================================================
// Show / Download / Like
// =============================================================================

func TestShow_NotFound(t *testing.T) {
	photos := &fakePhotoService{
		detailErr: domain.Errorf(domain.ENOTFOUND, "photo.get", "Photo not found"),
	}
	h := NewPhotoHandler(photos, &fakeGalleryService{}, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/gallery/nope", nil)
	r.SetPathValue("slug", "nope")
	w := httptest.NewRecorder()

	h.Show(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownload_StreamsOriginal(t *testing.T) {
	photos := &fakePhotoService{
		download: &service.DownloadResult{
			Body:        io.NopCloser(bytes.NewReader([]byte("jpeg bytes"))),
			ContentType: "image/jpeg",
			Size:        10,
			Filename:    "dunes.jpg",
		},
	}
	h := NewPhotoHandler(photos, &fakeGalleryService{}, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/gallery/dunes-at-dawn-a1b2c3/download", nil)
	r.SetPathValue("slug", "dunes-at-dawn-a1b2c3")
	w := httptest.NewRecorder()

	h.Download(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="dunes.jpg"`)
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
	assert.Equal(t, "jpeg bytes", w.Body.String())
}

func TestLike_ReturnsCount(t *testing.T) {
	photos := &fakePhotoService{likeCount: 42}
	h := NewPhotoHandler(photos, &fakeGalleryService{}, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/gallery/dunes-at-dawn-a1b2c3/like", nil)
	r.SetPathValue("slug", "dunes-at-dawn-a1b2c3")
	w := httptest.NewRecorder()

	h.Like(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int32
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int32(42), resp["likes_count"])
}

// =============================================================================
// Update / Delete
// =============================================================================

func TestUpdate_BadID(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	r := authedRequest(http.MethodPatch, "/photos/garbage", bytes.NewReader([]byte("{}")))
	r.SetPathValue("id", "garbage")
	w := httptest.NewRecorder()

	h.Update(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_RequiresAuth(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	r := httptest.NewRequest(http.MethodDelete, "/photos/"+uuid.NewString(), nil)
	r.SetPathValue("id", uuid.NewString())
	w := httptest.NewRecorder()

	h.Delete(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDelete_Success(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoService{}, &fakeGalleryService{}, testLogger())

	id := uuid.NewString()
	r := authedRequest(http.MethodDelete, "/photos/"+id, nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()

	h.Delete(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
