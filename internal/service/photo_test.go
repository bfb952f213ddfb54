package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/repository"
	"github.com/fotoden/fotoden/internal/storage"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeCatalog implements the slice of Catalog the photo tests touch.
// The embedded interface panics on anything a test did not expect to reach.
type fakeCatalog struct {
	Catalog

	mu       sync.Mutex
	photos   map[uuid.UUID]repository.Photo
	tags     map[uuid.UUID]repository.Tag
	attached map[uuid.UUID][]uuid.UUID

	createErr   error
	createCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		photos:   make(map[uuid.UUID]repository.Photo),
		tags:     make(map[uuid.UUID]repository.Tag),
		attached: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeCatalog) CreatePhoto(ctx context.Context, arg repository.CreatePhotoParams) (repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return repository.Photo{}, f.createErr
	}

	row := repository.Photo{
		ID:               uuid.New(),
		UserID:           arg.UserID,
		CategoryID:       arg.CategoryID,
		Title:            arg.Title,
		Slug:             arg.Slug,
		Description:      arg.Description,
		FilePath:         arg.FilePath,
		ThumbnailPath:    arg.ThumbnailPath,
		OriginalFilename: arg.OriginalFilename,
		MimeType:         arg.MimeType,
		FileSize:         arg.FileSize,
		Width:            arg.Width,
		Height:           arg.Height,
		Exif:             arg.Exif,
		AltText:          arg.AltText,
		CameraMake:       arg.CameraMake,
		CameraModel:      arg.CameraModel,
		TakenAt:          arg.TakenAt,
		Latitude:         arg.Latitude,
		Longitude:        arg.Longitude,
		IsPublic:         arg.IsPublic,
		IsFeatured:       arg.IsFeatured,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	f.photos[row.ID] = row
	return row, nil
}

func (f *fakeCatalog) GetPhotoByID(ctx context.Context, id uuid.UUID) (repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.photos[id]
	if !ok {
		return repository.Photo{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeCatalog) GetPhotoBySlug(ctx context.Context, slug string) (repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.photos {
		if row.Slug == slug {
			return row, nil
		}
	}
	return repository.Photo{}, sql.ErrNoRows
}

func (f *fakeCatalog) UpdatePhoto(ctx context.Context, arg repository.UpdatePhotoParams) (repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.photos[arg.ID]
	if !ok {
		return repository.Photo{}, sql.ErrNoRows
	}
	row.Title = arg.Title
	row.Description = arg.Description
	row.CategoryID = arg.CategoryID
	row.AltText = arg.AltText
	row.IsPublic = arg.IsPublic
	row.IsFeatured = arg.IsFeatured
	row.UpdatedAt = time.Now()
	f.photos[arg.ID] = row
	return row, nil
}

func (f *fakeCatalog) SoftDeletePhoto(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.photos, id)
	return nil
}

func (f *fakeCatalog) IncrementPhotoViews(ctx context.Context, id uuid.UUID) error {
	return f.bump(id, func(p *repository.Photo) { p.ViewsCount++ })
}

func (f *fakeCatalog) IncrementPhotoDownloads(ctx context.Context, id uuid.UUID) error {
	return f.bump(id, func(p *repository.Photo) { p.DownloadsCount++ })
}

func (f *fakeCatalog) IncrementPhotoLikes(ctx context.Context, id uuid.UUID) error {
	return f.bump(id, func(p *repository.Photo) { p.LikesCount++ })
}

func (f *fakeCatalog) bump(id uuid.UUID, fn func(*repository.Photo)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.photos[id]
	if !ok {
		return sql.ErrNoRows
	}
	fn(&row)
	f.photos[id] = row
	return nil
}

func (f *fakeCatalog) ListRelatedPhotos(ctx context.Context, arg repository.ListRelatedPhotosParams) ([]repository.Photo, error) {
	return nil, nil
}

func (f *fakeCatalog) AttachPhotoTag(ctx context.Context, photoID, tagID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached[photoID] = append(f.attached[photoID], tagID)
	return nil
}

func (f *fakeCatalog) ListPhotoTags(ctx context.Context, photoID uuid.UUID) ([]repository.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tags []repository.Tag
	for _, tagID := range f.attached[photoID] {
		if t, ok := f.tags[tagID]; ok {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

func (f *fakeCatalog) GetTagByID(ctx context.Context, id uuid.UUID) (repository.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok {
		return repository.Tag{}, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeCatalog) GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	return repository.User{ID: id, Name: "Test Owner"}, nil
}

// fakeStorage is an in-memory Storage with injectable Put failures.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, &storage.StorageError{Op: "Get", Key: key, Err: storage.ErrNotFound}
	}
	return io.NopCloser(strings.NewReader(string(b))), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "http://files.test/" + key, nil
}

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// failingThumbnailer always errors, as a corrupt-but-sniffable image would.
type failingThumbnailer struct{}

func (failingThumbnailer) GenerateThumbnail(io.Reader) ([]byte, int, int, error) {
	return nil, 0, 0, errors.New("decode failed")
}

// =============================================================================
// Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPhotoService(catalog Catalog, store storage.Storage, thumbs ThumbnailProcessor) PhotoService {
	if thumbs == nil {
		thumbs = NewImagingProcessor(domain.DefaultThumbnailWidth, domain.DefaultThumbnailQuality)
	}
	return NewPhotoService(catalog, store, thumbs, NewExifExtractor(), testLogger(), DefaultPhotoConfig())
}

func pngUpload(t *testing.T) UploadFile {
	t.Helper()
	return UploadFile{
		Filename:    "holiday.png",
		ContentType: "image/png",
		Data:        encodePNG(t, 800, 600),
	}
}

var slugShape = regexp.MustCompile(`^[a-z0-9-]+-[a-z0-9]{6}$`)

// =============================================================================
// Upload
// =============================================================================

func TestUpload_Success(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	photo, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title:       "Sunset at the Pier",
		Description: "Golden hour",
	}, pngUpload(t))
	require.NoError(t, err)

	assert.Equal(t, "Sunset at the Pier", photo.Title)
	assert.Regexp(t, slugShape, photo.Slug)
	assert.True(t, strings.HasPrefix(photo.Slug, "sunset-at-the-pier-"))

	// Alt text defaults to the title; visibility defaults to public
	assert.Equal(t, "Sunset at the Pier", photo.AltText)
	assert.True(t, photo.IsPublic)
	assert.False(t, photo.IsFeatured)
	assert.Zero(t, photo.ViewsCount)

	// Dimensions come from the decoded header
	assert.Equal(t, int32(800), photo.Width)
	assert.Equal(t, int32(600), photo.Height)

	// Original plus thumbnail, both under their namespaces
	keys := store.keys()
	require.Len(t, keys, 2)
	assert.True(t, strings.HasPrefix(photo.FilePath, "photos/"))
	assert.True(t, strings.HasSuffix(photo.FilePath, ".png"))
	assert.True(t, strings.HasPrefix(photo.ThumbnailPath, "photos/thumbnails/thumb_"))
	assert.True(t, strings.HasSuffix(photo.ThumbnailPath, ".jpg"))

	assert.Equal(t, "http://files.test/"+photo.FilePath, photo.FileURL)
	assert.Equal(t, "holiday.png", photo.OriginalFilename)
}

func TestUpload_ThumbnailFailureStillCreatesPhoto(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, failingThumbnailer{})

	photo, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title: "Broken Thumb",
	}, pngUpload(t))
	require.NoError(t, err)

	assert.Empty(t, photo.ThumbnailPath)

	// Without a thumbnail the original stands in, so clients always get
	// something to render in grid views
	assert.Equal(t, photo.FileURL, photo.ThumbnailURL)
	assert.NotEmpty(t, photo.ThumbnailURL)

	// Only the original was stored
	keys := store.keys()
	require.Len(t, keys, 1)
	assert.Equal(t, photo.FilePath, keys[0])
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title: "A PDF",
	}, UploadFile{
		Filename:    "doc.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 fake"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	// A rejected upload leaves no blob and no record behind
	assert.Empty(t, store.keys())
	assert.Zero(t, catalog.createCalls)
}

func TestUpload_RejectsOversize(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title: "Huge",
	}, UploadFile{
		Filename:    "huge.jpg",
		ContentType: "image/jpeg",
		Data:        make([]byte, domain.MaxPhotoSize+1),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(err))
	assert.Empty(t, store.keys())
}

func TestUpload_MissingTitle(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{}, pngUpload(t))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Empty(t, store.keys())
}

func TestUpload_StorageFailureAborts(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	store.putErr = errors.New("backend unavailable")
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title: "Doomed",
	}, pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, domain.ESTORAGE, domain.ErrorCode(err))
	assert.Zero(t, catalog.createCalls)
}

func TestUpload_InsertFailureCleansUpBlobs(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.createErr = errors.New("insert failed")
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title: "Orphan",
	}, pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	// Compensating deletes removed the original and the thumbnail
	assert.Empty(t, store.keys())
}

func TestUpload_UnknownTagRejected(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), domain.UploadPhotoParams{
		Title:  "Tagged",
		TagIDs: []uuid.UUID{uuid.New()},
	}, pngUpload(t))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "tag_ids")
	assert.Empty(t, store.keys())
}

// =============================================================================
// Reads and Mutation
// =============================================================================

func uploadTestPhoto(t *testing.T, svc PhotoService, userID uuid.UUID, public bool) *domain.Photo {
	t.Helper()
	photo, err := svc.Upload(context.Background(), userID, domain.UploadPhotoParams{
		Title:    "Fixture",
		IsPublic: &public,
	}, pngUpload(t))
	require.NoError(t, err)
	return photo
}

func TestGetBySlug_IncrementsViews(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	owner := uuid.New()
	photo := uploadTestPhoto(t, svc, owner, true)

	detail, err := svc.GetBySlug(context.Background(), photo.Slug, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), detail.Photo.ViewsCount)
	assert.Equal(t, "Test Owner", detail.Photo.OwnerName)

	detail, err = svc.GetBySlug(context.Background(), photo.Slug, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), detail.Photo.ViewsCount)
}

func TestGetBySlug_PrivateVisibility(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	owner := uuid.New()
	photo := uploadTestPhoto(t, svc, owner, false)

	// Anonymous and other users are refused
	_, err := svc.GetBySlug(context.Background(), photo.Slug, uuid.Nil)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	_, err = svc.GetBySlug(context.Background(), photo.Slug, uuid.New())
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	// The owner sees it
	detail, err := svc.GetBySlug(context.Background(), photo.Slug, owner)
	require.NoError(t, err)
	assert.Equal(t, photo.ID, detail.Photo.ID)
}

func TestGetBySlug_UnknownSlug(t *testing.T) {
	svc := newTestPhotoService(newFakeCatalog(), newFakeStorage(), nil)

	_, err := svc.GetBySlug(context.Background(), "no-such-photo-abc123", uuid.Nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestLike_ReturnsNewCount(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	photo := uploadTestPhoto(t, svc, uuid.New(), true)

	count, err := svc.Like(context.Background(), photo.Slug, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)

	count, err = svc.Like(context.Background(), photo.Slug, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), count)
}

func TestDownload_StreamsOriginal(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	photo := uploadTestPhoto(t, svc, uuid.New(), true)

	res, err := svc.Download(context.Background(), photo.Slug, uuid.Nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "holiday.png", res.Filename)
	assert.Equal(t, "image/png", res.ContentType)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, photo.FileSize, int64(len(body)))

	row, err := catalog.GetPhotoByID(context.Background(), photo.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), row.DownloadsCount)
}

func TestDelete_OwnershipAndBlobCleanup(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	owner := uuid.New()
	photo := uploadTestPhoto(t, svc, owner, true)

	// Someone else cannot delete it
	err := svc.Delete(context.Background(), photo.ID, uuid.New())
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	require.NoError(t, svc.Delete(context.Background(), photo.ID, owner))

	// Record gone, blobs gone
	_, err = catalog.GetPhotoByID(context.Background(), photo.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Empty(t, store.keys())
}

func TestUpdate_OwnerEditsMetadata(t *testing.T) {
	catalog := newFakeCatalog()
	store := newFakeStorage()
	svc := newTestPhotoService(catalog, store, nil)

	owner := uuid.New()
	photo := uploadTestPhoto(t, svc, owner, true)

	hidden := false
	updated, err := svc.Update(context.Background(), photo.ID, owner, domain.UpdatePhotoParams{
		Title:    "Renamed",
		AltText:  "A renamed photo",
		IsPublic: &hidden,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "A renamed photo", updated.AltText)
	assert.False(t, updated.IsPublic)
	// The slug never changes after creation
	assert.Equal(t, photo.Slug, updated.Slug)
}
