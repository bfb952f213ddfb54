// Package service contains the business logic layer.
//
// This file implements the photo service: the upload ingestion pipeline and
// all single-photo operations (detail, download, like, edit, delete).
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/metrics"
	"github.com/fotoden/fotoden/internal/repository"
	"github.com/fotoden/fotoden/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// UploadFile carries the raw bytes of an uploaded image plus the name the
// client gave it. ContentType is what the server sniffed from the bytes,
// never the client header.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PhotoDetail is a photo plus the context shown on its detail page.
type PhotoDetail struct {
	Photo   *domain.Photo
	Related []*domain.Photo
}

// DownloadResult streams an original back to the client.
type DownloadResult struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	Filename    string // the original upload filename
}

// PhotoService defines the interface for photo operations.
type PhotoService interface {
	// Upload runs the ingestion pipeline: validation, blob write, best-effort
	// thumbnail and metadata extraction, catalog insert, tag attachment.
	// Returns domain.EINVALID/ETOOLARGE for rejected files, ESTORAGE when the
	// original could not be stored.
	Upload(ctx context.Context, userID uuid.UUID, params domain.UploadPhotoParams, file UploadFile) (*domain.Photo, error)

	// GetBySlug returns a photo with its category, tags, owner name and
	// related photos, incrementing its view counter.
	// Returns domain.ENOTFOUND for unknown slugs, EFORBIDDEN for a private
	// photo viewed by anyone but its owner.
	GetBySlug(ctx context.Context, slug string, viewerID uuid.UUID) (*PhotoDetail, error)

	// Download streams the original file, incrementing the download counter.
	// Visibility rules match GetBySlug.
	Download(ctx context.Context, slug string, viewerID uuid.UUID) (*DownloadResult, error)

	// Like increments the like counter and returns the new count.
	// Visibility rules match GetBySlug.
	Like(ctx context.Context, slug string, viewerID uuid.UUID) (int32, error)

	// Update edits photo metadata. The slug, file and derived metadata are
	// immutable. Returns domain.EFORBIDDEN unless userID owns the photo.
	Update(ctx context.Context, id, userID uuid.UUID, params domain.UpdatePhotoParams) (*domain.Photo, error)

	// Delete soft-deletes the catalog record and best-effort deletes the
	// blobs. Returns domain.EFORBIDDEN unless userID owns the photo.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

// PhotoConfig tunes the ingestion pipeline.
type PhotoConfig struct {
	// DecodeTimeout bounds thumbnail generation so a pathological image
	// cannot stall an upload. The upload still succeeds on timeout.
	DecodeTimeout time.Duration

	// StoreAttempts is how many times the mandatory original write is tried.
	StoreAttempts uint64

	// RelatedLimit is how many related photos a detail view carries.
	RelatedLimit int32
}

// DefaultPhotoConfig returns the production defaults.
func DefaultPhotoConfig() PhotoConfig {
	return PhotoConfig{
		DecodeTimeout: 5 * time.Second,
		StoreAttempts: 3,
		RelatedLimit:  6,
	}
}

// photoService implements the PhotoService interface.
type photoService struct {
	catalog    Catalog
	store      storage.Storage
	thumbnails ThumbnailProcessor
	metadata   MetadataExtractor
	logger     *slog.Logger
	cfg        PhotoConfig
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	catalog Catalog,
	store storage.Storage,
	thumbnails ThumbnailProcessor,
	metadata MetadataExtractor,
	logger *slog.Logger,
	cfg PhotoConfig,
) PhotoService {
	if cfg.DecodeTimeout <= 0 {
		cfg.DecodeTimeout = DefaultPhotoConfig().DecodeTimeout
	}
	if cfg.StoreAttempts == 0 {
		cfg.StoreAttempts = DefaultPhotoConfig().StoreAttempts
	}
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = DefaultPhotoConfig().RelatedLimit
	}
	return &photoService{
		catalog:    catalog,
		store:      store,
		thumbnails: thumbnails,
		metadata:   metadata,
		logger:     logger,
		cfg:        cfg,
	}
}

// =============================================================================
// Upload
// =============================================================================

// Upload runs the ingestion pipeline.
//
// Ordering is deliberate: everything that can reject the upload happens
// before the first blob write, and the catalog insert happens last so a
// stored record always points at an existing blob. Thumbnail and metadata
// extraction sit in between and are allowed to fail without failing the
// upload.
func (s *photoService) Upload(ctx context.Context, userID uuid.UUID, params domain.UploadPhotoParams, file UploadFile) (*domain.Photo, error) {
	const op = "photo.upload"

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if err := domain.ValidatePhotoFile(op, file.ContentType, int64(len(file.Data))); err != nil {
		return nil, err
	}

	// Referenced category and tags must exist before any side effect
	if params.CategoryID != nil {
		if _, err := s.catalog.GetCategoryByID(ctx, *params.CategoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NewValidationError(op, "category_id", "Selected category does not exist")
			}
			return nil, domain.Internal(err, op, "failed to verify category")
		}
	}
	for _, tagID := range params.TagIDs {
		if _, err := s.catalog.GetTagByID(ctx, tagID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NewValidationError(op, "tag_ids", "Selected tag does not exist")
			}
			return nil, domain.Internal(err, op, "failed to verify tag")
		}
	}

	// Mandatory original write under an opaque random key
	token := domain.RandomToken(domain.FileTokenLength)
	originalKey := storage.PhotoKey(token, file.ContentType)
	if err := s.storeOriginal(ctx, originalKey, file); err != nil {
		return nil, domain.Storage(err, op, "failed to store photo")
	}

	// Best-effort stages; failures are logged and counted, never fatal
	thumbnailKey := s.generateThumbnail(ctx, originalKey, file.Data)
	meta := s.extractMetadata(originalKey, file.Data)

	row, err := s.insertPhoto(ctx, op, userID, params, file, originalKey, thumbnailKey, meta)
	if err != nil {
		// The blobs are orphans now; remove them so storage stays consistent
		s.deleteBlobs(originalKey, thumbnailKey)
		return nil, err
	}

	if err := s.attachTags(ctx, row.ID, params.TagIDs); err != nil {
		s.deleteBlobs(originalKey, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to attach tags")
	}

	metrics.PhotosUploaded.Inc()
	metrics.UploadBytes.Observe(float64(len(file.Data)))

	s.logger.Info("photo uploaded",
		"photo_id", row.ID,
		"user_id", userID,
		"slug", row.Slug,
		"size", len(file.Data),
		"mime_type", file.ContentType,
		"thumbnail", thumbnailKey != "",
	)

	return s.decorate(ctx, row)
}

// storeOriginal writes the original blob with bounded retries. Size and key
// validation errors are permanent; everything else is retried.
func (s *photoService) storeOriginal(ctx context.Context, key string, file UploadFile) error {
	backoff := retry.WithMaxRetries(s.cfg.StoreAttempts-1, retry.NewExponential(200*time.Millisecond))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.StorageRetries.Inc()
		}

		err := s.store.Put(ctx, key, bytes.NewReader(file.Data), storage.PutOptions{
			ContentType: file.ContentType,
			MaxSize:     domain.MaxPhotoSize,
			Overwrite:   true, // random keys never collide; retries must overwrite partials
			Public:      true,
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrInvalidKey) {
			return err
		}
		s.logger.Warn("original write failed, will retry", "key", key, "error", err)
		return retry.RetryableError(err)
	})
}

// generateThumbnail produces and stores the thumbnail, returning its key or
// "" on failure. Generation runs in a goroutine so a pathological image
// cannot stall the upload past the decode timeout.
func (s *photoService) generateThumbnail(ctx context.Context, originalKey string, data []byte) string {
	type result struct {
		thumb []byte
		err   error
	}

	done := make(chan result, 1)
	go func() {
		thumb, _, _, err := s.thumbnails.GenerateThumbnail(bytes.NewReader(data))
		done <- result{thumb: thumb, err: err}
	}()

	var thumb []byte
	select {
	case r := <-done:
		if r.err != nil {
			metrics.IngestThumbnailFailures.Inc()
			s.logger.Warn("thumbnail generation failed", "key", originalKey, "error", r.err)
			return ""
		}
		thumb = r.thumb
	case <-time.After(s.cfg.DecodeTimeout):
		metrics.IngestThumbnailFailures.Inc()
		s.logger.Warn("thumbnail generation timed out", "key", originalKey, "timeout", s.cfg.DecodeTimeout)
		return ""
	}

	key := storage.ThumbnailKeyFor(originalKey)
	err := s.store.Put(ctx, key, bytes.NewReader(thumb), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
		Public:      true,
	})
	if err != nil {
		metrics.IngestThumbnailFailures.Inc()
		s.logger.Warn("thumbnail write failed", "key", key, "error", err)
		return ""
	}
	return key
}

// extractMetadata reads dimensions and EXIF, counting uploads whose header
// could not be decoded at all.
func (s *photoService) extractMetadata(originalKey string, data []byte) ImageMetadata {
	meta := s.metadata.ExtractMetadata(data)
	if !meta.HasDimensions {
		metrics.IngestExifFailures.Inc()
		s.logger.Warn("image header could not be decoded", "key", originalKey)
	}
	return meta
}

// insertPhoto writes the catalog record, retrying once with a fresh slug if
// the random suffix collides.
func (s *photoService) insertPhoto(
	ctx context.Context,
	op string,
	userID uuid.UUID,
	params domain.UploadPhotoParams,
	file UploadFile,
	originalKey, thumbnailKey string,
	meta ImageMetadata,
) (repository.Photo, error) {
	altText := params.AltText
	if altText == "" {
		altText = params.Title
	}
	isPublic := true
	if params.IsPublic != nil {
		isPublic = *params.IsPublic
	}
	isFeatured := params.IsFeatured != nil && *params.IsFeatured

	arg := repository.CreatePhotoParams{
		UserID:           userID,
		CategoryID:       nullUUID(params.CategoryID),
		Title:            params.Title,
		Description:      nullString(params.Description),
		FilePath:         originalKey,
		ThumbnailPath:    nullString(thumbnailKey),
		OriginalFilename: file.Filename,
		MimeType:         file.ContentType,
		FileSize:         int64(len(file.Data)),
		Width:            nullInt32(int32(meta.Width), meta.HasDimensions),
		Height:           nullInt32(int32(meta.Height), meta.HasDimensions),
		Exif:             nullExif(meta.Exif),
		AltText:          nullString(altText),
		TakenAt:          nullTime(meta.TakenAt),
		Latitude:         nullFloat64(meta.Latitude),
		Longitude:        nullFloat64(meta.Longitude),
		IsPublic:         isPublic,
		IsFeatured:       isFeatured,
	}
	if meta.Exif != nil {
		arg.CameraMake = nullString(meta.Exif.Make)
		arg.CameraModel = nullString(meta.Exif.Model)
		arg.FocalLength = nullString(meta.Exif.FocalLength)
		arg.Aperture = nullString(meta.Exif.FNumber)
		arg.ShutterSpeed = nullString(meta.Exif.ExposureTime)
		arg.Iso = nullInt32(int32(meta.Exif.ISO), meta.Exif.ISO > 0)
	}

	// The random suffix makes collisions astronomically unlikely; one retry
	// covers the unlucky case without looping forever on real errors.
	arg.Slug = domain.NewSlug(params.Title)
	row, err := s.catalog.CreatePhoto(ctx, arg)
	if err != nil && repository.IsUniqueViolation(err) {
		arg.Slug = domain.NewSlug(params.Title)
		row, err = s.catalog.CreatePhoto(ctx, arg)
	}
	if err != nil {
		return repository.Photo{}, domain.Internal(err, op, "failed to create photo")
	}
	return row, nil
}

func (s *photoService) attachTags(ctx context.Context, photoID uuid.UUID, tagIDs []uuid.UUID) error {
	for _, tagID := range tagIDs {
		if err := s.catalog.AttachPhotoTag(ctx, photoID, tagID); err != nil {
			return fmt.Errorf("attach tag %s: %w", tagID, err)
		}
	}
	return nil
}

// deleteBlobs removes the original and thumbnail after a failed insert.
// Best-effort with a detached context: the request may already be dead.
func (s *photoService) deleteBlobs(originalKey, thumbnailKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.store.Delete(ctx, originalKey); err != nil {
		s.logger.Error("failed to clean up original after aborted upload", "key", originalKey, "error", err)
	}
	if thumbnailKey != "" {
		if err := s.store.Delete(ctx, thumbnailKey); err != nil {
			s.logger.Error("failed to clean up thumbnail after aborted upload", "key", thumbnailKey, "error", err)
		}
	}
}

// =============================================================================
// Reads
// =============================================================================

// GetBySlug returns the photo detail, bumping the view counter.
func (s *photoService) GetBySlug(ctx context.Context, slug string, viewerID uuid.UUID) (*PhotoDetail, error) {
	const op = "photo.get"

	row, err := s.fetchVisible(ctx, op, slug, viewerID)
	if err != nil {
		return nil, err
	}

	// Counted per request, not per unique viewer
	if err := s.catalog.IncrementPhotoViews(ctx, row.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to record view")
	}
	metrics.PhotoViews.Inc()
	row.ViewsCount++

	photo, err := s.decorate(ctx, row)
	if err != nil {
		return nil, err
	}

	related, err := s.relatedPhotos(ctx, row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load related photos")
	}

	return &PhotoDetail{Photo: photo, Related: related}, nil
}

// Download streams the original, bumping the download counter.
func (s *photoService) Download(ctx context.Context, slug string, viewerID uuid.UUID) (*DownloadResult, error) {
	const op = "photo.download"

	row, err := s.fetchVisible(ctx, op, slug, viewerID)
	if err != nil {
		return nil, err
	}

	body, info, err := s.store.Get(ctx, row.FilePath)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.NotFound(op, "photo file", slug)
		}
		return nil, domain.Storage(err, op, "failed to read photo")
	}

	if err := s.catalog.IncrementPhotoDownloads(ctx, row.ID); err != nil {
		body.Close()
		return nil, domain.Internal(err, op, "failed to record download")
	}
	metrics.PhotoDownloads.Inc()

	return &DownloadResult{
		Body:        body,
		ContentType: row.MimeType,
		Size:        info.Size,
		Filename:    row.OriginalFilename,
	}, nil
}

// Like bumps the like counter and returns the new count.
func (s *photoService) Like(ctx context.Context, slug string, viewerID uuid.UUID) (int32, error) {
	const op = "photo.like"

	row, err := s.fetchVisible(ctx, op, slug, viewerID)
	if err != nil {
		return 0, err
	}

	if err := s.catalog.IncrementPhotoLikes(ctx, row.ID); err != nil {
		return 0, domain.Internal(err, op, "failed to record like")
	}
	metrics.PhotoLikes.Inc()

	return row.LikesCount + 1, nil
}

// fetchVisible loads a photo by slug and applies the visibility rule:
// public photos are open to everyone, private photos only to their owner.
func (s *photoService) fetchVisible(ctx context.Context, op, slug string, viewerID uuid.UUID) (repository.Photo, error) {
	row, err := s.catalog.GetPhotoBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Photo{}, domain.NotFound(op, "photo", slug)
		}
		return repository.Photo{}, domain.Internal(err, op, "failed to load photo")
	}
	if !row.IsPublic && row.UserID != viewerID {
		return repository.Photo{}, domain.Forbidden(op, "This photo is private")
	}
	return row, nil
}

// relatedPhotos loads the newest public photos sharing the category.
func (s *photoService) relatedPhotos(ctx context.Context, row repository.Photo) ([]*domain.Photo, error) {
	rows, err := s.catalog.ListRelatedPhotos(ctx, repository.ListRelatedPhotosParams{
		PhotoID:    row.ID,
		CategoryID: row.CategoryID,
		Limit:      s.cfg.RelatedLimit,
	})
	if err != nil {
		return nil, err
	}

	related := make([]*domain.Photo, 0, len(rows))
	for _, r := range rows {
		p := photoFromRow(r)
		s.fillURLs(ctx, p)
		related = append(related, p)
	}
	return related, nil
}

// =============================================================================
// Mutation
// =============================================================================

// Update edits photo metadata.
func (s *photoService) Update(ctx context.Context, id, userID uuid.UUID, params domain.UpdatePhotoParams) (*domain.Photo, error) {
	const op = "photo.update"

	row, err := s.fetchOwned(ctx, op, id, userID)
	if err != nil {
		return nil, err
	}

	if err := params.Validate(op); err != nil {
		return nil, err
	}
	if params.CategoryID != nil {
		if _, err := s.catalog.GetCategoryByID(ctx, *params.CategoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NewValidationError(op, "category_id", "Selected category does not exist")
			}
			return nil, domain.Internal(err, op, "failed to verify category")
		}
	}
	if params.TagIDs != nil {
		for _, tagID := range params.TagIDs {
			if _, err := s.catalog.GetTagByID(ctx, tagID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.NewValidationError(op, "tag_ids", "Selected tag does not exist")
				}
				return nil, domain.Internal(err, op, "failed to verify tag")
			}
		}
	}

	altText := params.AltText
	if altText == "" {
		altText = params.Title
	}
	isPublic := row.IsPublic
	if params.IsPublic != nil {
		isPublic = *params.IsPublic
	}
	isFeatured := row.IsFeatured
	if params.IsFeatured != nil {
		isFeatured = *params.IsFeatured
	}

	updated, err := s.catalog.UpdatePhoto(ctx, repository.UpdatePhotoParams{
		ID:          id,
		Title:       params.Title,
		Description: nullString(params.Description),
		CategoryID:  nullUUID(params.CategoryID),
		AltText:     nullString(altText),
		IsPublic:    isPublic,
		IsFeatured:  isFeatured,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update photo")
	}

	// nil leaves tags untouched; an empty slice clears them
	if params.TagIDs != nil {
		if err := s.catalog.ClearPhotoTags(ctx, id); err != nil {
			return nil, domain.Internal(err, op, "failed to sync tags")
		}
		if err := s.attachTags(ctx, id, params.TagIDs); err != nil {
			return nil, domain.Internal(err, op, "failed to sync tags")
		}
	}

	s.logger.Info("photo updated", "photo_id", id, "user_id", userID)

	return s.decorate(ctx, updated)
}

// Delete soft-deletes the record and best-effort deletes the blobs.
func (s *photoService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	const op = "photo.delete"

	row, err := s.fetchOwned(ctx, op, id, userID)
	if err != nil {
		return err
	}

	if err := s.catalog.SoftDeletePhoto(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete photo")
	}

	// Blob cleanup never blocks the catalog delete; a leaked blob is
	// recoverable, a dangling record is user-visible
	if err := s.store.Delete(ctx, row.FilePath); err != nil {
		s.logger.Warn("failed to delete original blob", "key", row.FilePath, "error", err)
	}
	if row.ThumbnailPath.Valid {
		if err := s.store.Delete(ctx, row.ThumbnailPath.String); err != nil {
			s.logger.Warn("failed to delete thumbnail blob", "key", row.ThumbnailPath.String, "error", err)
		}
	}

	s.logger.Info("photo deleted", "photo_id", id, "user_id", userID)

	return nil
}

// fetchOwned loads a photo by id and verifies ownership.
func (s *photoService) fetchOwned(ctx context.Context, op string, id, userID uuid.UUID) (repository.Photo, error) {
	row, err := s.catalog.GetPhotoByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Photo{}, domain.NotFound(op, "photo", id.String())
		}
		return repository.Photo{}, domain.Internal(err, op, "failed to load photo")
	}
	if row.UserID != userID {
		return repository.Photo{}, domain.Forbidden(op, "You do not own this photo")
	}
	return row, nil
}

// =============================================================================
// Decoration
// =============================================================================

// decorate converts a row to a domain photo and fills the fields that live
// outside the photos table: URLs, owner name, category and tags.
func (s *photoService) decorate(ctx context.Context, row repository.Photo) (*domain.Photo, error) {
	const op = "photo.decorate"

	p := photoFromRow(row)
	s.fillURLs(ctx, p)

	if owner, err := s.catalog.GetUserByID(ctx, row.UserID); err == nil {
		p.OwnerName = owner.Name
	}

	if row.CategoryID.Valid {
		cat, err := s.catalog.GetCategoryByID(ctx, row.CategoryID.UUID)
		switch {
		case err == nil:
			p.Category = categoryFromRow(cat)
		case !errors.Is(err, sql.ErrNoRows):
			return nil, domain.Internal(err, op, "failed to load category")
		}
	}

	tagRows, err := s.catalog.ListPhotoTags(ctx, row.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load tags")
	}
	p.Tags = make([]domain.Tag, 0, len(tagRows))
	for _, t := range tagRows {
		p.Tags = append(p.Tags, *tagFromRow(t))
	}

	return p, nil
}

func (s *photoService) fillURLs(ctx context.Context, p *domain.Photo) {
	fillPhotoURLs(ctx, s.store, p)
}
