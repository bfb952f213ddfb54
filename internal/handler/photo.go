package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
	"github.com/fotoden/fotoden/internal/storage"
)

// maxUploadForm caps a multipart upload request: the photo itself plus
// headroom for the metadata fields.
const maxUploadForm = domain.MaxPhotoSize + 1<<20

// PhotoHandler serves photo upload, gallery browsing and photo management.
type PhotoHandler struct {
	photos  service.PhotoService
	gallery service.GalleryService
	logger  *slog.Logger
}

// NewPhotoHandler creates a PhotoHandler.
func NewPhotoHandler(photos service.PhotoService, gallery service.GalleryService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photos:  photos,
		gallery: gallery,
		logger:  logger,
	}
}

// =============================================================================
// Upload
// =============================================================================

// Upload handles POST /photos.
//
// Expects a multipart form with a "photo" file part and metadata fields:
// title, description, alt_text, category_id, tag_ids (comma-separated),
// is_public, is_featured.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		code := domain.EINVALID
		if _, ok := err.(*http.MaxBytesError); ok {
			code = domain.ETOOLARGE
		}
		ErrorResponse(w, r, h.logger, domain.Errorf(code, "handler.upload", "Could not parse the upload form"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, err := h.readUploadFile(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params, err := h.parseUploadParams(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	photo, err := h.photos.Upload(r.Context(), user.ID, params, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]photoJSON{"photo": renderPhoto(photo)})
}

// readUploadFile pulls the "photo" part out of the multipart form and
// sniffs its real content type. The client-supplied Content-Type header
// on the part is treated as a hint only.
func (h *PhotoHandler) readUploadFile(r *http.Request) (service.UploadFile, error) {
	part, header, err := r.FormFile("photo")
	if err != nil {
		return service.UploadFile{}, domain.NewValidationError("handler.upload", "photo", "A photo file is required")
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, domain.MaxPhotoSize+1))
	if err != nil {
		return service.UploadFile{}, domain.Internal(err, "handler.upload", "Could not read the uploaded file")
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	contentType := storage.DetectContentType(header.Header.Get("Content-Type"), header.Filename, bytes.NewReader(sniff))

	return service.UploadFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (h *PhotoHandler) parseUploadParams(r *http.Request) (domain.UploadPhotoParams, error) {
	params := domain.UploadPhotoParams{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		AltText:     strings.TrimSpace(r.FormValue("alt_text")),
		IsPublic:    formBool(r, "is_public"),
		IsFeatured:  formBool(r, "is_featured"),
	}

	categoryID, err := formUUID(r, "category_id")
	if err != nil {
		return params, err
	}
	params.CategoryID = categoryID

	tagIDs, err := formUUIDList(r, "tag_ids")
	if err != nil {
		return params, err
	}
	params.TagIDs = tagIDs

	return params, nil
}

// =============================================================================
// Gallery
// =============================================================================

// Gallery handles GET /gallery.
//
// Query parameters: search, category_id, tag_id, featured, sort
// (latest|oldest|most_viewed|most_liked|title), page, per_page.
func (h *PhotoHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	filter := domain.PhotoFilter{
		ViewerID: auth.ViewerID(r.Context()),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Sort:     domain.ParseSortKey(r.URL.Query().Get("sort")),
		Page:     queryInt(r, "page"),
		PerPage:  queryInt(r, "per_page"),
	}

	categoryID, err := queryUUID(r, "category_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	filter.CategoryID = categoryID

	tagID, err := queryUUID(r, "tag_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	filter.TagID = tagID

	if featured := queryBool(r, "featured"); featured != nil {
		filter.FeaturedOnly = *featured
	}

	page, err := h.gallery.List(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, renderGallery(page))
}

// Show handles GET /gallery/{slug}.
func (h *PhotoHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.photos.GetBySlug(r.Context(), r.PathValue("slug"), auth.ViewerID(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, photoDetailJSON{
		Photo:   renderPhoto(detail.Photo),
		Related: renderPhotos(detail.Related),
	})
}

// Download handles GET /gallery/{slug}/download, streaming the original
// file with its upload filename.
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	result, err := h.photos.Download(r.Context(), r.PathValue("slug"), auth.ViewerID(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": result.Filename,
	}))
	if result.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		// Headers are gone; all we can do is note the broken stream.
		h.logger.Warn("download stream interrupted", "error", err, "slug", r.PathValue("slug"))
	}
}

// Like handles POST /gallery/{slug}/like.
func (h *PhotoHandler) Like(w http.ResponseWriter, r *http.Request) {
	count, err := h.photos.Like(r.Context(), r.PathValue("slug"), auth.ViewerID(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int32{"likes_count": count})
}

// =============================================================================
// Management
// =============================================================================

type updatePhotoRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AltText     string       `json:"alt_text"`
	CategoryID  *uuid.UUID   `json:"category_id"`
	TagIDs      *[]uuid.UUID `json:"tag_ids"`
	IsPublic    *bool        `json:"is_public"`
	IsFeatured  *bool        `json:"is_featured"`
}

// Update handles PATCH /photos/{id}.
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updatePhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.UpdatePhotoParams{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		AltText:     strings.TrimSpace(req.AltText),
		CategoryID:  req.CategoryID,
		IsPublic:    req.IsPublic,
		IsFeatured:  req.IsFeatured,
	}
	// Absent tag_ids leaves tags untouched; [] clears them.
	if req.TagIDs != nil {
		params.TagIDs = *req.TagIDs
		if params.TagIDs == nil {
			params.TagIDs = []uuid.UUID{}
		}
	}

	photo, err := h.photos.Update(r.Context(), id, user.ID, params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]photoJSON{"photo": renderPhoto(photo)})
}

// Delete handles DELETE /photos/{id}.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.photos.Delete(r.Context(), id, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Form Helpers
// =============================================================================

func formBool(r *http.Request, key string) *bool {
	raw := r.FormValue(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

func formUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError("handler.upload", key, "Must be a valid UUID")
	}
	return &id, nil
}

func formUUIDList(r *http.Request, key string) ([]uuid.UUID, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, domain.NewValidationError("handler.upload", key, "Must be a comma-separated list of UUIDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
