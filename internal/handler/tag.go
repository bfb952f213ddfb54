package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// TagHandler serves tag CRUD.
//
// Listing and reading are public; mutations require an authenticated user.
type TagHandler struct {
	tags    service.TagService
	gallery service.GalleryService
	logger  *slog.Logger
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(tags service.TagService, gallery service.GalleryService, logger *slog.Logger) *TagHandler {
	return &TagHandler{
		tags:    tags,
		gallery: gallery,
		logger:  logger,
	}
}

type tagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (req tagRequest) params() domain.TagParams {
	return domain.TagParams{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       strings.TrimSpace(req.Color),
	}
}

// List handles GET /tags.
//
// Query parameters: search, page, per_page.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.TagFilter{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}

	page, err := h.tags.List(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, renderPage(page, func(t *domain.Tag) tagJSON {
		return renderTag(t)
	}))
}

// Show handles GET /tags/{id}, returning the tag together with a page of
// its photos, newest first.
func (h *TagHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tag, err := h.tags.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Detail listings are public-only: even the owner's private photos
	// stay out, so no viewer is passed.
	photos, err := h.gallery.List(r.Context(), domain.PhotoFilter{
		TagID:   &id,
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tagDetailJSON{
		Tag:    renderTag(tag),
		Photos: renderPage(&photos.Photos, renderPhoto),
	})
}

// Create handles POST /tags.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tag, err := h.tags.Create(r.Context(), req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]tagJSON{"tag": renderTag(tag)})
}

// Update handles PATCH /tags/{id}.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tag, err := h.tags.Update(r.Context(), id, req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]tagJSON{"tag": renderTag(tag)})
}

// Delete handles DELETE /tags/{id}.
//
// Responds 409 while photos are still tagged with it.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.tags.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
