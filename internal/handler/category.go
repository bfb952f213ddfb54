package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// CategoryHandler serves category CRUD.
//
// Listing and reading are public; mutations require an authenticated user.
type CategoryHandler struct {
	categories service.CategoryService
	gallery    service.GalleryService
	logger     *slog.Logger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(categories service.CategoryService, gallery service.GalleryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		gallery:    gallery,
		logger:     logger,
	}
}

type categoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
	DisplayOrder int32  `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

func (req categoryRequest) params() domain.CategoryParams {
	return domain.CategoryParams{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Color:        strings.TrimSpace(req.Color),
		Icon:         strings.TrimSpace(req.Icon),
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	}
}

// List handles GET /categories.
//
// Query parameters: search, active, page, per_page.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.CategoryFilter{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Active:  queryBool(r, "active"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}

	page, err := h.categories.List(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, renderPage(page, func(c *domain.Category) categoryJSON {
		return renderCategory(c)
	}))
}

// Show handles GET /categories/{id}, returning the category together with
// a page of its photos, newest first.
func (h *CategoryHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	category, err := h.categories.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Detail listings are public-only: even the owner's private photos
	// stay out, so no viewer is passed.
	photos, err := h.gallery.List(r.Context(), domain.PhotoFilter{
		CategoryID: &id,
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "per_page"),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryDetailJSON{
		Category: renderCategory(category),
		Photos:   renderPage(&photos.Photos, renderPhoto),
	})
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	category, err := h.categories.Create(r.Context(), req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]categoryJSON{"category": renderCategory(category)})
}

// Update handles PATCH /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	category, err := h.categories.Update(r.Context(), id, req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]categoryJSON{"category": renderCategory(category)})
}

// Delete handles DELETE /categories/{id}.
//
// Responds 409 while photos still reference the category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
