package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// AdminHandler serves the admin dashboard API
type AdminHandler struct {
	adminService services.AdminService
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService services.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// Overview returns the headline counters
// GET /api/admin/analytics/overview
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.adminService.Overview(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, overview)
}

// DailyUsage returns the per-day usage series
// GET /api/admin/analytics/daily?days=7
func (h *AdminHandler) DailyUsage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.DailyUsage(r.Context(), httputil.QueryInt(r, "days", 0))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"days": rows})
}

// ModelUsage returns usage grouped by model
// GET /api/admin/analytics/models?days=30
func (h *AdminHandler) ModelUsage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.ModelUsage(r.Context(), httputil.QueryInt(r, "days", 0))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"models": rows})
}

// ListUsers returns a page of users
// GET /api/admin/users?page=1&limit=20&search=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.adminService.ListUsers(r.Context(), repositories.ListUsersParams{
		Search: r.URL.Query().Get("search"),
		Page:   httputil.QueryInt(r, "page", 1),
		Limit:  httputil.QueryInt(r, "limit", 0),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// UpdateUser changes a user's plan or ban state
// PATCH /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	var req services.AdminUpdateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), userID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// ResetUsage zeroes a user's daily counter
// POST /api/admin/users/{id}/reset-usage
func (h *AdminHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	user, err := h.adminService.ResetUserUsage(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// ListModels returns every catalog entry
// GET /api/admin/models
func (h *AdminHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	configs, err := h.adminService.ListModels(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"models": configs})
}

// UpsertModel creates or replaces a catalog entry. Model ids contain "/",
// so the id is the wildcard remainder of the path.
// PUT /api/admin/models/*
func (h *AdminHandler) UpsertModel(w http.ResponseWriter, r *http.Request) {
	modelID, err := url.PathUnescape(chi.URLParam(r, "*"))
	modelID = strings.Trim(modelID, "/ ")
	if err != nil || modelID == "" {
		respondInvalid(w, "Model ID is required")
		return
	}

	var cfg models.ModelConfig
	if err := httputil.ParseJSON(w, r, &cfg); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}
	cfg.ModelID = modelID

	saved, err := h.adminService.UpsertModel(r.Context(), &cfg)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, saved)
}
