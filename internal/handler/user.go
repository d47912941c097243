package handler

import (
	"log/slog"
	"net/http"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// UserHandler handles the caller's own account
type UserHandler struct {
	userService services.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

type updateProfileRequest struct {
	Name         httputil.OptionalString `json:"name"`
	DefaultModel httputil.OptionalString `json:"default_model"`
	Theme        *models.Theme           `json:"theme"`
}

// GetProfile returns the caller's profile
// GET /api/user
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetProfile(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// UpdateProfile applies a partial profile update
// PATCH /api/user
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body updateProfileRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}

	req := &services.UpdateProfileRequest{
		Name:         body.Name.Domain(),
		DefaultModel: body.DefaultModel.Domain(),
		Theme:        body.Theme,
	}

	user, err := h.userService.UpdateProfile(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// GetUsage reports the caller's quota for today
// GET /api/user/usage
func (h *UserHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.userService.GetUsage(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, usage)
}
