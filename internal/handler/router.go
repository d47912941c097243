package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sterling9879/Sage-IA/internal/middleware"
)

// Handlers bundles every HTTP handler mounted by the router.
type Handlers struct {
	Health       *HealthHandler
	Chat         *ChatHandler
	Conversation *ConversationHandler
	Models       *ModelsHandler
	User         *UserHandler
	Admin        *AdminHandler
}

// NewRouter builds the chi route tree. auth runs on everything under /api.
func NewRouter(h Handlers, auth func(http.Handler) http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Post("/chat", h.Chat.SendMessage)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.Conversation.ListConversations)
			r.Post("/", h.Conversation.CreateConversation)
			r.Get("/{id}", h.Conversation.GetConversation)
			r.Patch("/{id}", h.Conversation.UpdateConversation)
			r.Delete("/{id}", h.Conversation.DeleteConversation)
			r.Post("/{id}/messages/{messageID}/regenerate", h.Chat.RegenerateMessage)
			r.Patch("/{id}/messages/{messageID}", h.Chat.EditMessage)
		})

		r.Get("/models", h.Models.ListModels)

		r.Get("/user", h.User.GetProfile)
		r.Patch("/user", h.User.UpdateProfile)
		r.Get("/user/usage", h.User.GetUsage)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/analytics/overview", h.Admin.Overview)
			r.Get("/analytics/daily", h.Admin.DailyUsage)
			r.Get("/analytics/models", h.Admin.ModelUsage)

			r.Get("/users", h.Admin.ListUsers)
			r.Patch("/users/{id}", h.Admin.UpdateUser)
			r.Post("/users/{id}/reset-usage", h.Admin.ResetUsage)

			r.Get("/models", h.Admin.ListModels)
			r.Put("/models/*", h.Admin.UpsertModel)
		})
	})

	return r
}
