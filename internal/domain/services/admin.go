package services

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
)

// AdminService backs the admin dashboard.
type AdminService interface {
	Overview(ctx context.Context) (*models.AnalyticsOverview, error)
	DailyUsage(ctx context.Context, days int) ([]models.DailyUsage, error)
	ModelUsage(ctx context.Context, days int) ([]models.ModelUsage, error)

	ListUsers(ctx context.Context, params repositories.ListUsersParams) (*UserPage, error)
	UpdateUser(ctx context.Context, userID string, req *AdminUpdateUserRequest) (*models.User, error)
	ResetUserUsage(ctx context.Context, userID string) (*models.User, error)

	ListModels(ctx context.Context) ([]models.ModelConfig, error)
	UpsertModel(ctx context.Context, cfg *models.ModelConfig) (*models.ModelConfig, error)
}

// AdminUpdateUserRequest changes plan and ban state
type AdminUpdateUserRequest struct {
	Plan     *models.Plan `json:"plan,omitempty"`
	IsBanned *bool        `json:"is_banned,omitempty"`
}

// UserPage is one page of the admin user table
type UserPage struct {
	Users []models.UserListItem `json:"users"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
