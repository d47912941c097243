package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/service/quota"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUserService(repo *memUserRepo) *UserService {
	return NewUserService(repo, enabledCatalog{"default/model": true, "fast/model": true},
		quota.NewGuard(quota.DefaultLimits(50, 500)), discardLogger())
}

func TestEnsureUser_UsesFreeLimit(t *testing.T) {
	repo := newMemUserRepo()
	svc := newUserService(repo)

	require.NoError(t, svc.EnsureUser(context.Background(), "u1", "u1@example.com"))
	assert.Equal(t, 50, repo.ensured["u1"])
	assert.Equal(t, models.PlanFree, repo.users["u1"].Plan)
}

func TestGetUsage(t *testing.T) {
	repo := newMemUserRepo(
		&models.User{ID: "free", Plan: models.PlanFree, MessagesUsed: 45, MessagesLimit: 50},
		&models.User{ID: "vip", Plan: models.PlanUnlimited, MessagesUsed: 900},
		&models.User{ID: "banned", Plan: models.PlanPro, MessagesLimit: 500, IsBanned: true},
	)
	svc := newUserService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC) }

	st, err := svc.GetUsage(context.Background(), "free")
	require.NoError(t, err)
	assert.Equal(t, 5, st.Remaining)
	assert.Equal(t, 50, st.Limit)
	assert.InDelta(t, 90.0, st.UsagePercent, 0.001)
	assert.True(t, st.CanSend)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), st.ResetsAt)

	st, err = svc.GetUsage(context.Background(), "vip")
	require.NoError(t, err)
	assert.Equal(t, quota.Unlimited, st.Remaining)
	assert.Equal(t, quota.Unlimited, st.Limit)
	assert.Zero(t, st.UsagePercent)

	st, err = svc.GetUsage(context.Background(), "banned")
	require.NoError(t, err)
	assert.False(t, st.CanSend)
}

func TestUpdateProfile(t *testing.T) {
	repo := newMemUserRepo(&models.User{ID: "u1", Plan: models.PlanFree, Theme: models.ThemeSystem})
	svc := newUserService(repo)

	name := "  Ana  "
	model := "fast/model"
	dark := models.ThemeDark
	u, err := svc.UpdateProfile(context.Background(), "u1", &services.UpdateProfileRequest{
		Name:         models.OptionalString{Present: true, Value: &name},
		DefaultModel: models.OptionalString{Present: true, Value: &model},
		Theme:        &dark,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", *u.Name)
	assert.Equal(t, "fast/model", *u.DefaultModel)
	assert.Equal(t, models.ThemeDark, repo.users["u1"].Theme)

	t.Run("null clears default model", func(t *testing.T) {
		u, err := svc.UpdateProfile(context.Background(), "u1", &services.UpdateProfileRequest{
			DefaultModel: models.OptionalString{Present: true},
		})
		require.NoError(t, err)
		assert.Nil(t, u.DefaultModel)
		assert.Equal(t, "Ana", *u.Name)
	})

	t.Run("unavailable model", func(t *testing.T) {
		bad := "retired/model"
		_, err := svc.UpdateProfile(context.Background(), "u1", &services.UpdateProfileRequest{
			DefaultModel: models.OptionalString{Present: true, Value: &bad},
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("invalid theme", func(t *testing.T) {
		neon := models.Theme("neon")
		_, err := svc.UpdateProfile(context.Background(), "u1", &services.UpdateProfileRequest{Theme: &neon})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
