package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sterling9879/Sage-IA/internal/capabilities"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
)

// Service implements ModelCatalog over the admin-managed model configs,
// joined with the static capability registry.
type Service struct {
	repo         repositories.ModelConfigRepository
	registry     *capabilities.Registry
	defaultModel string
	logger       *slog.Logger
}

var _ services.ModelCatalog = (*Service)(nil)

// NewService creates a catalog. registry may be nil.
func NewService(repo repositories.ModelConfigRepository, registry *capabilities.Registry, defaultModel string, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		registry:     registry,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// ListAvailable returns enabled models ordered by sort order
func (s *Service) ListAvailable(ctx context.Context) ([]services.ModelInfo, error) {
	configs, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled models: %w", err)
	}

	infos := make([]services.ModelInfo, 0, len(configs))
	for _, cfg := range configs {
		info := services.ModelInfo{
			ModelConfig:   cfg,
			ContextWindow: capabilities.DefaultContextWindow,
		}
		if s.registry != nil {
			info.ContextWindow = s.registry.ContextWindow(cfg.ModelID)
			if caps, err := s.registry.GetModelCapabilities(cfg.ModelID); err == nil {
				info.Description = caps.Description
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Resolve returns the first enabled candidate, else the configured default.
// Empty candidates are skipped.
func (s *Service) Resolve(ctx context.Context, candidates ...string) (string, error) {
	configs, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return "", fmt.Errorf("list enabled models: %w", err)
	}

	enabled := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		enabled[cfg.ModelID] = struct{}{}
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := enabled[c]; ok {
			return c, nil
		}
		s.logger.Debug("model not enabled, trying next candidate", "model", c)
	}
	return s.defaultModel, nil
}
