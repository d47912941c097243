package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/service/llm/chat"
	"github.com/sterling9879/Sage-IA/internal/service/llm/conversation"
	"github.com/sterling9879/Sage-IA/internal/service/llm/prompt"
	"github.com/sterling9879/Sage-IA/internal/service/llm/providers/anthropic"
	"github.com/sterling9879/Sage-IA/internal/service/llm/providers/lorem"
	"github.com/sterling9879/Sage-IA/internal/service/llm/providers/openai"
	"github.com/sterling9879/Sage-IA/internal/service/llm/providers/wavespeed"
	"github.com/sterling9879/Sage-IA/internal/service/llm/tokens"
	"github.com/sterling9879/Sage-IA/internal/service/quota"
	"github.com/sterling9879/Sage-IA/internal/service/usage"
)

// Provider names accepted by INFERENCE_PROVIDER.
const (
	ProviderWaveSpeed = "wavespeed"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLorem     = "lorem"
)

// SetupProvider builds the inference provider selected by configuration.
func SetupProvider(cfg *config.Config, logger *slog.Logger) (llmSvc.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.InferenceProvider))

	var (
		provider llmSvc.Provider
		err      error
	)
	switch name {
	case ProviderWaveSpeed:
		provider, err = wavespeed.NewClient(cfg.WaveSpeedAPIKey, cfg.WaveSpeedBaseURL, logger)
	case ProviderOpenAI:
		provider, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil)
	case ProviderAnthropic:
		provider, err = anthropic.NewProvider(cfg.AnthropicAPIKey)
	case ProviderLorem:
		if cfg.Environment == "prod" {
			return nil, fmt.Errorf("lorem provider is not allowed in production")
		}
		provider = lorem.NewProvider(cfg.LoremDelay)
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("setup %s provider: %w", name, err)
	}

	logger.Info("inference provider initialized", "provider", provider.Name())
	return provider, nil
}

// Repositories groups the stores used by the LLM services.
type Repositories struct {
	Conversations llmRepo.ConversationRepository
	Messages      llmRepo.MessageRepository
	Users         repositories.UserRepository
	UsageLogs     repositories.UsageLogRepository
	TxManager     repositories.TransactionManager
}

// Services holds all LLM-related services
type Services struct {
	Chat         llmSvc.ChatService
	Conversation llmSvc.ConversationService
}

// SetupServices initializes all LLM services with proper dependency injection
func SetupServices(
	repos Repositories,
	provider llmSvc.Provider,
	locker llmSvc.Locker,
	catalog services.ModelCatalog,
	authorizer services.ResourceAuthorizer,
	guard *quota.Guard,
	costs *usage.CostEstimator,
	cfg *config.Config,
	logger *slog.Logger,
) *Services {
	estimator := tokens.NewEstimator()
	builder := prompt.NewBuilder(estimator, cfg.HistoryTokenBudget, prompt.DefaultLabels)

	chatService := chat.NewService(chat.Deps{
		Conversations: repos.Conversations,
		Messages:      repos.Messages,
		Users:         repos.Users,
		UsageLogs:     repos.UsageLogs,
		TxManager:     repos.TxManager,
		Authorizer:    authorizer,
		Catalog:       catalog,
		Provider:      provider,
		Locker:        locker,
		Builder:       builder,
		Tokens:        estimator,
		Costs:         costs,
		Guard:         guard,
	}, chat.Settings{
		SystemPrompt:     cfg.SystemPrompt,
		HistoryBudget:    cfg.HistoryTokenBudget,
		InferenceTimeout: cfg.InferenceTimeout,
		LockTTL:          cfg.LockTTL,
	}, logger.With("service", "chat"))

	conversationService := conversation.NewService(
		repos.Conversations,
		repos.Messages,
		repos.Users,
		authorizer,
		catalog,
		logger.With("service", "conversation"),
	)

	return &Services{
		Chat:         chatService,
		Conversation: conversationService,
	}
}
