package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/medtriage-assistant/internal/config"
	"github.com/wolfman30/medtriage-assistant/internal/llm"
	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// BuildLLMClient returns the configured provider, wrapped with the fallback
// provider when one is set. It returns nil, nil when no provider has
// credentials; the assistant then answers general questions with an apology.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	primary, err := buildProvider(ctx, cfg, cfg.LLM.Provider, awsCfg)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		logger.Warn("no language model configured; general questions will get an apology", "provider", cfg.LLM.Provider)
		return nil, nil
	}

	fallbackName := cfg.LLM.FallbackProvider
	if fallbackName == "" || fallbackName == cfg.LLM.Provider {
		return primary, nil
	}
	fallback, err := buildProvider(ctx, cfg, fallbackName, awsCfg)
	if err != nil {
		logger.Warn("fallback llm unavailable", "provider", fallbackName, "error", err)
		return primary, nil
	}
	if fallback == nil {
		return primary, nil
	}
	logger.Info("llm fallback enabled", "primary", cfg.LLM.Provider, "fallback", fallbackName)
	return llm.NewFallbackClient(primary, fallback, logger), nil
}

func buildProvider(ctx context.Context, cfg *appconfig.Config, provider string, awsCfg *aws.Config) (llm.Client, error) {
	switch provider {
	case appconfig.ProviderBedrock:
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, nil
		}
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: bedrock requires AWS configuration")
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID), nil
	case appconfig.ProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, nil
		}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		return client, nil
	default:
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return nil, nil
		}
		settings := cfg.LLM
		settings.Provider = provider
		if !settings.OpenAICompatible() {
			return nil, fmt.Errorf("bootstrap: unknown llm provider %q", provider)
		}
		client, err := llm.NewOpenAIClient(settings.APIKey, settings.BaseURL, settings.Model)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		return client, nil
	}
}

// BuildAssistant pairs client with Redis-backed history when redisClient is
// set and in-memory history otherwise.
func BuildAssistant(client llm.Client, redisClient *redis.Client, cfg *appconfig.Config, m *metrics.TriageMetrics, logger *logging.Logger) *llm.Assistant {
	if client == nil {
		return nil
	}
	capacity := cfg.LLM.HistoryMessages
	if capacity <= 0 {
		capacity = llm.DefaultHistoryMessages
	}
	var history llm.HistoryStore
	if redisClient != nil {
		history = llm.NewRedisHistoryStore(redisClient, capacity)
	} else {
		history = llm.NewMemoryHistoryStore(capacity)
	}
	model := cfg.LLM.Model
	switch cfg.LLM.Provider {
	case appconfig.ProviderBedrock:
		model = cfg.BedrockModelID
	case appconfig.ProviderGemini:
		model = cfg.GeminiModelID
	}
	return llm.NewAssistant(client, history, llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   int32(cfg.LLM.MaxTokens),
		TopP:        cfg.LLM.TopP,
		Timeout:     cfg.LLM.Timeout,
	}, m, logger)
}
