package config

import (
	"testing"
	"time"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_PROVIDER", "LLM_API_KEY", "OPENROUTER_API_KEY", "LLM_BASE_URL", "LLM_MODEL",
		"LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TOP_P", "LLM_HISTORY_MESSAGES", "LLM_FALLBACK_PROVIDER"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	clearLLMEnv(t)
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionIdleTTL != 2*time.Hour {
		t.Fatalf("expected default idle ttl, got %s", cfg.SessionIdleTTL)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 2048 || cfg.LLM.TopP != 0.95 {
		t.Fatalf("unexpected llm sampling defaults: %+v", cfg.LLM)
	}
	if cfg.LLM.HistoryMessages != 10 {
		t.Fatalf("expected history cap 10, got %d", cfg.LLM.HistoryMessages)
	}
	if cfg.LLM.Provider != ProviderOpenRouter {
		t.Fatalf("expected openrouter without key, got %s", cfg.LLM.Provider)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("PERSIST_CHAT_HISTORY", "false")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected parsed origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if cfg.PersistChatHistory {
		t.Fatalf("expected chat history persistence disabled")
	}
}

func TestDetectProvider(t *testing.T) {
	cases := map[string]string{
		"gsk_abc":    ProviderGroq,
		"sk-or-v1-x": ProviderOpenRouter,
		"ts_123":     ProviderTogether,
		"whatever":   ProviderOpenRouter,
		"":           ProviderOpenRouter,
	}
	for key, want := range cases {
		if got := DetectProvider(key); got != want {
			t.Fatalf("DetectProvider(%q) = %s, want %s", key, got, want)
		}
	}
}

func TestLoadLLMFromKeyPrefix(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_API_KEY", "gsk_test")
	cfg := LoadLLM()
	if cfg.Provider != ProviderGroq {
		t.Fatalf("expected groq, got %s", cfg.Provider)
	}
	if cfg.BaseURL != "https://api.groq.com/openai/v1" || cfg.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected groq defaults: %+v", cfg)
	}
	if !cfg.OpenAICompatible() {
		t.Fatalf("groq should be openai compatible")
	}
}

func TestLoadLLMExplicitProviderWins(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_API_KEY", "gsk_test")
	t.Setenv("LLM_PROVIDER", "Bedrock")
	t.Setenv("LLM_MODEL", "anthropic.claude")
	cfg := LoadLLM()
	if cfg.Provider != ProviderBedrock {
		t.Fatalf("expected bedrock, got %s", cfg.Provider)
	}
	if cfg.OpenAICompatible() {
		t.Fatalf("bedrock is not openai compatible")
	}
	if cfg.BaseURL != "" {
		t.Fatalf("expected no base url for bedrock, got %s", cfg.BaseURL)
	}
}

func TestLoadLLMLegacyOpenRouterKey(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-or-legacy")
	cfg := LoadLLM()
	if cfg.APIKey != "sk-or-legacy" {
		t.Fatalf("expected legacy key, got %q", cfg.APIKey)
	}
	if cfg.Model != "meta-llama/llama-3.3-70b-instruct" {
		t.Fatalf("unexpected model %s", cfg.Model)
	}
}
