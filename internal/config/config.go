package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	SessionIdleTTL     time.Duration
	PersistChatHistory bool

	LLM LLM

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModelID       string
	ArchiveBucket       string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	FrontDeskEmail    string
}

// LLM describes the chat-completion provider. It is resolved once at startup
// and handed to the client constructors.
type LLM struct {
	Provider         string
	APIKey           string
	BaseURL          string
	Model            string
	FallbackProvider string
	Temperature      float32
	MaxTokens        int
	TopP             float32
	HistoryMessages  int
	Timeout          time.Duration
}

// Provider names understood by the bootstrap package.
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderTogether   = "together"
	ProviderOpenAI     = "openai"
	ProviderBedrock    = "bedrock"
	ProviderGemini     = "gemini"
)

type providerDefaults struct {
	baseURL string
	model   string
}

var openAICompatible = map[string]providerDefaults{
	ProviderGroq:       {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.3-70b-versatile"},
	ProviderOpenRouter: {baseURL: "https://openrouter.ai/api/v1", model: "meta-llama/llama-3.3-70b-instruct"},
	ProviderTogether:   {baseURL: "https://api.together.xyz/v1", model: "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo"},
	ProviderOpenAI:     {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		SessionIdleTTL:     getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
		PersistChatHistory: getEnvAsBool("PERSIST_CHAT_HISTORY", true),

		LLM: LoadLLM(),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", ""),

		// SendGrid Email Configuration
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Triage Assistant"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		FrontDeskEmail:    getEnv("FRONT_DESK_EMAIL", ""),
	}
}

// LoadLLM resolves the provider settings. An explicit LLM_PROVIDER wins;
// otherwise the provider is inferred from the API key prefix.
func LoadLLM() LLM {
	apiKey := getEnv("LLM_API_KEY", getEnv("OPENROUTER_API_KEY", ""))
	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "")))
	if provider == "" {
		provider = DetectProvider(apiKey)
	}

	cfg := LLM{
		Provider:         provider,
		APIKey:           apiKey,
		BaseURL:          getEnv("LLM_BASE_URL", ""),
		Model:            getEnv("LLM_MODEL", ""),
		FallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		Temperature:      float32(getEnvAsFloat("LLM_TEMPERATURE", 0.7)),
		MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 2048),
		TopP:             float32(getEnvAsFloat("LLM_TOP_P", 0.95)),
		HistoryMessages:  getEnvAsInt("LLM_HISTORY_MESSAGES", 10),
		Timeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
	}
	if defaults, ok := openAICompatible[provider]; ok {
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaults.baseURL
		}
		if cfg.Model == "" {
			cfg.Model = defaults.model
		}
	}
	return cfg
}

// DetectProvider maps an API key prefix to a provider name.
func DetectProvider(apiKey string) string {
	key := strings.TrimSpace(apiKey)
	switch {
	case strings.HasPrefix(key, "gsk_"):
		return ProviderGroq
	case strings.HasPrefix(key, "sk-or-"):
		return ProviderOpenRouter
	case strings.HasPrefix(key, "ts_"):
		return ProviderTogether
	default:
		return ProviderOpenRouter
	}
}

// OpenAICompatible reports whether the provider speaks the chat completions
// wire format.
func (l LLM) OpenAICompatible() bool {
	_, ok := openAICompatible[l.Provider]
	return ok
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
