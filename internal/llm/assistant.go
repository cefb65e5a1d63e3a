package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Options controls sampling for every request an Assistant sends.
type Options struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int32
	TopP        float32
	Timeout     time.Duration
}

// Assistant pairs a provider with per-session history.
type Assistant struct {
	client  Client
	history HistoryStore
	opts    Options
	metrics *metrics.TriageMetrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewAssistant wires a provider client and a history store. A nil history
// store keeps ten messages per session in memory.
func NewAssistant(client Client, history HistoryStore, opts Options, m *metrics.TriageMetrics, logger *logging.Logger) *Assistant {
	if client == nil {
		panic("llm: client cannot be nil")
	}
	if history == nil {
		history = NewMemoryHistoryStore(DefaultHistoryMessages)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Provider == "" {
		opts.Provider = "unknown"
	}
	return &Assistant{
		client:  client,
		history: history,
		opts:    opts,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("medtriage.internal.llm"),
	}
}

// Chat sends userMessage with the session's recent history. History is only
// extended when the provider answers.
func (a *Assistant) Chat(ctx context.Context, sessionID, userMessage, systemPrompt string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "llm.chat", trace.WithAttributes(
		attribute.String("medtriage.session_id", sessionID),
		attribute.String("medtriage.llm.provider", a.opts.Provider),
	))
	defer span.End()

	past, err := a.history.Load(ctx, sessionID)
	if err != nil {
		// A broken history store should not take the assistant down.
		a.logger.Warn("history load failed", "session_id", sessionID, "error", err)
		past = nil
	}

	user := Message{Role: RoleUser, Content: userMessage}
	req := Request{
		Model:       a.opts.Model,
		Messages:    append(past, user),
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
		TopP:        a.opts.TopP,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		req.System = []string{systemPrompt}
	}

	callCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.client.Complete(callCtx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyCompletion
	}
	latency := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	a.metrics.ObserveLLM(a.opts.Provider, status, latency.Seconds())
	span.SetAttributes(attribute.Float64("medtriage.llm.latency_ms", float64(latency.Milliseconds())))
	if err != nil {
		span.RecordError(err)
		a.logger.Warn("llm completion failed", "provider", a.opts.Provider, "latency_ms", latency.Milliseconds(), "error", err)
		return "", fmt.Errorf("llm: chat: %w", err)
	}
	a.logger.Debug("llm completion", "provider", a.opts.Provider, "latency_ms", latency.Milliseconds(),
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)

	if err := a.history.Append(ctx, sessionID, user, Message{Role: RoleAssistant, Content: resp.Text}); err != nil {
		a.logger.Warn("history append failed", "session_id", sessionID, "error", err)
	}
	return resp.Text, nil
}

// Reset forgets the session's history.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.history.Clear(ctx, sessionID)
}
