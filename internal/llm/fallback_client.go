package llm

import (
	"context"

	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// FallbackClient retries a failed completion against a second provider.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

// NewFallbackClient wraps primary. A nil fallback makes it a pass-through.
func NewFallbackClient(primary, fallback Client, logger *logging.Logger) *FallbackClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	c.logger.Warn("primary llm failed", "error", err, "fallback_available", c.fallback != nil)
	if c.fallback == nil {
		return Response{}, err
	}
	// The fallback provider has its own default model.
	req.Model = ""
	resp, fbErr := c.fallback.Complete(ctx, req)
	if fbErr != nil {
		c.logger.Error("fallback llm also failed", "primary_error", err, "fallback_error", fbErr)
		return Response{}, fbErr
	}
	return resp, nil
}
