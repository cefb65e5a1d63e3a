// Command chat runs the triage assistant as an interactive terminal session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolfman30/medtriage-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/medtriage-assistant/internal/config"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	// Logs go to stderr so they do not interleave with the conversation.
	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	sessionID, err := app.Sessions.Ensure(ctx, "")
	if err != nil {
		logger.Error("failed to start session", "error", err)
		return
	}
	c := &console{
		in:        os.Stdin,
		out:       os.Stdout,
		turns:     app.Sessions,
		sessionID: sessionID,
	}
	if err := c.run(ctx); err != nil {
		logger.Error("chat loop failed", "error", err)
	}
}
