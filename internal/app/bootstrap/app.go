// Package bootstrap wires configuration into a running assistant.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/medtriage-assistant/internal/api/router"
	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/chatlog"
	appconfig "github.com/wolfman30/medtriage-assistant/internal/config"
	"github.com/wolfman30/medtriage-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medtriage-assistant/internal/http/middleware"
	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// App is a fully wired assistant.
type App struct {
	Config      *appconfig.Config
	Logger      *logging.Logger
	Knowledge   *knowledge.Base
	Registry    *prometheus.Registry
	Metrics     *metrics.TriageMetrics
	Scheduler   *appointments.Service
	Router      *triage.Router
	Sessions    *triage.Sessions
	ChatLog     *chatlog.Store
	RateLimiter *httpmiddleware.RateLimiter

	pool  *pgxpool.Pool
	db    *sql.DB
	redis *redis.Client
}

// Build connects the optional backends named in cfg and wires the dialogue
// stack on top of them. Missing backends degrade to in-memory equivalents.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{Config: cfg, Logger: logger, Knowledge: knowledge.Default(), Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewTriageMetrics(app.Registry)

	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	pool, err := BuildPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.pool = pool
	app.redis = BuildRedisClient(ctx, cfg, logger, true)

	schedulerOpts := []appointments.Option{appointments.WithMetrics(app.Metrics)}
	if n := BuildNotifier(cfg, awsCfg, logger); n != nil {
		schedulerOpts = append(schedulerOpts, appointments.WithNotifier(n))
	}
	app.Scheduler = appointments.NewService(BuildAppointmentStore(pool, logger), logger, schedulerOpts...)

	client, err := BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	assistant := BuildAssistant(client, app.redis, cfg, app.Metrics, logger)

	var chatter triage.Chatter
	if assistant != nil {
		chatter = assistant
	}
	app.Router = triage.NewRouter(app.Knowledge, app.Scheduler, chatter, logger, triage.WithRouterMetrics(app.Metrics))

	sessionOpts := []triage.SessionsOption{
		triage.WithIdleTTL(cfg.SessionIdleTTL),
		triage.WithSessionMetrics(app.Metrics),
	}
	if assistant != nil {
		sessionOpts = append(sessionOpts, triage.WithHistory(assistant))
	}
	if a := BuildArchiver(cfg, awsCfg, logger); a != nil {
		sessionOpts = append(sessionOpts, triage.WithArchiver(a))
	}
	if db := BuildChatLogDB(pool, cfg); db != nil {
		app.db = db
		app.ChatLog = chatlog.NewStore(db)
		sessionOpts = append(sessionOpts, triage.WithRecorder(app.ChatLog))
	}
	app.Sessions = triage.NewSessions(app.Router, logger, sessionOpts...)
	app.RateLimiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return app, nil
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	var history handlers.HistoryReader
	if a.ChatLog != nil {
		history = a.ChatLog
	}
	return router.New(&router.Config{
		Logger:             a.Logger,
		Sessions:           handlers.NewSessionsHandler(a.Sessions, history, a.Logger),
		Chat:               handlers.NewChatHandler(a.Sessions, a.Logger),
		Appointments:       handlers.NewAppointmentsHandler(a.Scheduler, a.Logger),
		Knowledge:          handlers.NewKnowledgeHandler(a.Knowledge),
		WebChat:            handlers.NewWebChatHandler(a.Sessions, a.Logger),
		AdminStats:         handlers.NewAdminStatsHandler(a.Registry, a.Sessions, a.Knowledge),
		AdminAuthSecret:    a.Config.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		RateLimiter:        a.RateLimiter,
	})
}

// Close archives live sessions and releases backend connections.
func (a *App) Close() {
	if a.Sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if n := a.Sessions.Shutdown(ctx); n > 0 {
			a.Logger.Info("closed live sessions", "count", n)
		}
		cancel()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
