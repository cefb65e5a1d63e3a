package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/medtriage-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medtriage-assistant/internal/http/middleware"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unregistered.
type Config struct {
	Logger             *logging.Logger
	Sessions           *handlers.SessionsHandler
	Chat               *handlers.ChatHandler
	Appointments       *handlers.AppointmentsHandler
	Knowledge          *handlers.KnowledgeHandler
	WebChat            *handlers.WebChatHandler
	AdminStats         *handlers.AdminStatsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.WebChat != nil {
		r.Get("/ws/chat", cfg.WebChat.HandleWebSocket)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(middleware.Compress(5))

		if cfg.Chat != nil {
			api.Post("/chat", cfg.Chat.Chat)
		}
		if cfg.Sessions != nil {
			api.Post("/sessions", cfg.Sessions.Create)
			api.Route("/sessions/{sessionID}", func(s chi.Router) {
				s.Get("/", cfg.Sessions.Get)
				s.Delete("/", cfg.Sessions.Destroy)
				s.Post("/reset", cfg.Sessions.Reset)
				s.Get("/history", cfg.Sessions.History)
			})
		}
		if cfg.Appointments != nil {
			api.Route("/appointments", func(a chi.Router) {
				a.Get("/", cfg.Appointments.List)
				a.Post("/book", cfg.Appointments.Book)
				a.Get("/slots", cfg.Appointments.Slots)
				a.Post("/{appointmentID}/cancel", cfg.Appointments.Cancel)
			})
		}
		if cfg.Knowledge != nil {
			api.Get("/conditions", cfg.Knowledge.Conditions)
			api.Get("/specialists", cfg.Knowledge.Specialists)
		}
	})

	if cfg.AdminStats != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/stats", cfg.AdminStats.Stats)
		})
	}

	return r
}
