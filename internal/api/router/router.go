package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blueflare-energy/leadcapture/internal/http/handlers"
	httpmiddleware "github.com/blueflare-energy/leadcapture/internal/http/middleware"
	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactHandler     http.Handler
	GatusWebhook       *handlers.GatusWebhookHandler
	LeadsHandler       *leads.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP burst guard. Zero rps disables it.
	ThrottleRPS   float64
	ThrottleBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// CORS runs first so throttled, recovered and unknown-route responses
	// carry the headers too.
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RateLimit(cfg.ThrottleRPS, cfg.ThrottleBurst))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Both paths are served so the form works behind a /api prefix.
		for _, prefix := range []string{"", "/api"} {
			if cfg.ContactHandler != nil {
				public.Handle(prefix+"/contact", cfg.ContactHandler)
			}
			if cfg.GatusWebhook != nil {
				public.HandleFunc(prefix+"/gatus-webhook", cfg.GatusWebhook.Handle)
			}
		}
	})

	if cfg.AdminAuthSecret != "" && cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
