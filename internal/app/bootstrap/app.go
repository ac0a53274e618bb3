// Package bootstrap wires configuration into the HTTP application shared by
// the long-running server and the Lambda entrypoint.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueflare-energy/leadcapture/internal/api/router"
	appconfig "github.com/blueflare-energy/leadcapture/internal/config"
	"github.com/blueflare-energy/leadcapture/internal/contact"
	"github.com/blueflare-energy/leadcapture/internal/http/handlers"
	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/internal/notify"
	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/internal/ratelimit"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

// Deps are the process-level collaborators that differ between binaries
// and tests.
type Deps struct {
	// AWSConfig loads SDK configuration on demand. Required only for the
	// DynamoDB backend and the SES provider.
	AWSConfig func(ctx context.Context) (aws.Config, error)
	// HTTPClient is used for Graph calls. Defaults to a client bounded by
	// EMAIL_TIMEOUT.
	HTTPClient *http.Client
	// Graph endpoint overrides; empty means the public Microsoft endpoints.
	GraphTokenURL string
	GraphBaseURL  string
	// Registry receives the application metrics. Defaults to a fresh
	// registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// App is the assembled HTTP application.
type App struct {
	Handler  http.Handler
	Stores   *Stores
	Notifier *notify.Service
}

// Close releases storage connections.
func (a *App) Close() {
	if a != nil && a.Stores != nil {
		a.Stores.Close()
	}
}

// New builds storage, the daily limiter, the notifier and the router.
func New(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	loc, err := ratelimit.LoadLocation(cfg.RateLimitTimezone)
	if err != nil {
		return nil, err
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	contactMetrics := metrics.NewContactMetrics(reg)

	stores, err := BuildStores(ctx, cfg, deps, logger)
	if err != nil {
		return nil, err
	}

	sender, err := BuildEmailSender(ctx, cfg, deps, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}
	notifier := notify.NewService(sender, notify.Options{
		To:                   cfg.GraphToEmail,
		ContactSubjectPrefix: cfg.ContactSubjectPrefix,
		AlertSubjectPrefix:   cfg.AlertSubjectPrefix,
		Timeout:              cfg.EmailTimeout,
		Metrics:              contactMetrics,
	}, logger)

	limit := cfg.DailyContactLimit
	if limit <= 0 {
		limit = ratelimit.DefaultLimit
	}
	limiter := ratelimit.New(stores.Buckets, limit, ratelimit.WithLocation(loc))

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		ContactHandler:     contact.NewHandler(limiter, stores.Leads, notifier, contact.Options{Metrics: contactMetrics}, logger),
		GatusWebhook:       handlers.NewGatusWebhookHandler(cfg.GatusWebhookToken, notifier, contactMetrics, logger),
		LeadsHandler:       leads.NewHandler(stores.Leads, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ThrottleRPS:        cfg.ThrottleRPS,
		ThrottleBurst:      cfg.ThrottleBurst,
	})

	logger.Info("application ready",
		"storage", string(stores.Kind),
		"daily_limit", limit,
		"timezone", loc.String(),
		"email_enabled", notifier.Enabled(),
	)
	return &App{Handler: handler, Stores: stores, Notifier: notifier}, nil
}
