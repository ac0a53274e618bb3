package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueflare-energy/leadcapture/internal/http/middleware"
	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/internal/ratelimit"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

var contactTracer = otel.Tracer("blueflare.internal.contact")

// maxBodyBytes bounds the JSON body; the form never comes close.
const maxBodyBytes = 64 << 10

// Response messages.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgTooManyRequests  = "Too many requests. Please try again tomorrow."
	MsgProcessFailed    = "Failed to process submission"
	MsgInternalError    = "Internal server error"
)

// Submission outcomes recorded in metrics.
const (
	outcomeAccepted    = "accepted"
	outcomeInvalid     = "invalid"
	outcomeRateLimited = "rate_limited"
	outcomeFailed      = "failed"
	outcomePanic       = "panic"
)

// RateLimiter decides whether an identity is over its daily quota.
type RateLimiter interface {
	Check(ctx context.Context, ip, userAgent string) (ratelimit.Decision, error)
}

// LeadStore persists accepted submissions.
type LeadStore interface {
	Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error)
}

// Notifier emails the operator about a stored lead.
type Notifier interface {
	Enabled() bool
	NotifyLead(ctx context.Context, lead *leads.Lead) error
}

// Options tune the handler. Zero values use the defaults.
type Options struct {
	Policies PolicyTable
	Metrics  *metrics.ContactMetrics
	// ClientIP resolves the caller address. Defaults to middleware.ClientIP.
	ClientIP func(*http.Request) string
}

// Handler serves the contact form endpoint.
type Handler struct {
	limiter  RateLimiter
	store    LeadStore
	notifier Notifier
	policies PolicyTable
	metrics  *metrics.ContactMetrics
	clientIP func(*http.Request) string
	logger   *logging.Logger
}

// NewHandler wires the pipeline. The limiter and notifier may be nil, which
// skips the step; the store is required.
func NewHandler(limiter RateLimiter, store LeadStore, notifier Notifier, opts Options, logger *logging.Logger) *Handler {
	if store == nil {
		panic("contact: lead store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	policies := opts.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	clientIP := opts.ClientIP
	if clientIP == nil {
		clientIP = middleware.ClientIP
	}
	return &Handler{
		limiter:  limiter,
		store:    store,
		notifier: notifier,
		policies: policies,
		metrics:  opts.Metrics,
		clientIP: clientIP,
		logger:   logger,
	}
}

// ServeHTTP runs validate, rate-check, store, notify and maps the outcome to
// a status code. CORS headers come from the router middleware.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := h.clientIP(r)
	h.logger.Info("contact form request", "method", r.Method, "ip", ip)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("contact handler panic", "panic", fmt.Sprint(rec), "ip", ip)
			h.metrics.ObserveSubmission(outcomePanic)
			writeError(w, http.StatusInternalServerError, MsgInternalError)
		}
	}()

	ctx, span := contactTracer.Start(r.Context(), "contact.submit")
	defer span.End()

	raw, err := decodeBody(w, r)
	if err != nil {
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	if result := Validate(raw); !result.Valid {
		h.logger.Info("validation failed", "reason", result.Error, "ip", ip)
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeError(w, http.StatusBadRequest, result.Error)
		return
	}
	payload := ExtractPayload(raw)

	if h.limiter != nil {
		decision, err := h.checkRateLimit(ctx, ip, payload.UserAgent)
		if err != nil {
			if h.fail(ctx, w, StepRateLimit, err) {
				return
			}
		} else if decision.Limited {
			h.logger.Info("rate limited", "ip", ip, "count", decision.Count)
			h.metrics.ObserveSubmission(outcomeRateLimited)
			writeError(w, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}
	}

	lead, err := h.storeLead(ctx, payload, ip)
	if err != nil {
		if h.fail(ctx, w, StepStoreLead, err) {
			return
		}
	} else {
		h.logger.Info("lead stored", "lead_id", lead.ID)
		span.SetAttributes(attribute.String("blueflare.lead_id", lead.ID))
	}

	if lead != nil {
		switch {
		case h.notifier == nil || !h.notifier.Enabled():
			h.logger.Info("email notifications disabled", "lead_id", lead.ID)
		default:
			if err := h.notify(ctx, lead); err != nil {
				if h.fail(ctx, w, StepNotify, err) {
					return
				}
			} else {
				h.logger.Info("email notification sent", "lead_id", lead.ID)
			}
		}
	}

	h.metrics.ObserveSubmission(outcomeAccepted)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// fail applies the step policy. It reports true when the response has been
// written and the pipeline must stop.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, step Step, err error) bool {
	policy := h.policies.For(step)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetAttributes(attribute.String("blueflare.failed_step", string(step)))

	h.logger.Error("contact step failed", "step", string(step), "policy", policy.String(), "error", err)
	if policy != Fatal {
		return false
	}
	span.SetStatus(codes.Error, string(step)+" failed")
	h.metrics.ObserveSubmission(outcomeFailed)
	writeError(w, http.StatusInternalServerError, MsgProcessFailed)
	return true
}

func (h *Handler) checkRateLimit(ctx context.Context, ip, userAgent string) (ratelimit.Decision, error) {
	defer h.observeStep(StepRateLimit, time.Now())
	decision, err := h.limiter.Check(ctx, ip, userAgent)
	switch {
	case err != nil:
		h.metrics.ObserveRateLimit("error")
	case decision.Limited:
		h.metrics.ObserveRateLimit("limited")
	default:
		h.metrics.ObserveRateLimit("allowed")
	}
	return decision, err
}

func (h *Handler) storeLead(ctx context.Context, p Payload, ip string) (*leads.Lead, error) {
	defer h.observeStep(StepStoreLead, time.Now())
	return h.store.Create(ctx, &leads.CreateLeadRequest{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Message:   p.Message,
		PageURL:   p.PageURL,
		UserAgent: p.UserAgent,
		IPAddress: ip,
	})
}

func (h *Handler) notify(ctx context.Context, lead *leads.Lead) error {
	defer h.observeStep(StepNotify, time.Now())
	return h.notifier.NotifyLead(ctx, lead)
}

func (h *Handler) observeStep(step Step, start time.Time) {
	h.metrics.ObserveStepLatency(string(step), time.Since(start).Seconds())
}

func decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
