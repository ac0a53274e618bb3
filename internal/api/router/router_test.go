package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueflare-energy/leadcapture/internal/contact"
	"github.com/blueflare-energy/leadcapture/internal/http/handlers"
	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/internal/notify"
	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/internal/ratelimit"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

const adminSecret = "admin-secret"

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
}

func (s *recordingSender) Send(_ context.Context, msg notify.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []notify.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.EmailMessage(nil), s.sent...)
}

type testStack struct {
	router  http.Handler
	leads   *leads.InMemoryRepository
	buckets *ratelimit.MemoryStore
	sender  *recordingSender
	now     time.Time
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	logger := logging.New("error")
	now := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	m := metrics.NewContactMetrics(reg)

	buckets := ratelimit.NewMemoryStore()
	limiter := ratelimit.New(buckets, ratelimit.DefaultLimit, ratelimit.WithClock(func() time.Time { return now }))
	repo := leads.NewInMemoryRepository()
	sender := &recordingSender{}
	notifier := notify.NewService(sender, notify.Options{
		To:      "ops@blueflare.energy",
		Metrics: m,
		Now:     func() time.Time { return now },
	}, logger)

	cfg := &Config{
		Logger:             logger,
		ContactHandler:     contact.NewHandler(limiter, repo, notifier, contact.Options{Metrics: m}, logger),
		GatusWebhook:       handlers.NewGatusWebhookHandler("", notifier, m, logger),
		LeadsHandler:       leads.NewHandler(repo, logger),
		AdminAuthSecret:    adminSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://blueflare.energy", "https://*.blueflare.energy"},
	}

	return &testStack{
		router:  New(cfg),
		leads:   repo,
		buckets: buckets,
		sender:  sender,
		now:     now,
	}
}

func (s *testStack) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://blueflare.energy")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func assertCORS(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://blueflare.energy" {
		t.Fatalf("expected allow origin to be echoed, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("unexpected allow headers %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Fatalf("unexpected max age %q", got)
	}
}

const janeBody = `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"Hello there, interested."}`

func TestRouterHealthEndpoint(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodGet, "/health", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestScenarioA_FreshSubmission(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodPost, "/contact", janeBody, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	assertCORS(t, rr)

	stored := s.leads.All()
	if len(stored) != 1 || stored[0].ID == "" {
		t.Fatalf("expected one stored lead with an id, got %+v", stored)
	}

	key := ratelimit.BucketKey("203.0.113.7", ratelimit.HashUserAgent(""), ratelimit.DayKey(s.now, nil))
	bucket, err := s.buckets.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("expected rate-limit bucket %s: %v", key, err)
	}
	if bucket.Count != 1 {
		t.Fatalf("expected bucket count 1, got %d", bucket.Count)
	}

	msgs := s.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one lead email, got %d", len(msgs))
	}
	if msgs[0].Subject != "[BlueFlare Contact] Jane Doe" || msgs[0].ReplyTo != "jane@x.com" {
		t.Fatalf("unexpected email %+v", msgs[0])
	}
}

func TestScenarioB_SixthSubmissionLimited(t *testing.T) {
	s := newTestStack(t)
	for i := 0; i < 5; i++ {
		if rr := s.do(http.MethodPost, "/contact", janeBody, nil); rr.Code != http.StatusOK {
			t.Fatalf("submission %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := s.do(http.MethodPost, "/contact", janeBody, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	assertCORS(t, rr)
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Too many requests. Please try again tomorrow." {
		t.Fatalf("unexpected error %q", resp["error"])
	}
	if n := len(s.leads.All()); n != 5 {
		t.Fatalf("expected 5 leads, got %d", n)
	}

	// A different user agent is a different identity.
	other := s.do(http.MethodPost, "/contact",
		`{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi","userAgent":"Safari"}`, nil)
	if other.Code != http.StatusOK {
		t.Fatalf("expected other user agent to pass, got %d", other.Code)
	}
}

func TestScenarioC_InvalidJSON(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodPost, "/contact", `not json`, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	assertCORS(t, rr)
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Invalid JSON body" {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestScenarioD_Preflight(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodOptions, "/contact", "", map[string]string{"Access-Control-Request-Method": "POST"})

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	assertCORS(t, rr)
}

func TestScenarioE_GatusAlert(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodPost, "/gatus-webhook", `{"name":"DB","status":"UNHEALTHY","url":"https://x"}`, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["ok"] != true || resp["message"] != "Alert processed" {
		t.Fatalf("unexpected body %v", resp)
	}

	msgs := s.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one alert email, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].HTML, "background-color: #dc2626") {
		t.Fatalf("expected red status badge")
	}
	if strings.Contains(msgs[0].HTML, "Condition Results") {
		t.Fatalf("expected no condition section")
	}
}

func TestRouterServesAPIPrefix(t *testing.T) {
	s := newTestStack(t)
	if rr := s.do(http.MethodPost, "/api/contact", janeBody, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected /api/contact to be served, got %d", rr.Code)
	}
	if rr := s.do(http.MethodGet, "/api/gatus-webhook", "", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 from the webhook handler, got %d", rr.Code)
	}
}

func TestRouterContactGetNotAllowed(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodGet, "/contact", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	assertCORS(t, rr)
}

func TestRouterNotFoundIsJSON(t *testing.T) {
	s := newTestStack(t)
	rr := s.do(http.MethodGet, "/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	assertCORS(t, rr)
}

func TestRouterOptionsOnlyShortCircuitsContact(t *testing.T) {
	s := newTestStack(t)
	preflight := map[string]string{"Access-Control-Request-Method": "POST"}

	for _, path := range []string{"/gatus-webhook", "/api/gatus-webhook"} {
		rr := s.do(http.MethodOptions, path, "", preflight)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("OPTIONS %s: expected 405, got %d", path, rr.Code)
		}
		assertCORS(t, rr)
	}

	rr := s.do(http.MethodOptions, "/does-not-exist", "", preflight)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON not-found body, got %q", ct)
	}

	if rr := s.do(http.MethodOptions, "/api/contact", "", preflight); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from the contact endpoint, got %d", rr.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	s := newTestStack(t)
	s.do(http.MethodPost, "/contact", janeBody, nil)

	rr := s.do(http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `blueflare_contact_submissions_total{outcome="accepted"} 1`) {
		t.Fatalf("expected submission counter in exposition")
	}
}

func TestRouterAdminLeadLookup(t *testing.T) {
	s := newTestStack(t)
	s.do(http.MethodPost, "/contact", janeBody, nil)
	id := s.leads.All()[0].ID

	if rr := s.do(http.MethodGet, "/admin/leads/"+id, "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "operator",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	auth := map[string]string{"Authorization": "Bearer " + signed}

	rr := s.do(http.MethodGet, "/admin/leads/"+id, "", auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var lead leads.Lead
	if err := json.Unmarshal(rr.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode lead: %v", err)
	}
	if lead.ID != id || lead.Email != "jane@x.com" {
		t.Fatalf("unexpected lead %+v", lead)
	}

	if rr := s.do(http.MethodGet, "/admin/leads/missing", "", auth); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRouterAdminRoutesAbsentWithoutSecret(t *testing.T) {
	r := New(&Config{LeadsHandler: leads.NewHandler(leads.NewInMemoryRepository(), nil)})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/leads/x", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
