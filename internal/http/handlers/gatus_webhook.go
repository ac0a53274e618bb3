package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blueflare-energy/leadcapture/internal/notify"
	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

const maxAlertBodyBytes = 256 << 10

// AlertNotifier delivers monitoring alerts.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert notify.Alert) error
}

// GatusWebhookHandler accepts alerts from a Gatus custom alerting provider.
// The endpoint is operator-facing, so failures surface their error message.
type GatusWebhookHandler struct {
	token    string
	notifier AlertNotifier
	metrics  *metrics.ContactMetrics
	logger   *logging.Logger
}

// NewGatusWebhookHandler creates the handler. An empty token disables the
// bearer check.
func NewGatusWebhookHandler(token string, notifier AlertNotifier, m *metrics.ContactMetrics, logger *logging.Logger) *GatusWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &GatusWebhookHandler{
		token:    strings.TrimSpace(token),
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Handle accepts a POSTed alert, checks the optional bearer token and emails
// the alert to the operator.
func (h *GatusWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed. Use POST."})
		return
	}
	if !h.authorized(r) {
		h.logger.Warn("gatus webhook rejected: bad token")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	alert, err := decodeAlert(r.Body)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if !alert.HasRequiredFields() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: name, status, url"})
		return
	}

	h.metrics.ObserveAlert(alert.NormalizedStatus())
	if h.notifier != nil {
		if err := h.notifier.NotifyAlert(r.Context(), alert); err != nil {
			h.internalError(w, err)
			return
		}
	}

	h.logger.Info("gatus alert processed", "name", alert.Name, "status", alert.NormalizedStatus())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Alert processed"})
}

func (h *GatusWebhookHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	provided := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) == 1
}

func (h *GatusWebhookHandler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("error processing gatus webhook", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

func decodeAlert(body io.Reader) (notify.Alert, error) {
	var alert notify.Alert
	payload, err := io.ReadAll(io.LimitReader(body, maxAlertBodyBytes))
	if err != nil {
		return alert, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(payload, &alert); err != nil {
		return alert, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return alert, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
