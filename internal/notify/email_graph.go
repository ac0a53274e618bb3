package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

const defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphConfig holds configuration for Microsoft Graph sendMail.
type GraphConfig struct {
	FromUser string
	// BaseURL overrides the Graph API root. Tests point it at an httptest server.
	BaseURL string
}

// GraphSender sends mail as FromUser through Microsoft Graph using an
// application token.
type GraphSender struct {
	client   *http.Client
	tokens   *TokenCache
	fromUser string
	baseURL  string
	logger   *logging.Logger
}

// NewGraphSender creates a Graph sender. It returns nil when no mailbox or
// token source is configured.
func NewGraphSender(cfg GraphConfig, tokens *TokenCache, client *http.Client, logger *logging.Logger) *GraphSender {
	if strings.TrimSpace(cfg.FromUser) == "" || tokens == nil {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &GraphSender{
		client:   client,
		tokens:   tokens,
		fromUser: strings.TrimSpace(cfg.FromUser),
		baseURL:  baseURL,
		logger:   logger,
	}
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
	ReplyTo      []graphRecipient `json:"replyTo,omitempty"`
}

type graphSendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

// Send posts the message to /users/{from}/sendMail. A 401 drops the cached
// token and the post is retried once with a fresh one.
func (s *GraphSender) Send(ctx context.Context, msg EmailMessage) error {
	body := graphBody{ContentType: "HTML", Content: msg.HTML}
	if msg.HTML == "" {
		body = graphBody{ContentType: "Text", Content: msg.Body}
	}
	payload := graphSendMailRequest{
		Message: graphMessage{
			Subject: msg.Subject,
			Body:    body,
			ToRecipients: []graphRecipient{
				{EmailAddress: graphEmailAddress{Address: msg.To, Name: msg.ToName}},
			},
		},
		SaveToSentItems: true,
	}
	if msg.ReplyTo != "" {
		payload.Message.ReplyTo = []graphRecipient{
			{EmailAddress: graphEmailAddress{Address: msg.ReplyTo, Name: msg.ReplyToName}},
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal graph message: %w", err)
	}
	endpoint := fmt.Sprintf("%s/users/%s/sendMail", s.baseURL, url.PathEscape(s.fromUser))

	status, respBody, err := s.post(ctx, endpoint, data)
	if err == nil && status == http.StatusUnauthorized {
		s.logger.Warn("graph rejected token, refreshing", "to", msg.To)
		s.tokens.Invalidate()
		status, respBody, err = s.post(ctx, endpoint, data)
		if err == nil && status == http.StatusUnauthorized {
			s.tokens.Invalidate()
		}
	}
	if err != nil {
		s.logger.Error("graph send failed", "error", err, "to", msg.To)
		return err
	}
	if status < 200 || status >= 300 {
		s.logger.Error("graph returned error status", "status", status, "body", respBody, "to", msg.To)
		return fmt.Errorf("%w: graph returned status %d: %s", ErrProviderStatus, status, strings.TrimSpace(respBody))
	}

	s.logger.Info("email sent via graph", "to", msg.To, "subject", msg.Subject, "status", status)
	return nil
}

// post sends one sendMail request with the current token. The body is only
// read for non-success statuses.
func (s *GraphSender) post(ctx context.Context, endpoint string, data []byte) (int, string, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return 0, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, "", fmt.Errorf("notify: build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("notify: graph send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, "", nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return resp.StatusCode, string(respBody), nil
}

var _ EmailSender = (*GraphSender)(nil)
