package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestService(sender EmailSender) *Service {
	return NewService(sender, Options{
		To:      "ops@blueflare.energy",
		Metrics: metrics.NewContactMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC) },
	}, logging.New("error"))
}

func TestNotifyLeadSendsWithReplyTo(t *testing.T) {
	sender := &mockEmailSender{}
	svc := newTestService(sender)

	require.NoError(t, svc.NotifyLead(context.Background(), sampleLead()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "ops@blueflare.energy", msg.To)
	assert.Equal(t, "jane@x.com", msg.ReplyTo)
	assert.Equal(t, "Jane Doe", msg.ReplyToName)
	assert.Equal(t, "[BlueFlare Contact] Jane Doe", msg.Subject)
	assert.Contains(t, msg.HTML, "New Contact Form Submission")
	assert.NotEmpty(t, msg.Body)
}

func TestNotifyLeadCustomPrefix(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, Options{To: "ops@blueflare.energy", ContactSubjectPrefix: "[Web Lead]"}, logging.New("error"))

	require.NoError(t, svc.NotifyLead(context.Background(), sampleLead()))
	assert.Equal(t, "[Web Lead] Jane Doe", sender.sent[0].Subject)
}

func TestNotifyLeadPropagatesSendError(t *testing.T) {
	svc := newTestService(&mockEmailSender{callErr: ErrProviderStatus})

	err := svc.NotifyLead(context.Background(), sampleLead())
	assert.ErrorIs(t, err, ErrProviderStatus)
}

func TestDisabledServiceIsNoop(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
	}{
		{"nil sender", NewService(nil, Options{To: "ops@blueflare.energy"}, logging.New("error"))},
		{"missing recipient", NewService(&mockEmailSender{callErr: errors.New("must not be called")}, Options{}, logging.New("error"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.svc.Enabled())
			assert.NoError(t, tt.svc.NotifyLead(context.Background(), sampleLead()))
			assert.NoError(t, tt.svc.NotifyAlert(context.Background(), Alert{Name: "DB", Status: "UNHEALTHY", URL: "https://x"}))
		})
	}
}

func TestNotifyLeadRequiresLead(t *testing.T) {
	assert.Error(t, newTestService(&mockEmailSender{}).NotifyLead(context.Background(), nil))
}

func TestNotifyAlert(t *testing.T) {
	sender := &mockEmailSender{}
	svc := newTestService(sender)

	require.NoError(t, svc.NotifyAlert(context.Background(), Alert{Name: "DB", Status: "unhealthy", URL: "https://x"}))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "[BlueFlare Monitor] [UNHEALTHY] DB", msg.Subject)
	assert.Empty(t, msg.ReplyTo)
	assert.Contains(t, msg.HTML, "#dc2626")
	assert.Contains(t, msg.HTML, "2025-03-10T17:00:00Z", "falls back to the service clock")
	assert.False(t, strings.Contains(msg.HTML, "Condition Results"))
}

func TestNotifyAlertSendError(t *testing.T) {
	svc := newTestService(&mockEmailSender{callErr: errors.New("mailbox not found")})
	err := svc.NotifyAlert(context.Background(), Alert{Name: "DB", Status: "HEALTHY", URL: "https://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox not found")
}

type deadlineSender struct {
	hadDeadline bool
}

func (d *deadlineSender) Send(ctx context.Context, msg EmailMessage) error {
	_, d.hadDeadline = ctx.Deadline()
	return nil
}

func TestServiceAppliesTimeout(t *testing.T) {
	sender := &deadlineSender{}
	svc := NewService(sender, Options{To: "ops@blueflare.energy", Timeout: time.Second}, logging.New("error"))
	require.NoError(t, svc.NotifyLead(context.Background(), sampleLead()))
	assert.True(t, sender.hadDeadline)
}
