package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/internal/observability/metrics"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

var notifyTracer = otel.Tracer("blueflare.internal.notify")

const (
	defaultContactSubjectPrefix = "[BlueFlare Contact]"
	defaultAlertSubjectPrefix   = "[BlueFlare Monitor]"

	kindLead  = "lead"
	kindAlert = "alert"
)

// Options configures the notification service.
type Options struct {
	To                   string
	ToName               string
	ContactSubjectPrefix string
	AlertSubjectPrefix   string
	// Timeout bounds a single send. Zero means the caller's context only.
	Timeout time.Duration
	Metrics *metrics.ContactMetrics
	Now     func() time.Time
}

// Service formats lead and alert emails and hands them to an EmailSender.
// A Service without a sender is disabled: every call logs and returns nil.
type Service struct {
	sender  EmailSender
	opts    Options
	logger  *logging.Logger
	metrics *metrics.ContactMetrics
	now     func() time.Time
}

// NewService creates a notification service. Pass a nil sender to disable
// delivery.
func NewService(sender EmailSender, opts Options, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.ContactSubjectPrefix == "" {
		opts.ContactSubjectPrefix = defaultContactSubjectPrefix
	}
	if opts.AlertSubjectPrefix == "" {
		opts.AlertSubjectPrefix = defaultAlertSubjectPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if strings.TrimSpace(opts.To) == "" {
		sender = nil
	}
	return &Service{
		sender:  sender,
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}
}

// Enabled reports whether the service will attempt delivery.
func (s *Service) Enabled() bool {
	return s != nil && s.sender != nil
}

// LeadSubject builds "<prefix> <first> <last>".
func (s *Service) LeadSubject(lead *leads.Lead) string {
	return fmt.Sprintf("%s %s %s", s.opts.ContactSubjectPrefix, lead.FirstName, lead.LastName)
}

// AlertSubject builds "<prefix> [<STATUS>] <name>".
func (s *Service) AlertSubject(alert Alert) string {
	return fmt.Sprintf("%s [%s] %s", s.opts.AlertSubjectPrefix, alert.NormalizedStatus(), alert.Name)
}

// NotifyLead emails the operator about a stored lead with reply-to set to the
// submitter.
func (s *Service) NotifyLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return errors.New("notify: lead required")
	}
	if !s.Enabled() {
		s.logger.Info("email is disabled, skipping lead notification", "lead_id", lead.ID)
		s.metrics.ObserveNotification(kindLead, "disabled")
		return nil
	}

	html, text, err := RenderLead(lead)
	if err != nil {
		return err
	}
	msg := EmailMessage{
		To:          s.opts.To,
		ToName:      s.opts.ToName,
		ReplyTo:     lead.Email,
		ReplyToName: lead.FullName(),
		Subject:     s.LeadSubject(lead),
		Body:        text,
		HTML:        html,
	}
	return s.send(ctx, kindLead, msg, attribute.String("blueflare.lead_id", lead.ID))
}

// NotifyAlert emails the operator about a monitoring alert.
func (s *Service) NotifyAlert(ctx context.Context, alert Alert) error {
	if !s.Enabled() {
		s.logger.Info("email is disabled, skipping alert notification", "alert", alert.Name, "status", alert.NormalizedStatus())
		s.metrics.ObserveNotification(kindAlert, "disabled")
		return nil
	}

	html, text, err := RenderAlert(alert, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	msg := EmailMessage{
		To:      s.opts.To,
		ToName:  s.opts.ToName,
		Subject: s.AlertSubject(alert),
		Body:    text,
		HTML:    html,
	}
	return s.send(ctx, kindAlert, msg,
		attribute.String("blueflare.alert_name", alert.Name),
		attribute.String("blueflare.alert_status", alert.NormalizedStatus()),
	)
}

func (s *Service) send(ctx context.Context, kind string, msg EmailMessage, attrs ...attribute.KeyValue) error {
	ctx, span := notifyTracer.Start(ctx, "notify.send."+kind)
	defer span.End()
	span.SetAttributes(attrs...)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.metrics.ObserveNotification(kind, "failed")
		return err
	}
	s.metrics.ObserveNotification(kind, "sent")
	return nil
}
