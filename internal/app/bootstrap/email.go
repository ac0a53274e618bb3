package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/blueflare-energy/leadcapture/internal/config"
	"github.com/blueflare-energy/leadcapture/internal/notify"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

// EmailSettings projects the mail-related configuration.
func EmailSettings(cfg *appconfig.Config) notify.Settings {
	return notify.Settings{
		Mode:              cfg.EmailMode,
		Provider:          cfg.EmailProvider,
		TenantID:          cfg.GraphTenantID,
		ClientID:          cfg.GraphClientID,
		ClientSecret:      cfg.GraphClientSecret,
		FromUser:          cfg.GraphFromUser,
		SESFromEmail:      cfg.SESFromEmail,
		SendGridAPIKey:    cfg.SendGridAPIKey,
		SendGridFromEmail: cfg.SendGridFromEmail,
		To:                cfg.GraphToEmail,
	}
}

// BuildEmailSender returns the configured provider, or nil when email is
// disabled or incompletely configured. Missing settings never fail startup.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	settings := EmailSettings(cfg)
	if !settings.Enabled() {
		logger.Info("email notifications disabled", "mode", settings.Mode, "missing", settings.Missing())
		return nil, nil
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.EmailTimeout}
	}

	switch settings.ResolvedProvider() {
	case notify.ProviderSES:
		if deps.AWSConfig == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader is required for ses")
		}
		awsCfg, err := deps.AWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, nil
		}
		logger.Info("email provider: ses", "from", cfg.SESFromEmail)
		return sender, nil
	case notify.ProviderLog:
		logger.Info("email provider: log")
		return notify.NewStubEmailSender(logger), nil
	case notify.ProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, nil
		}
		logger.Info("email provider: sendgrid", "from", cfg.SendGridFromEmail)
		return sender, nil
	default:
		tokens := notify.NewTokenCache(notify.ClientCredentialsFetcher(notify.CredentialsConfig{
			TenantID:     cfg.GraphTenantID,
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
			TokenURL:     deps.GraphTokenURL,
		}, httpClient))
		sender := notify.NewGraphSender(notify.GraphConfig{
			FromUser: cfg.GraphFromUser,
			BaseURL:  deps.GraphBaseURL,
		}, tokens, httpClient, logger)
		if sender == nil {
			return nil, nil
		}
		logger.Info("email provider: graph", "from", cfg.GraphFromUser)
		return sender, nil
	}
}
