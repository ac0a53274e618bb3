package notify

import "strings"

// Mail providers selectable with EMAIL_PROVIDER.
const (
	ProviderGraph    = "graph"
	ProviderSES      = "ses"
	ProviderSendGrid = "sendgrid"
	// ProviderLog writes messages to the log instead of sending them.
	ProviderLog = "log"

	// ModeNone disables email entirely.
	ModeNone = "none"
)

// Settings is the mail configuration the enablement gate inspects.
type Settings struct {
	Mode     string
	Provider string

	TenantID     string
	ClientID     string
	ClientSecret string
	FromUser     string

	SESFromEmail      string
	SendGridAPIKey    string
	SendGridFromEmail string

	To string
}

// ResolvedProvider returns the lower-cased provider, defaulting to Graph.
func (s Settings) ResolvedProvider() string {
	p := strings.ToLower(strings.TrimSpace(s.Provider))
	if p == "" {
		return ProviderGraph
	}
	return p
}

// Missing lists the environment variables the selected provider still needs.
func (s Settings) Missing() []string {
	var missing []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	switch s.ResolvedProvider() {
	case ProviderGraph:
		need(s.TenantID, "GRAPH_TENANT_ID")
		need(s.ClientID, "GRAPH_CLIENT_ID")
		need(s.ClientSecret, "GRAPH_CLIENT_SECRET")
		need(s.FromUser, "GRAPH_FROM_USER")
	case ProviderSES:
		need(s.SESFromEmail, "SES_FROM_EMAIL")
	case ProviderSendGrid:
		need(s.SendGridAPIKey, "SENDGRID_API_KEY")
		need(s.SendGridFromEmail, "SENDGRID_FROM_EMAIL")
	case ProviderLog:
	default:
		missing = append(missing, "EMAIL_PROVIDER")
	}
	need(s.To, "GRAPH_TO_EMAIL")
	return missing
}

// Enabled reports whether mail should be sent at all.
func (s Settings) Enabled() bool {
	if strings.EqualFold(strings.TrimSpace(s.Mode), ModeNone) {
		return false
	}
	return len(s.Missing()) == 0
}
