package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/blueflare-energy/leadcapture/internal/leads"
)

const defaultFromName = "BlueFlare Energy"

// html/template escapes every interpolated value for its context, so
// submitter text can never inject markup into the operator's inbox.
var leadHTML = template.Must(template.New("lead").Parse(`<h2>New Contact Form Submission</h2>
<p><strong>Lead ID:</strong> {{.ID}}</p>
<hr>
<p><strong>Name:</strong> {{.FirstName}} {{.LastName}}</p>
<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
{{- if .Phone}}
<p><strong>Phone:</strong> {{.Phone}}</p>
{{- end}}
<hr>
<p><strong>Message:</strong></p>
<p style="white-space: pre-wrap;">{{.Message}}</p>
<hr>
<p style="color: #666; font-size: 12px;"><strong>Page URL:</strong> {{or .PageURL "N/A"}}</p>
<p style="color: #666; font-size: 12px;"><strong>IP Address:</strong> {{or .IPAddress "N/A"}}</p>
<p style="color: #666; font-size: 12px;"><strong>User Agent:</strong> {{or .UserAgent "N/A"}}</p>
`))

var leadText = texttemplate.Must(texttemplate.New("lead").Parse(`New Contact Form Submission

Lead ID: {{.ID}}
Name: {{.FirstName}} {{.LastName}}
Email: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}

Message:
{{.Message}}

Page URL: {{or .PageURL "N/A"}}
IP Address: {{or .IPAddress "N/A"}}
User Agent: {{or .UserAgent "N/A"}}
`))

var alertHTML = template.Must(template.New("alert").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Monitoring Alert: {{.Name}}</h2>
<p><span style="display: inline-block; padding: 4px 12px; border-radius: 12px; color: #ffffff; font-weight: bold; background-color: {{.Color}};">{{.Status}}</span></p>
<table style="border-collapse: collapse; margin: 16px 0;">
<tr><td style="padding: 4px 12px 4px 0;"><strong>Endpoint:</strong></td><td>{{.Name}}</td></tr>
{{- if .Group}}
<tr><td style="padding: 4px 12px 4px 0;"><strong>Group:</strong></td><td>{{.Group}}</td></tr>
{{- end}}
<tr><td style="padding: 4px 12px 4px 0;"><strong>URL:</strong></td><td><a href="{{.URL}}">{{.URL}}</a></td></tr>
<tr><td style="padding: 4px 12px 4px 0;"><strong>Time:</strong></td><td>{{.Timestamp}}</td></tr>
</table>
{{- if .Description}}
<p><strong>Description:</strong> {{.Description}}</p>
{{- end}}
{{- if .Conditions}}
<h3>Condition Results</h3>
<ul style="list-style: none; padding-left: 0;">
{{- range .Conditions}}
<li>{{if .Success}}✅{{else}}❌{{end}} <code>{{.Condition}}</code></li>
{{- end}}
</ul>
{{- end}}
</div>
`))

var alertText = texttemplate.Must(texttemplate.New("alert").Parse(`Monitoring Alert: {{.Name}}
Status: {{.Status}}
{{- if .Group}}
Group: {{.Group}}
{{- end}}
URL: {{.URL}}
Time: {{.Timestamp}}
{{- if .Description}}
Description: {{.Description}}
{{- end}}
{{- if .Conditions}}

Condition Results:
{{- range .Conditions}}
{{if .Success}}[PASS]{{else}}[FAIL]{{end}} {{.Condition}}
{{- end}}
{{- end}}
`))

// Status badge colors keyed by normalized alert status.
var statusColors = map[string]template.CSS{
	"HEALTHY":   "#16a34a",
	"UNHEALTHY": "#dc2626",
	"DEGRADED":  "#d97706",
}

const unknownStatusColor template.CSS = "#6b7280"

type alertView struct {
	Name        string
	Group       string
	URL         string
	Status      string
	Color       template.CSS
	Description string
	Timestamp   string
	Conditions  []ConditionResult
}

func statusColor(status string) template.CSS {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return unknownStatusColor
}

// RenderLead formats the operator email for a stored lead.
func RenderLead(lead *leads.Lead) (html string, text string, err error) {
	var hb, tb bytes.Buffer
	if err := leadHTML.Execute(&hb, lead); err != nil {
		return "", "", fmt.Errorf("notify: render lead html: %w", err)
	}
	if err := leadText.Execute(&tb, lead); err != nil {
		return "", "", fmt.Errorf("notify: render lead text: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// RenderAlert formats the operator email for a monitoring alert. An empty
// condition list omits the condition section.
func RenderAlert(alert Alert, fallbackTime string) (html string, text string, err error) {
	status := alert.NormalizedStatus()
	ts := strings.TrimSpace(alert.Timestamp)
	if ts == "" {
		ts = fallbackTime
	}
	view := alertView{
		Name:        alert.Name,
		Group:       alert.Group,
		URL:         alert.URL,
		Status:      status,
		Color:       statusColor(status),
		Description: alert.Description,
		Timestamp:   ts,
		Conditions:  alert.ConditionResults,
	}
	var hb, tb bytes.Buffer
	if err := alertHTML.Execute(&hb, view); err != nil {
		return "", "", fmt.Errorf("notify: render alert html: %w", err)
	}
	if err := alertText.Execute(&tb, view); err != nil {
		return "", "", fmt.Errorf("notify: render alert text: %w", err)
	}
	return hb.String(), tb.String(), nil
}
