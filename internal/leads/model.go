package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is an accepted contact-form submission. Leads are written once and
// never updated.
type Lead struct {
	ID          string    `json:"id" dynamodbav:"id"`
	FirstName   string    `json:"firstName" dynamodbav:"firstName"`
	LastName    string    `json:"lastName" dynamodbav:"lastName"`
	Email       string    `json:"email" dynamodbav:"email"`
	Phone       string    `json:"phone,omitempty" dynamodbav:"phone"`
	Message     string    `json:"message" dynamodbav:"message"`
	PageURL     string    `json:"pageUrl,omitempty" dynamodbav:"pageUrl"`
	UserAgent   string    `json:"userAgent,omitempty" dynamodbav:"userAgent"`
	IPAddress   string    `json:"ipAddress" dynamodbav:"ipAddress"`
	SubmittedAt time.Time `json:"submittedAt" dynamodbav:"submittedAt"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// CreateLeadRequest carries a normalized submission plus the resolved client IP.
type CreateLeadRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   string
	PageURL   string
	UserAgent string
	IPAddress string
}

// Validate checks the fields every stored lead must carry.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrMissingMessage
	}
	return nil
}

// newLead assigns a fresh id and timestamp. Every call yields a distinct lead,
// even for identical requests.
func newLead(req *CreateLeadRequest, now time.Time) *Lead {
	return &Lead{
		ID:          uuid.New().String(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Message:     req.Message,
		PageURL:     req.PageURL,
		UserAgent:   req.UserAgent,
		IPAddress:   req.IPAddress,
		SubmittedAt: now.UTC(),
	}
}
