package leads

import "errors"

var (
	// ErrInvalidName is returned when the first or last name is missing
	ErrInvalidName = errors.New("leads: first and last name are required")

	// ErrMissingEmail is returned when the submitter email is missing
	ErrMissingEmail = errors.New("leads: email is required")

	// ErrMissingMessage is returned when the message body is missing
	ErrMissingMessage = errors.New("leads: message is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("leads: lead not found")
)
