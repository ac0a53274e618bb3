package contact

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxPhoneLength caps the optional phone field, in characters.
const MaxPhoneLength = 40

// Validation messages returned to the browser verbatim.
const (
	MsgInvalidBody    = "Invalid request body"
	MsgFirstName      = "First name is required"
	MsgLastName       = "Last name is required"
	MsgEmailRequired  = "Email is required"
	MsgEmailInvalid   = "Please enter a valid email address"
	MsgMessage        = "Message is required"
	MsgPhoneNotString = "Phone must be a string"
	MsgPhoneTooLong   = "Phone number is too long (max 40 characters)"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult reports the first failing rule. Error is empty when Valid.
type ValidationResult struct {
	Valid bool
	Error string
}

// Payload is a submission after trimming and normalization.
type Payload struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   string
	PageURL   string
	UserAgent string
}

// Validate checks a decoded JSON body. Rules run in a fixed order and the
// first failure wins.
func Validate(raw any) ValidationResult {
	body, ok := asObject(raw)
	if !ok {
		return invalid(MsgInvalidBody)
	}

	if !requiredString(body, "firstName") {
		return invalid(MsgFirstName)
	}
	if !requiredString(body, "lastName") {
		return invalid(MsgLastName)
	}
	if !requiredString(body, "email") {
		return invalid(MsgEmailRequired)
	}
	if !emailPattern.MatchString(strings.TrimSpace(body["email"].(string))) {
		return invalid(MsgEmailInvalid)
	}
	if !requiredString(body, "message") {
		return invalid(MsgMessage)
	}

	if phone, present := body["phone"]; present && phone != nil {
		s, isString := phone.(string)
		if !isString {
			return invalid(MsgPhoneNotString)
		}
		if utf8.RuneCountInString(s) > MaxPhoneLength {
			return invalid(MsgPhoneTooLong)
		}
	}

	return ValidationResult{Valid: true}
}

// ExtractPayload normalizes a body that passed Validate: text fields are
// trimmed, email is lower-cased, and absent optional fields stay empty.
func ExtractPayload(raw any) Payload {
	body, _ := asObject(raw)
	return Payload{
		FirstName: looseString(body["firstName"]),
		LastName:  looseString(body["lastName"]),
		Email:     strings.ToLower(looseString(body["email"])),
		Phone:     looseString(body["phone"]),
		Message:   looseString(body["message"]),
		PageURL:   looseString(body["pageUrl"]),
		UserAgent: looseString(body["userAgent"]),
	}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg}
}

// asObject accepts JSON objects. Arrays count as objects with no fields so
// they fail on the first required field rather than as a malformed body.
func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case []any:
		return map[string]any{}, true
	default:
		return nil, false
	}
}

func requiredString(body map[string]any, key string) bool {
	s, ok := body[key].(string)
	return ok && strings.TrimSpace(s) != ""
}

// looseString stringifies truthy JSON scalars and drops falsy ones.
func looseString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}
