package contact

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"valid minimal", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi"}`, ""},
		{"valid with phone", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi","phone":"555-0100"}`, ""},
		{"null phone allowed", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi","phone":null}`, ""},
		{"null body", `null`, MsgInvalidBody},
		{"number body", `42`, MsgInvalidBody},
		{"string body", `"hello"`, MsgInvalidBody},
		{"array body", `[]`, MsgFirstName},
		{"missing first name", `{"lastName":"Doe","email":"jane@x.com","message":"hi"}`, MsgFirstName},
		{"blank first name", `{"firstName":"   ","lastName":"Doe","email":"jane@x.com","message":"hi"}`, MsgFirstName},
		{"numeric first name", `{"firstName":7,"lastName":"Doe","email":"jane@x.com","message":"hi"}`, MsgFirstName},
		{"missing last name", `{"firstName":"Jane","email":"jane@x.com","message":"hi"}`, MsgLastName},
		{"missing email", `{"firstName":"Jane","lastName":"Doe","message":"hi"}`, MsgEmailRequired},
		{"malformed email", `{"firstName":"Jane","lastName":"Doe","email":"not-an-email","message":"hi"}`, MsgEmailInvalid},
		{"email without tld", `{"firstName":"Jane","lastName":"Doe","email":"jane@x","message":"hi"}`, MsgEmailInvalid},
		{"email with inner space", `{"firstName":"Jane","lastName":"Doe","email":"ja ne@x.com","message":"hi"}`, MsgEmailInvalid},
		{"email trimmed before match", `{"firstName":"Jane","lastName":"Doe","email":"  jane@x.com  ","message":"hi"}`, ""},
		{"missing message", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com"}`, MsgMessage},
		{"blank message", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"\n\t"}`, MsgMessage},
		{"phone not string", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi","phone":5550100}`, MsgPhoneNotString},
		{"first failure wins", `{"email":"bad"}`, MsgFirstName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(decode(t, tt.body))
			if tt.want == "" {
				assert.True(t, got.Valid, got.Error)
				assert.Empty(t, got.Error)
				return
			}
			assert.False(t, got.Valid)
			assert.Equal(t, tt.want, got.Error)
		})
	}
}

func TestValidatePhoneLength(t *testing.T) {
	body := func(phone string) any {
		return map[string]any{"firstName": "Jane", "lastName": "Doe", "email": "jane@x.com", "message": "hi", "phone": phone}
	}

	assert.True(t, Validate(body(strings.Repeat("1", 40))).Valid)

	got := Validate(body(strings.Repeat("1", 41)))
	assert.False(t, got.Valid)
	assert.Equal(t, MsgPhoneTooLong, got.Error)

	// Length is counted in characters, not bytes.
	assert.True(t, Validate(body(strings.Repeat("٣", 40))).Valid)
}

func TestValidateNilBody(t *testing.T) {
	assert.Equal(t, MsgInvalidBody, Validate(nil).Error)
}

func TestExtractPayload(t *testing.T) {
	raw := decode(t, `{
		"firstName": "  Jane ",
		"lastName": " Doe",
		"email": "  Jane@X.COM ",
		"phone": " 555-0100 ",
		"message": "  Hello there  ",
		"pageUrl": " https://blueflare.energy/contact ",
		"userAgent": " Mozilla/5.0 "
	}`)

	p := ExtractPayload(raw)
	assert.Equal(t, Payload{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Phone:     "555-0100",
		Message:   "Hello there",
		PageURL:   "https://blueflare.energy/contact",
		UserAgent: "Mozilla/5.0",
	}, p)
}

func TestExtractPayloadOptionalFieldsAbsent(t *testing.T) {
	p := ExtractPayload(decode(t, `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","message":"hi","phone":"","pageUrl":null}`))
	assert.Empty(t, p.Phone)
	assert.Empty(t, p.PageURL)
	assert.Empty(t, p.UserAgent)
}

func TestPolicyTable(t *testing.T) {
	table := DefaultPolicies()
	assert.Equal(t, Advisory, table.For(StepRateLimit))
	assert.Equal(t, Fatal, table.For(StepStoreLead))
	assert.Equal(t, Advisory, table.For(StepNotify))
	assert.Equal(t, Fatal, table.For(Step("unknown")))
	assert.Equal(t, "fatal", Fatal.String())
	assert.Equal(t, "advisory", Advisory.String())
}
