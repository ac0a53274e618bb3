package notify

import "strings"

// ConditionResult is one evaluated health-check condition.
type ConditionResult struct {
	Condition string `json:"condition"`
	Success   bool   `json:"success"`
}

// Alert is the payload a Gatus custom alerting provider posts.
type Alert struct {
	Name             string            `json:"name"`
	Group            string            `json:"group,omitempty"`
	URL              string            `json:"url"`
	Status           string            `json:"status"`
	Description      string            `json:"description,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
	ConditionResults []ConditionResult `json:"conditionResults,omitempty"`
}

// NormalizedStatus upper-cases and trims the status.
func (a Alert) NormalizedStatus() string {
	return strings.ToUpper(strings.TrimSpace(a.Status))
}

// HasRequiredFields reports whether name, status and url are all set.
func (a Alert) HasRequiredFields() bool {
	return strings.TrimSpace(a.Name) != "" &&
		strings.TrimSpace(a.Status) != "" &&
		strings.TrimSpace(a.URL) != ""
}
