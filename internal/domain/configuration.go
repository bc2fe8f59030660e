package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Configuration keys consumed by the analytics and alerting core. Keys are
// case-insensitive on input and stored canonically upper-cased.
const (
	KeyDefaultDateRange      = "DEFAULT_DATE_RANGE"
	KeyAlertActivated        = "ALERT_ACTIVATED"
	KeyErrorRateThreshold    = "ERROR_RATE_THRESHOLD"
	KeyResponseTimeThreshold = "RESPONSE_TIME_THRESHOLD"
	KeySendEmailEvery        = "SEND_EMAIL_EVERY"
	KeyRecipients            = "RECIPIENTS"
	KeyApplications          = "APPLICATIONS"
)

// ConfigEntry is one durable key/value configuration pair. The value is an
// opaque string; interpretation is up to the consumer.
type ConfigEntry struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanonicalKey upper-cases and trims a configuration key.
func CanonicalKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ParseList decodes a textual list literal such as `["a@x.com","b@x.com"]`
// into its elements. Values written by older tooling may use single quotes.
// Malformed input yields an empty list, never an error.
func ParseList(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return nonEmpty(out)
	}
	// Python-style list literals with single quotes.
	requoted := strings.ReplaceAll(trimmed, "'", `"`)
	if err := json.Unmarshal([]byte(requoted), &out); err == nil {
		return nonEmpty(out)
	}
	return []string{}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
