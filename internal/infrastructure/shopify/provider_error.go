package shopify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// fallbackErrorCode stands in when the provider's error body carries no
// machine-readable code of its own.
const fallbackErrorCode = "provider_error"

// errorShapes lists the known provider error body shapes in the fixed order
// they are tried. The first extractor that recognizes the body wins, so a
// body matching several shapes normalizes deterministically.
var errorShapes = []func(map[string]json.RawMessage) (string, string, bool){
	extractFlatError,
	extractBaseErrors,
	extractFieldErrors,
	extractMessage,
	extractDetail,
}

// normalizeErrorBody reduces whatever error body the provider produced to a
// (code, description) pair. Bodies that match none of the known shapes fall
// back to the raw text, so the description is never empty.
func normalizeErrorBody(status int, body []byte) (string, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, extract := range errorShapes {
			if code, description, ok := extract(fields); ok {
				return code, description
			}
		}
	}

	description := strings.TrimSpace(string(body))
	if description == "" {
		description = fmt.Sprintf("provider returned status %d with an empty body", status)
	}
	return fallbackErrorCode, description
}

// extractFlatError handles {"error": "...", "error_description": "..."}.
func extractFlatError(fields map[string]json.RawMessage) (string, string, bool) {
	code := stringField(fields, "error")
	description := stringField(fields, "error_description")
	if code == "" && description == "" {
		return "", "", false
	}
	if code == "" {
		code = fallbackErrorCode
	}
	if description == "" {
		description = code
	}
	return code, description, true
}

// extractBaseErrors handles {"errors": {"base": ["...", ...]}}.
func extractBaseErrors(fields map[string]json.RawMessage) (string, string, bool) {
	raw, ok := fields["errors"]
	if !ok {
		return "", "", false
	}
	var nested struct {
		Base []string `json:"base"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil || len(nested.Base) == 0 {
		return "", "", false
	}
	return fallbackErrorCode, strings.Join(nested.Base, "; "), true
}

// extractFieldErrors handles {"errors": {"field": ["...", ...]}} where each
// field maps to its messages, either a list or a single string.
func extractFieldErrors(fields map[string]json.RawMessage) (string, string, bool) {
	raw, ok := fields["errors"]
	if !ok {
		return "", "", false
	}
	var byField map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byField); err != nil || len(byField) == 0 {
		return "", "", false
	}

	names := make([]string, 0, len(byField))
	for name := range byField {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		var messages []string
		if err := json.Unmarshal(byField[name], &messages); err != nil {
			var single string
			if err := json.Unmarshal(byField[name], &single); err != nil {
				continue
			}
			messages = []string{single}
		}
		if len(messages) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(messages, ", ")))
	}
	if len(parts) == 0 {
		return "", "", false
	}
	return fallbackErrorCode, strings.Join(parts, "; "), true
}

// extractMessage handles {"message": "..."}.
func extractMessage(fields map[string]json.RawMessage) (string, string, bool) {
	message := stringField(fields, "message")
	if message == "" {
		return "", "", false
	}
	return fallbackErrorCode, message, true
}

// extractDetail handles {"detail": "..."} and {"details": ...}. A detail
// that is not a plain string is carried verbatim as JSON.
func extractDetail(fields map[string]json.RawMessage) (string, string, bool) {
	for _, key := range []string{"detail", "details"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if s := stringField(fields, key); s != "" {
			return fallbackErrorCode, s, true
		}
		if compact := strings.TrimSpace(string(raw)); compact != "" && compact != "null" {
			return fallbackErrorCode, compact, true
		}
	}
	return "", "", false
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// descriptionIndicatesConsumedCode reports whether a rejection reads like an
// authorization code that was already redeemed or sat around past its
// validity, the one failure where restarting the install is the fix.
func descriptionIndicatesConsumedCode(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "invalid") || strings.Contains(lower, "expired")
}
