package shopify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeErrorBody(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantCode        string
		wantDescription string
	}{
		{
			name:            "flat error with description",
			status:          400,
			body:            `{"error":"invalid_request","error_description":"The authorization code was not found or was already used"}`,
			wantCode:        "invalid_request",
			wantDescription: "The authorization code was not found or was already used",
		},
		{
			name:            "flat error without description",
			status:          400,
			body:            `{"error":"access_denied"}`,
			wantCode:        "access_denied",
			wantDescription: "access_denied",
		},
		{
			name:            "base scoped errors",
			status:          422,
			body:            `{"errors":{"base":["app cannot be installed","contact support"]}}`,
			wantCode:        "provider_error",
			wantDescription: "app cannot be installed; contact support",
		},
		{
			name:            "field scoped errors sorted by field",
			status:          422,
			body:            `{"errors":{"shop":["is unknown"],"code":["is invalid"]}}`,
			wantCode:        "provider_error",
			wantDescription: "code: is invalid; shop: is unknown",
		},
		{
			name:            "field scoped error with single string message",
			status:          422,
			body:            `{"errors":{"code":"is invalid"}}`,
			wantCode:        "provider_error",
			wantDescription: "code: is invalid",
		},
		{
			name:            "message shape",
			status:          500,
			body:            `{"message":"internal error, try again later"}`,
			wantCode:        "provider_error",
			wantDescription: "internal error, try again later",
		},
		{
			name:            "detail shape",
			status:          403,
			body:            `{"detail":"app is blocked for this shop"}`,
			wantCode:        "provider_error",
			wantDescription: "app is blocked for this shop",
		},
		{
			name:            "details shape",
			status:          403,
			body:            `{"details":"request was throttled"}`,
			wantCode:        "provider_error",
			wantDescription: "request was throttled",
		},
		{
			name:            "non string detail carried as JSON",
			status:          403,
			body:            `{"detail":{"reason":"blocked"}}`,
			wantCode:        "provider_error",
			wantDescription: `{"reason":"blocked"}`,
		},
		{
			name:            "unrecognized JSON falls back to raw body",
			status:          502,
			body:            `{"unexpected":"shape"}`,
			wantCode:        "provider_error",
			wantDescription: `{"unexpected":"shape"}`,
		},
		{
			name:            "plain text body",
			status:          502,
			body:            "Bad Gateway",
			wantCode:        "provider_error",
			wantDescription: "Bad Gateway",
		},
		{
			name:            "empty body still yields a description",
			status:          503,
			body:            "",
			wantCode:        "provider_error",
			wantDescription: "provider returned status 503 with an empty body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, description := normalizeErrorBody(tt.status, []byte(tt.body))
			require.Equal(t, tt.wantCode, code)
			require.Equal(t, tt.wantDescription, description)
			require.NotEmpty(t, description)
		})
	}
}

func TestNormalizeErrorBodyShapeOrderIsFixed(t *testing.T) {
	// A body matching both the flat shape and the message shape must always
	// normalize through the flat shape.
	body := `{"error":"access_denied","error_description":"denied by merchant","message":"something else"}`
	code, description := normalizeErrorBody(400, []byte(body))
	require.Equal(t, "access_denied", code)
	require.Equal(t, "denied by merchant", description)
}

func TestDescriptionIndicatesConsumedCode(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{description: "The authorization code is invalid", want: true},
		{description: "authorization code has EXPIRED", want: true},
		{description: "Code already Invalid or reused", want: true},
		{description: "app cannot be installed", want: false},
		{description: "", want: false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, descriptionIndicatesConsumedCode(tt.description), "description %q", tt.description)
	}
}
