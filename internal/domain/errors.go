package domain

import "fmt"

// CsrfGenericMessage is the only text clients ever see for a failed
// verification. Every CsrfError maps to this same message regardless of
// cause so that responses leak nothing about which check failed.
const CsrfGenericMessage = "the authorization request could not be verified, please restart the installation"

// CsrfError indicates the callback could not be tied to an authorization
// attempt this server started. Reason is for server-side logs only and must
// never reach a client.
type CsrfError struct {
	Reason string
}

func (e *CsrfError) Error() string {
	return fmt.Sprintf("csrf verification failed: %s", e.Reason)
}

// ValidationError indicates malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError is a definitive rejection from the commerce platform during
// token exchange. Code and Description are normalized from whichever error
// body shape the provider produced. CodeConsumed marks rejections caused by
// an authorization code that was already redeemed or has expired, the one
// variant where telling the merchant to restart the install is actionable.
type ProviderError struct {
	Code         string
	Description  string
	CodeConsumed bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected token exchange: %s: %s", e.Code, e.Description)
}

// TransientError wraps a network-level failure (timeout, connection refused,
// DNS) where the operation may succeed if the merchant simply retries. The
// wrapped error is preserved for logs.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates the server is missing credentials or settings
// it needs to run the flow. Retrying the request cannot help, the deployment
// has to be fixed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
