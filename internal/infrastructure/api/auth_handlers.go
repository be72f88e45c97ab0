package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"voxcart-core-auth-layer/internal/application"
	"voxcart-core-auth-layer/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AuthHandlers exposes the authorization flow over HTTP. All decisions live
// in the application service, the handlers only translate between the wire
// and the service inputs.
type AuthHandlers struct {
	auth   *application.AuthService
	logger zerolog.Logger
}

// NewAuthHandlers creates the HTTP handlers for the authorization endpoints
func NewAuthHandlers(auth *application.AuthService, logger zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:   auth,
		logger: logger,
	}
}

// flowErrorBody is the JSON error envelope returned on failed flows.
type flowErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RequestID        string `json:"request_id,omitempty"`
}

// HandleBegin starts an installation: validates the shop parameter, records
// the anti-forgery state and redirects the merchant to the consent screen.
func (h *AuthHandlers) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		ctx = domain.WithCorrelationID(ctx, reqID)
	}

	result, err := h.auth.Begin(ctx, application.BeginInput{
		Shop:      r.URL.Query().Get("shop"),
		RemoteIP:  r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeFlowError(w, r, err)
		return
	}

	applyCookie(w, result.Cookie)
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// HandleCallback completes an installation. The raw query string is handed to
// the service untouched so signature verification sees exactly what the
// provider sent.
func (h *AuthHandlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		ctx = domain.WithCorrelationID(ctx, reqID)
	}

	query := r.URL.Query()
	input := application.CallbackInput{
		RawQuery: r.URL.RawQuery,
		Shop:     query.Get("shop"),
		Code:     query.Get("code"),
		State:    query.Get("state"),
		Host:     query.Get("host"),
		RemoteIP: r.RemoteAddr,
	}
	if cookie, err := r.Cookie(application.StateCookieName); err == nil {
		input.CookieNonce = cookie.Value
	}

	result, err := h.auth.Complete(ctx, input)
	if err != nil {
		h.writeFlowError(w, r, err)
		return
	}

	applyCookie(w, result.ClearCookie)
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// writeFlowError maps service errors onto HTTP statuses. Forgery failures
// share one body regardless of which check tripped, so a probing caller
// learns nothing about which tier or comparison rejected them.
func (h *AuthHandlers) writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	body := flowErrorBody{RequestID: middleware.GetReqID(r.Context())}
	status := http.StatusInternalServerError

	var (
		validationErr *domain.ValidationError
		csrfErr       *domain.CsrfError
		providerErr   *domain.ProviderError
		transientErr  *domain.TransientError
		configErr     *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body.Error = "invalid_request"
		body.ErrorDescription = validationErr.Error()
	case errors.As(err, &csrfErr):
		status = http.StatusUnauthorized
		body.Error = "unauthorized"
		body.ErrorDescription = domain.CsrfGenericMessage
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
		body.Error = "provider_error"
		if providerErr.CodeConsumed {
			body.ErrorDescription = "the authorization code is no longer valid, please restart the installation"
		} else {
			body.ErrorDescription = "the authorization provider rejected the request, please try again"
		}
	case errors.As(err, &transientErr):
		status = http.StatusServiceUnavailable
		body.Error = "temporarily_unavailable"
		body.ErrorDescription = "the authorization service could not be reached, please try again"
	case errors.As(err, &configErr):
		body.Error = "server_error"
		body.ErrorDescription = "the application is not configured correctly"
	default:
		body.Error = "server_error"
		body.ErrorDescription = "the installation could not be completed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write error response")
	}
}

// applyCookie translates a cookie directive into a Set-Cookie header. The
// hardening attributes live here so the application layer stays free of
// net/http.
func applyCookie(w http.ResponseWriter, directive domain.CookieDirective) {
	http.SetCookie(w, &http.Cookie{
		Name:     directive.Name,
		Value:    directive.Value,
		Path:     "/",
		MaxAge:   directive.MaxAge,
		Secure:   directive.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
