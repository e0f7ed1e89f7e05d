package errors

import (
	stderrors "errors"
	"net/http"
)

// Session error reasons. These are machine-stable codes surfaced to
// diagnostics alongside a short human-readable message; raw provider
// bodies are never forwarded to end users.
const (
	ReasonOAuthDenied            = "oauth_denied"
	ReasonOAuthMalformedResponse = "oauth_malformed_response"
	ReasonReplayedCode           = "replayed_authorization_code"
	ReasonTokenExchangeFailed    = "token_exchange_failed"
	ReasonTokenRefreshFailed     = "token_refresh_failed"
	ReasonProfileFetchFailed     = "profile_fetch_failed"
	ReasonStorageCorrupted       = "storage_corrupted"
	ReasonBindingFailed          = "binding_failed"
	ReasonUserCancelled          = "user_cancelled"
	ReasonUnknownPermissionRule  = "unknown_permission_rule"
)

// SessionError represents a failure in the identity/session subsystem with
// a stable reason code and logging hints.
type SessionError struct {
	*AppError
	// Reason is the machine-stable code for diagnostics.
	Reason string
	// ShouldLog determines whether the error deserves error-level logging.
	// Expected outcomes (user declined, user cancelled) stay out of the error log.
	ShouldLog bool
	// SecurityEvent marks errors worth tracking for abuse detection.
	SecurityEvent bool
}

// Error implements the error interface
func (e *SessionError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *SessionError) Unwrap() error {
	return e.AppError
}

// ReasonOf extracts the session error reason, or "" for other errors.
func ReasonOf(err error) string {
	var se *SessionError
	if stderrors.As(err, &se) {
		return se.Reason
	}
	return ""
}

// NewOAuthDeniedError is returned when the provider callback carries an
// error parameter: the user declined, or provider policy rejected the attempt.
func NewOAuthDeniedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, "Sign-in was declined", details),
		Reason:        ReasonOAuthDenied,
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewOAuthMalformedResponseError is returned when required callback
// parameters are missing.
func NewOAuthMalformedResponseError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeBadRequest, http.StatusBadRequest, "Sign-in response was incomplete", details),
		Reason:        ReasonOAuthMalformedResponse,
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewReplayedCodeError is returned when a callback replays an authorization
// code that was already exchanged (browser back button, duplicate delivery).
func NewReplayedCodeError() *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeConflict, http.StatusConflict, "Sign-in attempt was already completed", nil),
		Reason:        ReasonReplayedCode,
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewTokenExchangeFailedError wraps network/HTTP failures during code exchange.
func NewTokenExchangeFailedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeInternal, http.StatusBadGateway, "Sign-in could not be completed", details),
		Reason:        ReasonTokenExchangeFailed,
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewTokenRefreshFailedError is returned when the refresh token is revoked
// or expired. Callers downgrade to unauthenticated rather than retrying.
func NewTokenRefreshFailedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, "Session expired, please sign in again", details),
		Reason:        ReasonTokenRefreshFailed,
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewProfileFetchFailedError wraps userinfo fetch failures after exchange.
func NewProfileFetchFailedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeInternal, http.StatusBadGateway, "Sign-in could not be completed", details),
		Reason:        ReasonProfileFetchFailed,
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewStorageCorruptedError marks undecryptable or unparsable stored state.
// Callers recover it as a cache miss; it never reaches end users.
func NewStorageCorruptedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeInternal, http.StatusInternalServerError, "Stored session was unreadable", details),
		Reason:        ReasonStorageCorrupted,
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewBindingFailedError marks a failed anonymous-state merge. Login still
// succeeds with a fresh entitlement state.
func NewBindingFailedError(details ...string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeInternal, http.StatusInternalServerError, "Could not carry over previous usage", details),
		Reason:        ReasonBindingFailed,
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewUserCancelledError resolves an abandoned interactive login attempt.
func NewUserCancelledError() *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeBadRequest, http.StatusBadRequest, "Sign-in was cancelled", nil),
		Reason:        ReasonUserCancelled,
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewUnknownPermissionRuleError marks an unrecognized rule key. Warning
// level only; evaluation skips the key and continues.
func NewUnknownPermissionRuleError(key string) *SessionError {
	return &SessionError{
		AppError:      newAppError(ErrorTypeInternal, http.StatusInternalServerError, "Unknown permission rule", []string{key}),
		Reason:        ReasonUnknownPermissionRule,
		ShouldLog:     true,
		SecurityEvent: false,
	}
}
