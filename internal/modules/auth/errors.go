package auth

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the
// auth module. It carries HTTP/RFC7807-friendly metadata so a shared
// formatter can convert any domain error into a Problem response without
// enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrInvalidOTP").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter defaults to
	// StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is
	// empty, this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g. "urn:problem:auth/err-invalid-otp".
	TypeURI string

	// Context is an optional extension payload for clients (e.g., the
	// sessionExpired hint).
	Context any

	cause error
}

func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for errors.Is and errors.As, exposing the
// underlying error chain.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than
// pointer identity, so copies created via WithCause match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the DomainError wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithContext attaches an extension payload for clients.
func (e *DomainError) WithContext(ctx any) *DomainError {
	cp := *e
	cp.Context = ctx
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---

var (
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "record not found",
		TypeURI:    "urn:problem:auth/err-not-found",
	}

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses never reveal which identifiers exist.
	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:auth/err-invalid-credentials",
	}

	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "an account with this email already exists",
		TypeURI:    "urn:problem:auth/err-email-exists",
	}

	ErrPhoneExists = &DomainError{
		Code:       "ErrPhoneExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "an account with this phone number already exists",
		TypeURI:    "urn:problem:auth/err-phone-exists",
	}

	// ErrAccountNotActive is returned on login for SUSPENDED/DEACTIVATED
	// accounts regardless of credential correctness. Always Forbidden, never
	// Unauthorized: the credentials were right, the account state is not.
	ErrAccountNotActive = &DomainError{
		Code:       "ErrAccountNotActive",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "this account is not active",
		TypeURI:    "urn:problem:auth/err-account-not-active",
	}

	// ErrInvalidOTP collapses wrong-code, expired and already-used into a
	// single message to prevent enumeration and timing leakage.
	ErrInvalidOTP = &DomainError{
		Code:       "ErrInvalidOTP",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid or expired one-time passcode",
		TypeURI:    "urn:problem:auth/err-invalid-otp",
	}

	ErrMissingRefreshToken = &DomainError{
		Code:       "ErrMissingRefreshToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "refresh token is required",
		TypeURI:    "urn:problem:auth/err-missing-refresh-token",
	}

	// ErrInvalidRefreshToken covers not-found, expired and revoked tokens.
	// The sessionExpired hint tells clients a fresh login is needed rather
	// than another refresh attempt.
	ErrInvalidRefreshToken = &DomainError{
		Code:       "ErrInvalidRefreshToken",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid or expired refresh token",
		TypeURI:    "urn:problem:auth/err-invalid-refresh-token",
		Context:    map[string]any{"sessionExpired": true},
	}

	ErrPasswordMismatch = &DomainError{
		Code:       "ErrPasswordMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "current password is incorrect",
		TypeURI:    "urn:problem:auth/err-password-mismatch",
	}

	ErrForbidden = &DomainError{
		Code:       "ErrForbidden",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "you do not have permission to perform this action",
		TypeURI:    "urn:problem:auth/err-forbidden",
	}

	// OAuth
	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:auth/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid oauth state",
		TypeURI:    "urn:problem:auth/err-oauth-state-invalid",
	}

	ErrOAuthStateExpired = &DomainError{
		Code:       "ErrOAuthStateExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "oauth state has expired",
		TypeURI:    "urn:problem:auth/err-oauth-state-expired",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:auth/err-oauth-exchange-failed",
	}

	ErrOAuthEmailMissing = &DomainError{
		Code:       "ErrOAuthEmailMissing",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "email not provided by oauth provider",
		TypeURI:    "urn:problem:auth/err-oauth-email-missing",
	}

	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:auth/err-internal",
	}
)
