package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
)

// Problem implements RFC 9457/7807-compatible problem+json with custom
// extensions:
//   - code: stable business code (e.g., ErrInvalidCredentials)
//   - context: extra error payload; auth flows use it to carry the
//     machine-readable sessionExpired and requiresVerification hints
//   - requestId: propagated from chi middleware.RequestID
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Errors []*huma.ErrorDetail `json:"errors,omitempty"`

	Code      string `json:"code,omitempty"`
	Context   any    `json:"context,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error implements the error interface by returning the problem detail.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	if p.Title != "" {
		return p.Title
	}
	return http.StatusText(p.GetStatus())
}

// GetStatus implements huma.StatusError to set the HTTP response status.
func (p *Problem) GetStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}
	return p.Status
}

// ContentType implements huma.ContentTypeFilter to ensure application/problem+json.
func (p *Problem) ContentType(ct string) string {
	if ct == "application/json" {
		return "application/problem+json"
	}
	if ct == "application/cbor" {
		return "application/problem+cbor"
	}
	return ct
}

// DomainProblem is a minimal interface for domain errors so the formatter
// can build RFC 7807 problems without enumerating all domain error types.
type DomainProblem interface {
	ProblemCode() string
	ProblemStatus() int
	ProblemTitle() string
	ProblemDetail() string
	ProblemTypeURI() string
	ProblemContext() any
}

// ToProblem converts any error into an RFC 7807 Problem with extensions.
//
// Behavior:
//   - If err already implements huma.StatusError (e.g., a Problem), it is
//     returned as-is.
//   - If err implements DomainProblem, it is formatted into a Problem.
//   - Otherwise, a generic internal Problem is returned.
func ToProblem(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(huma.StatusError); ok {
		return err
	}

	var dp DomainProblem
	if errors.As(err, &dp) {
		status := dp.ProblemStatus()
		return &Problem{
			Type:      dp.ProblemTypeURI(),
			Title:     defaultTitle(dp.ProblemTitle(), status),
			Status:    status,
			Detail:    defaultDetail(dp.ProblemDetail(), status),
			Code:      dp.ProblemCode(),
			Context:   dp.ProblemContext(),
			RequestID: middleware.GetReqID(ctx),
		}
	}

	return InternalProblem(ctx, "")
}

// UnauthorizedProblem builds a 401 problem. sessionExpired is surfaced as a
// context extension so clients can decide whether a silent refresh is worth
// attempting before forcing a login screen.
func UnauthorizedProblem(ctx context.Context, detail string, sessionExpired bool) *Problem {
	if detail == "" {
		detail = "Unauthorized"
	}
	return &Problem{
		Type:      "urn:problem:auth/err-unauthorized",
		Title:     http.StatusText(http.StatusUnauthorized),
		Status:    http.StatusUnauthorized,
		Detail:    detail,
		Code:      "ErrUnauthorized",
		Context:   map[string]any{"sessionExpired": sessionExpired},
		RequestID: middleware.GetReqID(ctx),
	}
}

// ForbiddenProblem builds a 403 problem.
func ForbiddenProblem(ctx context.Context, detail string) *Problem {
	if detail == "" {
		detail = "Forbidden"
	}
	return &Problem{
		Type:      "urn:problem:auth/err-forbidden",
		Title:     http.StatusText(http.StatusForbidden),
		Status:    http.StatusForbidden,
		Detail:    detail,
		Code:      "ErrForbidden",
		RequestID: middleware.GetReqID(ctx),
	}
}

// TooManyRequestsProblem builds a 429 problem for rate-limited endpoints.
func TooManyRequestsProblem(ctx context.Context, retryAfterSecs int) *Problem {
	return &Problem{
		Type:      "urn:problem:auth/err-too-many-requests",
		Title:     http.StatusText(http.StatusTooManyRequests),
		Status:    http.StatusTooManyRequests,
		Detail:    "Too many requests. Please try again later.",
		Code:      "ErrTooManyRequests",
		Context:   map[string]any{"retryAfter": retryAfterSecs},
		RequestID: middleware.GetReqID(ctx),
	}
}

// InternalProblem builds a generic 500 internal error problem. If detail is
// empty, a safe user-friendly message is used.
func InternalProblem(ctx context.Context, detail string) *Problem {
	if detail == "" {
		detail = "Something went wrong. Please try again later."
	}
	return &Problem{
		Type:      "urn:problem:internal",
		Title:     http.StatusText(http.StatusInternalServerError),
		Status:    http.StatusInternalServerError,
		Detail:    detail,
		Code:      "ErrInternal",
		RequestID: middleware.GetReqID(ctx),
	}
}

// ValidationProblem builds a 400 validation error with the field errors map.
func ValidationProblem(ctx context.Context, summary string, fields map[string][]string) *Problem {
	if summary == "" {
		summary = "Validation error"
	}
	return &Problem{
		Type:      "urn:problem:validation-error",
		Title:     "Validation error",
		Status:    http.StatusBadRequest,
		Detail:    summary,
		Code:      "ErrValidation",
		Context:   map[string]any{"fields": fields},
		RequestID: middleware.GetReqID(ctx),
	}
}

func defaultTitle(title string, status int) string {
	if title != "" {
		return title
	}
	return http.StatusText(status)
}

func defaultDetail(detail string, status int) string {
	if detail != "" {
		return detail
	}
	return http.StatusText(status)
}
