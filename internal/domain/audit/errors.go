package audit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports a missing or invalid service setting.
// Fatal for the request and never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// ErrMissingCredential is returned when no inference credential is configured
var ErrMissingCredential = &ConfigurationError{
	Message: "server configuration error: the inference API key is not configured",
}

// ValidationError reports a rejected submission
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FetchErrorKind classifies retrieval failures
type FetchErrorKind string

const (
	FetchInvalidURL  FetchErrorKind = "invalid_url"
	FetchTimeout     FetchErrorKind = "timeout"
	FetchBlocked     FetchErrorKind = "blocked"
	FetchRateLimited FetchErrorKind = "rate_limited"
	FetchBadRequest  FetchErrorKind = "bad_request"
	FetchHTTPStatus  FetchErrorKind = "http_status"
	FetchTooShort    FetchErrorKind = "too_short"
	FetchUnsupported FetchErrorKind = "unsupported_content"
	FetchTransport   FetchErrorKind = "transport"
)

// FetchError reports why a target could not be retrieved.
// Message is human-readable and specific to the cause.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a fetch timeout
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchTimeout
}

// ExtractionError reports that no usable content survived extraction
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// ErrEmptyContent is returned when extraction yields only whitespace
var ErrEmptyContent = &ExtractionError{
	Message: "no extractable content found on the page; it may be rendered entirely by JavaScript",
}

// AttemptFailure records why one inference backend did not answer
type AttemptFailure struct {
	ModelID string `json:"model"`
	Reason  string `json:"reason"`
}

// ExhaustionError is raised when every backend in the fallback list failed
type ExhaustionError struct {
	Attempts []AttemptFailure
}

func (e *ExhaustionError) Error() string {
	if len(e.Attempts) == 0 {
		return "no inference models configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %s", a.ModelID, a.Reason)
	}
	return "all inference models failed: " + strings.Join(parts, "; ")
}

// Remediation explains what the caller can do about exhausted backends
func (e *ExhaustionError) Remediation() string {
	return "Every configured model is unavailable or over quota. " +
		"Wait a few minutes and retry, check the API key's quota and billing, " +
		"or configure additional models in AUDIT_MODELS."
}

// MalformedResponseError reports a model reply without a valid audit object
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error from the pipeline to an HTTP status
func StatusCode(err error) int {
	var (
		cfgErr       *ConfigurationError
		validErr     *ValidationError
		fetchErr     *FetchError
		extractErr   *ExtractionError
		exhaustErr   *ExhaustionError
		malformedErr *MalformedResponseError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &validErr), errors.As(err, &fetchErr), errors.As(err, &extractErr):
		return http.StatusBadRequest
	case errors.As(err, &exhaustErr):
		return http.StatusTooManyRequests
	case errors.As(err, &malformedErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Outcome is a short label for metrics and logs
func Outcome(err error) string {
	var (
		cfgErr       *ConfigurationError
		validErr     *ValidationError
		fetchErr     *FetchError
		extractErr   *ExtractionError
		exhaustErr   *ExhaustionError
		malformedErr *MalformedResponseError
	)

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &fetchErr):
		return "fetch_" + string(fetchErr.Kind)
	case errors.As(err, &extractErr):
		return "extraction"
	case errors.As(err, &exhaustErr):
		return "exhausted"
	case errors.As(err, &malformedErr):
		return "malformed"
	default:
		return "internal"
	}
}
