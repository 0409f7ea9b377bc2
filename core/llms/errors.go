package llms

import (
	"errors"
	"fmt"
	"net/http"
)

type CompletionErrorKind string

const (
	CompletionErrorAuth              CompletionErrorKind = "auth"
	CompletionErrorRateLimit         CompletionErrorKind = "rate_limit"
	CompletionErrorNetwork           CompletionErrorKind = "network"
	CompletionErrorMalformedResponse CompletionErrorKind = "malformed_response"
	CompletionErrorUnknown           CompletionErrorKind = "unknown"
)

var (
	ErrAuth              = &CompletionError{Kind: CompletionErrorAuth}
	ErrRateLimited       = &CompletionError{Kind: CompletionErrorRateLimit}
	ErrNetwork           = &CompletionError{Kind: CompletionErrorNetwork}
	ErrMalformedResponse = &CompletionError{Kind: CompletionErrorMalformedResponse}
)

// CompletionError is a typed failure reported by a completion service.
type CompletionError struct {
	Kind CompletionErrorKind
	// StatusCode is the HTTP status returned by the service, 0 when the
	// request never got a response
	StatusCode int
	Err        error
}

func NewCompletionError(kind CompletionErrorKind, statusCode int, err error) *CompletionError {
	return &CompletionError{Kind: kind, StatusCode: statusCode, Err: err}
}

func (e *CompletionError) Error() string {
	var msg string
	switch e.Kind {
	case CompletionErrorAuth:
		msg = "completion service rejected the credentials"
	case CompletionErrorRateLimit:
		msg = "completion service rate limit or quota exceeded"
	case CompletionErrorNetwork:
		msg = "completion service unreachable"
	case CompletionErrorMalformedResponse:
		msg = "completion service returned a malformed response"
	default:
		msg = "completion service failed"
	}

	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Is matches any CompletionError of the same kind, so the kind sentinels can
// be used with errors.Is.
func (e *CompletionError) Is(target error) bool {
	var t *CompletionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// ClassifyStatus maps a non-2xx HTTP status code of a completion service to an
// error kind.
func ClassifyStatus(statusCode int) CompletionErrorKind {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CompletionErrorAuth
	case http.StatusTooManyRequests:
		return CompletionErrorRateLimit
	}
	return CompletionErrorUnknown
}

// AsCompletionError returns err as a *CompletionError, wrapping errors from
// clients that do not classify their failures as unknown
func AsCompletionError(err error) *CompletionError {
	if err == nil {
		return nil
	}

	var completionErr *CompletionError
	if errors.As(err, &completionErr) {
		return completionErr
	}
	return NewCompletionError(CompletionErrorUnknown, 0, err)
}
