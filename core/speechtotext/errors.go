package speechtotext

import (
	"errors"
	"fmt"
)

type CaptureErrorKind string

const (
	CaptureErrorNoSpeechDetected   CaptureErrorKind = "no_speech_detected"
	CaptureErrorUnintelligible     CaptureErrorKind = "unintelligible"
	CaptureErrorServiceUnavailable CaptureErrorKind = "service_unavailable"
)

// Message is the text shown to the user when capture fails with this kind
func (k CaptureErrorKind) Message() string {
	switch k {
	case CaptureErrorNoSpeechDetected:
		return "No speech detected. Please try again."
	case CaptureErrorUnintelligible:
		return "Sorry, I could not understand the audio."
	case CaptureErrorServiceUnavailable:
		return "Speech recognition service is unavailable."
	}
	return "Speech capture failed."
}

var (
	ErrNoSpeechDetected   = &CaptureError{Kind: CaptureErrorNoSpeechDetected}
	ErrUnintelligible     = &CaptureError{Kind: CaptureErrorUnintelligible}
	ErrServiceUnavailable = &CaptureError{Kind: CaptureErrorServiceUnavailable}
)

// CaptureError is returned when an utterance could not be turned into text.
// Err holds the underlying cause, if any.
type CaptureError struct {
	Kind CaptureErrorKind
	Err  error
}

func NewCaptureError(kind CaptureErrorKind, err error) *CaptureError {
	return &CaptureError{Kind: kind, Err: err}
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech capture failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("speech capture failed (%s)", e.Kind)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Is matches any CaptureError of the same kind, so the package sentinels work
// with errors.Is.
func (e *CaptureError) Is(target error) bool {
	var other *CaptureError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Message is the user-visible description of the failure
func (e *CaptureError) Message() string { return e.Kind.Message() }
