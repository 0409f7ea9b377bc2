package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for blank utterances, nothing else happens
	ErrEmptyInput = errors.New("utterance is empty")

	ErrNoCompletionClient = errors.New("no completion client configured")
	ErrNoRecognizer       = errors.New("no speech recognizer configured")
	ErrNoSynthesizer      = errors.New("no speech synthesizer configured")
	ErrAudioInputMissing  = errors.New("no audio input configured")
	ErrClosed             = errors.New("orchestrator closed")

	// ErrPlaybackStopped is returned by Speak when playback was stopped
	// before the synthesized clip could start
	ErrPlaybackStopped = errors.New("playback stopped before the clip started")

	errEmptyResponse = errors.New("completion client returned no response")
)

// PlaybackError reports that synthesized speech could not be played. Playback
// is best effort, callers usually log it and carry on.
type PlaybackError struct {
	ClipID string
	Err    error
}

func (e *PlaybackError) Error() string {
	if e.ClipID == "" {
		return fmt.Sprintf("playback failed: %v", e.Err)
	}
	return fmt.Sprintf("playback of clip %s failed: %v", e.ClipID, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
