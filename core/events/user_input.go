package events

import "github.com/koscakluka/ema-voicebot/core/speechtotext"

const (
	KindUserSpeechStarted            Kind = "user_input.speech_started"
	KindUserSpeechEnded              Kind = "user_input.speech_ended"
	KindUserTranscriptInterimUpdated Kind = "user_input.transcript_interim_updated"
	KindUserTranscriptFinal          Kind = "user_input.transcript_final"
	KindUserCaptureFailed            Kind = "user_input.capture_failed"
)

// UserSpeechStarted marks the first frame loud enough to be speech
type UserSpeechStarted struct{ Base }

func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks the end of the phrase, by pause or by time limit
type UserSpeechEnded struct{ Base }

func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscriptInterimUpdated carries what the recognizer heard so far
type UserTranscriptInterimUpdated struct {
	Base
	Transcript string
}

func NewUserTranscriptInterimUpdated(transcript string) UserTranscriptInterimUpdated {
	return UserTranscriptInterimUpdated{Base: NewBase(KindUserTranscriptInterimUpdated), Transcript: transcript}
}

type UserTranscriptFinal struct {
	Base
	Transcript string
}

func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserCaptureFailed reports a capture that produced no transcript
type UserCaptureFailed struct {
	Base
	Reason speechtotext.CaptureErrorKind
}

func NewUserCaptureFailed(reason speechtotext.CaptureErrorKind) UserCaptureFailed {
	return UserCaptureFailed{Base: NewBase(KindUserCaptureFailed), Reason: reason}
}

func (e UserCaptureFailed) Message() string { return e.Reason.Message() }
