package events

import "github.com/koscakluka/ema-voicebot/core/llms"

const (
	KindAssistantResponseFinal   Kind = "assistant_response.final"
	KindAssistantResponseFailed  Kind = "assistant_response.failed"
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	KindAssistantPlaybackEnded   Kind = "assistant_playback.ended"
)

type AssistantResponseFinal struct {
	Base
	Reply string
}

func NewAssistantResponseFinal(reply string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Reply: reply}
}

// AssistantResponseFailed reports a turn whose completion failed, Reply is
// the error message shown instead of an answer
type AssistantResponseFailed struct {
	Base
	Reason llms.CompletionErrorKind
	Reply  string
}

func NewAssistantResponseFailed(reason llms.CompletionErrorKind, reply string) AssistantResponseFailed {
	return AssistantResponseFailed{Base: NewBase(KindAssistantResponseFailed), Reason: reason, Reply: reply}
}

type AssistantPlaybackStarted struct {
	Base
	ClipID     string
	Transcript string
}

func NewAssistantPlaybackStarted(clipID, transcript string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), ClipID: clipID, Transcript: transcript}
}

// AssistantPlaybackEnded is emitted once per started clip, Interrupted is set
// when the clip was stopped or failed before it finished playing
type AssistantPlaybackEnded struct {
	Base
	ClipID      string
	Interrupted bool
}

func NewAssistantPlaybackEnded(clipID string, interrupted bool) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), ClipID: clipID, Interrupted: interrupted}
}
