package events

import (
	"testing"
	"time"

	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
)

func TestEventKinds(t *testing.T) {
	cases := []struct {
		event Event
		kind  Kind
	}{
		{NewUserSpeechStarted(), KindUserSpeechStarted},
		{NewUserSpeechEnded(), KindUserSpeechEnded},
		{NewUserTranscriptInterimUpdated("what is"), KindUserTranscriptInterimUpdated},
		{NewUserTranscriptFinal("what is the time"), KindUserTranscriptFinal},
		{NewUserCaptureFailed(speechtotext.CaptureErrorUnintelligible), KindUserCaptureFailed},
		{NewAssistantResponseFinal("noon"), KindAssistantResponseFinal},
		{NewAssistantResponseFailed(llms.CompletionErrorNetwork, "Error: unreachable"), KindAssistantResponseFailed},
		{NewAssistantPlaybackStarted("clip", "noon"), KindAssistantPlaybackStarted},
		{NewAssistantPlaybackEnded("clip", false), KindAssistantPlaybackEnded},
		{NewConversationReset("Hello!"), KindConversationReset},
	}

	for _, c := range cases {
		if c.event.Kind() != c.kind {
			t.Fatalf("expected kind %q, got %q", c.kind, c.event.Kind())
		}
		if c.event.Timestamp().IsZero() || time.Since(c.event.Timestamp()) > time.Minute {
			t.Fatalf("expected %q to be stamped with the current time, got %v", c.kind, c.event.Timestamp())
		}
	}
}

func TestCaptureFailedMessage(t *testing.T) {
	event := NewUserCaptureFailed(speechtotext.CaptureErrorNoSpeechDetected)
	if event.Message() != "No speech detected. Please try again." {
		t.Fatalf("unexpected message %q", event.Message())
	}
}
