package orchestration

import (
	"context"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
)

type speechToText struct {
	client  speechtotext.Recognizer
	options []speechtotext.RecognitionOption
}

func (s *speechToText) set(client speechtotext.Recognizer) {
	s.client = nil
	if isNilClient(client) {
		return
	}
	s.client = client
}

func (s *speechToText) isConfigured() bool { return s != nil && s.client != nil }

// recognize runs the recognizer on its own goroutine and delivers the result
// on the returned channel, which receives exactly one value. Interim
// transcripts reach both the configured callback and emit.
func (s *speechToText) recognize(ctx context.Context, chunks <-chan []byte, encoding audio.EncodingInfo, emit func(events.Event), opts ...speechtotext.RecognitionOption) <-chan recognitionResult {
	result := make(chan recognitionResult, 1)
	options := append(append([]speechtotext.RecognitionOption{}, s.options...), opts...)
	onInterim := speechtotext.ApplyRecognitionOptions(options...).InterimTranscriptionCallback
	options = append(options, speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
		onInterim(transcript)
		emit(events.NewUserTranscriptInterimUpdated(transcript))
	}))

	go func() {
		var transcript string
		err := panicSafeNamedWorker("speech recognition", func(ctx context.Context) error {
			var err error
			transcript, err = s.client.Recognize(ctx, chunks, encoding, options...)
			return err
		})(ctx)
		result <- recognitionResult{transcript: transcript, err: err}
	}()

	return result
}

type recognitionResult struct {
	transcript string
	err        error
}
