package speechtotext

import (
	"context"

	"github.com/koscakluka/ema-voicebot/core/audio"
)

// Recognizer turns one utterance into text. Audio chunks arrive on audio until
// the channel is closed, at which point the recognizer finalizes and returns
// the transcript. Failures are reported as [*CaptureError].
type Recognizer interface {
	Recognize(ctx context.Context, audio <-chan []byte, encoding audio.EncodingInfo, opts ...RecognitionOption) (string, error)
}

type RecognitionOptions struct {
	// InterimTranscriptionCallback receives the transcript recognized so far,
	// not supported by all recognizers
	InterimTranscriptionCallback func(transcript string)
	// SpeechEndedCallback is called when the recognizer detects the end of the
	// utterance before the audio channel is closed
	SpeechEndedCallback func()

	Language string
}

type RecognitionOption func(*RecognitionOptions)

func DefaultRecognitionOptions() RecognitionOptions {
	return RecognitionOptions{
		InterimTranscriptionCallback: func(string) {},
		SpeechEndedCallback:          func() {},
		Language:                     "en-US",
	}
}

func ApplyRecognitionOptions(opts ...RecognitionOption) RecognitionOptions {
	options := DefaultRecognitionOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithInterimTranscriptionCallback(callback func(transcript string)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.InterimTranscriptionCallback = callback
		}
	}
}

func WithSpeechEndedCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.SpeechEndedCallback = callback
		}
	}
}

func WithLanguage(language string) RecognitionOption {
	return func(o *RecognitionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}
