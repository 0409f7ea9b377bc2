package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-voicebot/core/audio"
)

// Synthesizer turns text into a single playable clip
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) (audio.Clip, error)
}

type SynthesisOptions struct {
	EncodingInfo audio.EncodingInfo
	// Voice overrides the synthesizer's default voice, empty keeps the default
	Voice string
}

type SynthesisOption func(*SynthesisOptions)

func ApplySynthesisOptions(base SynthesisOptions, opts ...SynthesisOption) SynthesisOptions {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}
