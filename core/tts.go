package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type textToSpeech struct {
	client  texttospeech.Synthesizer
	options []texttospeech.SynthesisOption
}

func (t *textToSpeech) set(client texttospeech.Synthesizer) {
	t.client = nil
	if isNilClient(client) {
		return
	}
	t.client = client
}

func (t *textToSpeech) isConfigured() bool { return t != nil && t.client != nil }

// Speak synthesizes text and starts playing it, replacing whatever was playing
// before. It returns once playback has started; the clip is released when it
// finishes playing, when StopAudio is called or when playback fails.
//
// Playback failures are reported as [*PlaybackError] and leave the player
// Idle. If StopAudio, another Speak or a capture intervenes while the clip is
// being synthesized, the clip is dropped and [ErrPlaybackStopped] is returned.
func (o *Orchestrator) Speak(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Clip, error) {
	if o.closed.Load() {
		return audio.Clip{}, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return audio.Clip{}, ErrEmptyInput
	}
	if !o.textToSpeech.isConfigured() {
		return audio.Clip{}, ErrNoSynthesizer
	}

	ctx, span := tracer.Start(ctx, "speak")
	defer span.End()

	generation := o.player.Stop(&o.audioOutput)

	options := append([]texttospeech.SynthesisOption{
		texttospeech.WithEncodingInfo(o.audioOutput.EncodingInfo()),
	}, o.textToSpeech.options...)
	clip, err := o.textToSpeech.client.Synthesize(ctx, text, append(options, opts...)...)
	if err != nil {
		playbackErr := &PlaybackError{Err: fmt.Errorf("failed to synthesize speech: %w", err)}
		span.RecordError(playbackErr)
		span.SetStatus(codes.Error, playbackErr.Error())
		return audio.Clip{}, playbackErr
	}
	span.SetAttributes(
		attribute.String("clip.id", clip.ID),
		attribute.Int("clip.bytes", len(clip.Data)),
	)

	if err := o.player.Play(clip, &o.audioOutput, generation); err != nil {
		if errors.Is(err, ErrPlaybackStopped) {
			span.AddEvent("clip dropped")
			return clip, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return clip, err
	}

	return clip, nil
}

// StopAudio halts the current clip, if any, and releases it. Calling it while
// Idle does nothing.
func (o *Orchestrator) StopAudio() {
	o.player.Stop(&o.audioOutput)
}

// AwaitPlayback blocks until the player is Idle or ctx is done
func (o *Orchestrator) AwaitPlayback(ctx context.Context) error {
	return o.player.Await(ctx)
}
