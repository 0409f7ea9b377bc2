package deepgram

import (
	"context"
	"fmt"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/internal/deepgramaudio"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultSpeakURL = "wss://api.deepgram.com/v1/speak"

var _ texttospeech.Synthesizer = (*TextToSpeechClient)(nil)

type TextToSpeechClient struct {
	apiKey       string
	voice        Voice
	speakURL     string
	encodingInfo audio.EncodingInfo
	dialer       *websocket.Dialer
}

type ClientOption func(*TextToSpeechClient)

func WithVoice(voice Voice) ClientOption {
	return func(c *TextToSpeechClient) { c.voice = voice }
}

// WithSpeakURL points the client at a different speak endpoint, mostly useful
// for tests
func WithSpeakURL(speakURL string) ClientOption {
	return func(c *TextToSpeechClient) { c.speakURL = speakURL }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *TextToSpeechClient) {
		if !encodingInfo.IsZero() {
			c.encodingInfo = encodingInfo
		}
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *TextToSpeechClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func NewTextToSpeechClient(apiKey string, opts ...ClientOption) (*TextToSpeechClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}

	client := &TextToSpeechClient{
		apiKey:       apiKey,
		voice:        DefaultVoice,
		speakURL:     DefaultSpeakURL,
		encodingInfo: audio.GetDefaultEncodingInfo(),
		dialer:       websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}

	if !slices.Contains(GetAvailableVoices(), client.voice) {
		return nil, fmt.Errorf("invalid voice %q", client.voice)
	}
	if err := deepgramaudio.Validate(client.encodingInfo); err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	return client, nil
}

func (c *TextToSpeechClient) Voice() Voice { return c.voice }

// Synthesize opens a speak socket for the text, flushes it and returns all the
// audio received before Deepgram confirms the flush.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Clip, error) {
	options := texttospeech.ApplySynthesisOptions(texttospeech.SynthesisOptions{
		EncodingInfo: c.encodingInfo,
		Voice:        string(c.voice),
	}, opts...)

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", options.Voice),
		attribute.Int("request.text_length", len(text)),
	)

	fail := func(err error) (audio.Clip, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return audio.Clip{}, err
	}

	voice := Voice(options.Voice)
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fail(fmt.Errorf("invalid voice %q", voice))
	}
	if err := deepgramaudio.Validate(options.EncodingInfo); err != nil {
		return fail(fmt.Errorf("invalid encoding: %w", err))
	}

	req, err := c.newSpeakRequest(ctx, voice, options.EncodingInfo)
	if err != nil {
		return fail(err)
	}
	defer req.close()

	data, err := req.speak(ctx, text)
	if err != nil {
		return fail(err)
	}

	clip := audio.NewClip(text, data, options.EncodingInfo)
	span.SetAttributes(
		attribute.String("clip.id", clip.ID),
		attribute.Int("clip.bytes", len(data)),
	)
	return clip, nil
}
