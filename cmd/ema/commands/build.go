package commands

import (
	"context"
	"fmt"

	orchestration "github.com/koscakluka/ema-voicebot/core"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/audio/miniaudio"
	"github.com/koscakluka/ema-voicebot/core/audio/portaudio"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/llms/gemini"
	"github.com/koscakluka/ema-voicebot/core/llms/groq"
	"github.com/koscakluka/ema-voicebot/core/llms/openai"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	sttdeepgram "github.com/koscakluka/ema-voicebot/core/speechtotext/deepgram"
	sttgoogle "github.com/koscakluka/ema-voicebot/core/speechtotext/google"
	ttsdeepgram "github.com/koscakluka/ema-voicebot/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-voicebot/internal/config"
)

type audioDevice interface {
	audio.Input
	audio.Output
	Close()
}

// openAudioDevice is swapped out in tests, real backends need hardware
var openAudioDevice = func(backend string) (audioDevice, error) {
	switch backend {
	case config.BackendMiniaudio:
		return miniaudio.NewClient()
	case config.BackendPortaudio:
		return portaudio.NewClient(portaudio.DefaultBufferSize)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

var newGoogleRecognizer = func(ctx context.Context) (speechtotext.Recognizer, error) {
	return sttgoogle.NewRecognizer(ctx)
}

// newOrchestrator wires the clients selected by cfg into a session, extra
// options are applied last. Clients created before a failure are closed again.
func newOrchestrator(ctx context.Context, cfg *config.Config, extra ...orchestration.OrchestratorOption) (*orchestration.Orchestrator, error) {
	var cleanup []func()
	fail := func(err error) (*orchestration.Orchestrator, error) {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		return nil, err
	}

	completion, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithCompletionClient(completion),
		orchestration.WithSystemPrompt(cfg.LLM.SystemPrompt),
		orchestration.WithGreeting(cfg.LLM.Greeting),
	}

	if !cfg.VoiceEnabled() {
		return orchestration.NewOrchestrator(append(opts, extra...)...), nil
	}

	device, err := openAudioDevice(cfg.Audio.Backend)
	if err != nil {
		return fail(fmt.Errorf("failed to open audio device: %w", err))
	}
	cleanup = append(cleanup, device.Close)
	opts = append(opts, orchestration.WithAudioInput(device), orchestration.WithAudioOutput(device))

	switch cfg.Speech.STTProvider {
	case config.ProviderDeepgram:
		recognizer, err := sttdeepgram.NewRecognizer(cfg.Speech.DeepgramAPIKey)
		if err != nil {
			return fail(fmt.Errorf("failed to create deepgram recognizer: %w", err))
		}
		opts = append(opts, orchestration.WithRecognizer(recognizer))
	case config.ProviderGoogle:
		recognizer, err := newGoogleRecognizer(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to create google recognizer: %w", err))
		}
		if closer, ok := recognizer.(interface{ Close() error }); ok {
			cleanup = append(cleanup, func() { _ = closer.Close() })
		}
		opts = append(opts, orchestration.WithRecognizer(recognizer))
	}
	if cfg.Speech.Language != "" {
		opts = append(opts, orchestration.WithRecognitionOptions(speechtotext.WithLanguage(cfg.Speech.Language)))
	}

	if cfg.Speech.TTSProvider == config.ProviderDeepgram {
		ttsOpts := []ttsdeepgram.ClientOption{}
		if cfg.Speech.Voice != "" {
			ttsOpts = append(ttsOpts, ttsdeepgram.WithVoice(ttsdeepgram.Voice(cfg.Speech.Voice)))
		}
		synthesizer, err := ttsdeepgram.NewTextToSpeechClient(cfg.Speech.DeepgramAPIKey, ttsOpts...)
		if err != nil {
			return fail(fmt.Errorf("failed to create deepgram synthesizer: %w", err))
		}
		opts = append(opts, orchestration.WithSynthesizer(synthesizer))
	}

	return orchestration.NewOrchestrator(append(opts, extra...)...), nil
}

func newCompletionClient(ctx context.Context, cfg *config.Config) (llms.Completion, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGroq:
		client, err := groq.NewClient(cfg.LLM.GroqAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create groq client: %w", err)
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := openai.NewClient(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
