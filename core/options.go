package orchestration

import (
	"time"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
)

const (
	DefaultGreeting = "Hello! Ask me anything."

	DefaultListenTimeout   = 5 * time.Second
	DefaultPauseThreshold  = 800 * time.Millisecond
	DefaultPhraseTimeLimit = 10 * time.Second
	// DefaultEnergyThreshold is the RMS level of a linear16 chunk above which
	// it is treated as speech
	DefaultEnergyThreshold = 300
)

type OrchestratorOption func(*Orchestrator)

func WithCompletionClient(client llms.Completion) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.set(client) }
}

// WithSystemPrompt sets instructions sent ahead of the history on every turn
func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.systemPrompt = prompt }
}

// WithGreeting replaces the seeded assistant greeting. Blank greetings are
// ignored, the history always starts with one.
func WithGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) { o.conversation.setGreeting(greeting) }
}

// WithHistory continues an earlier session, for example one read back with
// [conversations.Import]. An empty history leaves the greeting in place.
// ResetHistory still goes back to the greeting alone.
func WithHistory(history []llms.Turn) OrchestratorOption {
	return func(o *Orchestrator) { o.conversation.restore(history) }
}

func WithRecognizer(recognizer speechtotext.Recognizer) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.set(recognizer) }
}

func WithRecognitionOptions(opts ...speechtotext.RecognitionOption) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.options = append(o.speechToText.options, opts...) }
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) { o.textToSpeech.set(synthesizer) }
}

func WithSynthesisOptions(opts ...texttospeech.SynthesisOption) OrchestratorOption {
	return func(o *Orchestrator) { o.textToSpeech.options = append(o.textToSpeech.options, opts...) }
}

func WithAudioInput(client audio.Input) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.Set(client) }
}

func WithAudioOutput(client audio.Output) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

// WithListenTimings overrides the capture timings, zero values keep the
// defaults
func WithListenTimings(listenTimeout, pauseThreshold, phraseTimeLimit time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if listenTimeout > 0 {
			o.listenOptions.listenTimeout = listenTimeout
		}
		if pauseThreshold > 0 {
			o.listenOptions.pauseThreshold = pauseThreshold
		}
		if phraseTimeLimit > 0 {
			o.listenOptions.phraseTimeLimit = phraseTimeLimit
		}
	}
}

func WithEnergyThreshold(threshold float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.listenOptions.energyThreshold = threshold
		}
	}
}

// WithPlaybackStateCallback registers a callback for Idle/Playing transitions
func WithPlaybackStateCallback(callback func(PlaybackState)) OrchestratorOption {
	return func(o *Orchestrator) { o.events.add(playbackStateHandler(callback)) }
}

// WithEventHandler registers handler for every session event. Handlers run on
// the goroutine that caused the event and must not call back into the
// orchestrator.
func WithEventHandler(handler events.Handler) OrchestratorOption {
	return func(o *Orchestrator) { o.events.add(handler) }
}

type listenOptions struct {
	listenTimeout   time.Duration
	pauseThreshold  time.Duration
	phraseTimeLimit time.Duration
	energyThreshold float64
}

func defaultListenOptions() listenOptions {
	return listenOptions{
		listenTimeout:   DefaultListenTimeout,
		pauseThreshold:  DefaultPauseThreshold,
		phraseTimeLimit: DefaultPhraseTimeLimit,
		energyThreshold: DefaultEnergyThreshold,
	}
}
