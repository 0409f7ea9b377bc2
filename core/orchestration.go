package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/conversations"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/llms"
)

var _ conversations.ActiveContext = (*Orchestrator)(nil)

// Orchestrator owns one chat session: the conversation history, the playback
// state and the clients used to complete, hear and speak turns. All of its
// methods are safe to call from multiple goroutines, turns are serialized.
type Orchestrator struct {
	conversation *conversation
	player       *speechPlayer
	events       *eventEmitter

	// turnMu serializes SubmitTurn and CaptureUtterance, there is never more
	// than one in-flight turn
	turnMu sync.Mutex

	llm           completion
	speechToText  speechToText
	textToSpeech  textToSpeech
	audioInput    audioInput
	audioOutput   audioOutput
	listenOptions listenOptions

	closed    atomic.Bool
	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	emitter := &eventEmitter{}
	o := &Orchestrator{
		conversation:  newConversation(DefaultGreeting),
		player:        newSpeechPlayer(emitter.emit),
		events:        emitter,
		listenOptions: defaultListenOptions(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Close stops playback and closes every configured client that can be closed.
// Repeated calls are ignored.
func (o *Orchestrator) Close() error {
	var closeErr error
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.StopAudio()

		for name, client := range map[string]any{
			"completion client": o.llm.client,
			"recognizer":        o.speechToText.client,
			"synthesizer":       o.textToSpeech.client,
			"audio input":       o.audioInput.base,
			"audio output":      o.audioOutput.base,
		} {
			if err := closeClient(client); err != nil {
				logger.Warn("failed to close client", "client", name, "error", err)
				if closeErr == nil {
					closeErr = fmt.Errorf("failed to close %s: %w", name, err)
				}
			}
		}
	})
	return closeErr
}

func closeClient(client any) error {
	switch c := client.(type) {
	case io.Closer:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	case interface{ Close(context.Context) error }:
		return c.Close(context.Background())
	}
	return nil
}

// History returns a deep copy of the conversation, oldest turn first
func (o *Orchestrator) History() []llms.Turn { return o.conversation.History() }

// ResetHistory replaces the conversation with the seeded greeting and returns
// the new history. It never talks to any remote service.
func (o *Orchestrator) ResetHistory() []llms.Turn {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	history := o.conversation.Reset()
	o.events.emit(events.NewConversationReset(o.conversation.Greeting()))
	return history
}

func (o *Orchestrator) PlaybackState() PlaybackState { return o.player.State() }

// AllocatedClips reports how many synthesized clips are still held for
// playback
func (o *Orchestrator) AllocatedClips() int { return o.player.Allocated() }

func (o *Orchestrator) CanListen() bool {
	return o.speechToText.isConfigured() && o.audioInput.IsConfigured()
}

func (o *Orchestrator) CanSpeak() bool { return o.textToSpeech.isConfigured() }

func (o *Orchestrator) InputEncoding() audio.EncodingInfo { return o.audioInput.EncodingInfo() }
