package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/events"
)

type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackPlaying PlaybackState = "playing"
)

// speechPlayer is the Idle/Playing state machine for synthesized clips. At
// most one clip plays at a time and every clip handed to Play is released
// exactly once: on completion, on Stop or when sending it to the output fails.
// Every started clip emits one AssistantPlaybackStarted and one
// AssistantPlaybackEnded event.
type speechPlayer struct {
	// playMu serializes Play and Stop so audio is never queued for a clip
	// that was already stopped
	playMu sync.Mutex
	// generation is bumped by every Stop, guarded by playMu. A clip
	// synthesized under an older generation is dropped instead of played.
	generation uint64
	// suspended rejects clips while the microphone is capturing
	suspended bool
	// emitMu keeps playback events in the order of the state changes
	emitMu sync.Mutex
	mu     sync.Mutex

	current   *playback
	allocated map[string]audio.Clip

	emit func(events.Event)
}

// playback is the handle of the clip currently held by the player
type playback struct {
	clip audio.Clip
	done chan struct{}
}

func newSpeechPlayer(emit func(events.Event)) *speechPlayer {
	if emit == nil {
		emit = func(events.Event) {}
	}
	return &speechPlayer{
		allocated: map[string]audio.Clip{},
		emit:      emit,
	}
}

func (p *speechPlayer) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return PlaybackPlaying
	}
	return PlaybackIdle
}

func (p *speechPlayer) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.allocated)
}

// Play stops the current clip and starts clip on output. Clips prepared before
// a later Stop, or handed over while the player is suspended, are dropped with
// [ErrPlaybackStopped] and never allocated.
func (p *speechPlayer) Play(clip audio.Clip, output *audioOutput, generation uint64) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	if p.suspended || generation != p.generation {
		return ErrPlaybackStopped
	}

	p.stop(output)

	p.emitMu.Lock()
	p.mu.Lock()
	handle := &playback{clip: clip, done: make(chan struct{})}
	p.current = handle
	p.allocated[clip.ID] = clip
	p.mu.Unlock()
	p.emit(events.NewAssistantPlaybackStarted(clip.ID, clip.Text))
	p.emitMu.Unlock()

	if err := output.SendAudio(clip.Data); err != nil {
		output.Clear()
		p.release(handle, true)
		return &PlaybackError{ClipID: clip.ID, Err: fmt.Errorf("failed to send audio: %w", err)}
	}

	if err := output.Mark(clip.ID, func(string) { p.release(handle, false) }); err != nil {
		output.Clear()
		p.release(handle, true)
		return &PlaybackError{ClipID: clip.ID, Err: fmt.Errorf("failed to mark end of clip: %w", err)}
	}

	return nil
}

// Stop moves Playing to Idle, dropping buffered audio, and invalidates clips
// still being prepared. It returns the generation a new clip must be played
// under.
func (p *speechPlayer) Stop(output *audioOutput) uint64 {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	p.generation++
	p.stop(output)
	return p.generation
}

// Suspend stops playback and rejects new clips until the returned resume is
// called
func (p *speechPlayer) Suspend(output *audioOutput) (resume func()) {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	p.generation++
	p.suspended = true
	p.stop(output)

	return func() {
		p.playMu.Lock()
		defer p.playMu.Unlock()
		p.suspended = false
	}
}

func (p *speechPlayer) stop(output *audioOutput) {
	p.mu.Lock()
	handle := p.current
	p.mu.Unlock()
	if handle == nil {
		return
	}

	output.Clear()
	p.release(handle, true)
}

// Await blocks until nothing is playing
func (p *speechPlayer) Await(ctx context.Context) error {
	for {
		p.mu.Lock()
		handle := p.current
		p.mu.Unlock()
		if handle == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-handle.done:
		}
	}
}

// release frees the clip of handle. Handles that were already released, for
// example by a late mark after Stop, are ignored.
func (p *speechPlayer) release(handle *playback, interrupted bool) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if _, ok := p.allocated[handle.clip.ID]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.allocated, handle.clip.ID)
	if p.current == handle {
		p.current = nil
	}
	p.mu.Unlock()

	p.emit(events.NewAssistantPlaybackEnded(handle.clip.ID, interrupted))
	close(handle.done)
}
