package orchestration

import "github.com/koscakluka/ema-voicebot/core/events"

// eventEmitter fans session events out to the registered handlers. Handlers
// are only added while options are applied.
type eventEmitter struct {
	handlers []events.Handler
}

func (e *eventEmitter) add(handler events.Handler) {
	if handler != nil {
		e.handlers = append(e.handlers, handler)
	}
}

func (e *eventEmitter) emit(event events.Event) {
	for _, handler := range e.handlers {
		handler(event)
	}
}

// playbackStateHandler turns playback events into Idle/Playing transitions
func playbackStateHandler(callback func(PlaybackState)) events.Handler {
	if callback == nil {
		return nil
	}

	return func(event events.Event) {
		switch event.(type) {
		case events.AssistantPlaybackStarted:
			callback(PlaybackPlaying)
		case events.AssistantPlaybackEnded:
			callback(PlaybackIdle)
		}
	}
}
