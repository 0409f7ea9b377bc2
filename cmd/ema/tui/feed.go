package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/ema-voicebot/core/events"
)

// EventFeed hands session events to the UI loop. Handle never blocks, events
// arriving while the buffer is full are dropped.
type EventFeed struct {
	events chan events.Event
}

func NewEventFeed(size int) *EventFeed {
	return &EventFeed{events: make(chan events.Event, size)}
}

func (f *EventFeed) Handle(event events.Event) {
	select {
	case f.events <- event:
	default:
	}
}

type sessionEventMsg struct{ event events.Event }

func (f *EventFeed) listen() tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return sessionEventMsg{event: <-f.events}
	}
}
