// Package tui is the terminal chat front end: a scrolling history, a text
// prompt and key bindings for voice input, playback and export.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-voicebot/core"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/conversations"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
)

// Session is the part of the orchestrator the chat screen drives
type Session interface {
	conversations.ActiveContext
	ResetHistory() []llms.Turn
	SubmitTurn(ctx context.Context, utterance string) (string, error)
	CaptureUtterance(ctx context.Context, opts ...speechtotext.RecognitionOption) (string, error)
	Speak(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Clip, error)
	StopAudio()
	PlaybackState() orchestration.PlaybackState
	CanListen() bool
	CanSpeak() bool
}

var _ Session = (*orchestration.Orchestrator)(nil)

type Option func(*Model)

// WithEventFeed shows live session events, such as the transcript while the
// user is still speaking
func WithEventFeed(feed *EventFeed) Option {
	return func(m *Model) { m.feed = feed }
}

// WithExportDir sets where Ctrl+E writes transcripts, the working directory
// by default
func WithExportDir(dir string) Option {
	return func(m *Model) { m.exportDir = dir }
}

// Model is the chat screen. Only one action (a typed or spoken turn) is in
// flight at a time, keys other than quit are ignored until it settles.
type Model struct {
	ctx     context.Context
	session Session

	input   textinput.Model
	history viewport.Model
	spinner spinner.Model
	styles  styles

	feed *EventFeed

	busy     bool
	activity string
	pending  string
	interim  string
	status   string
	failed   bool

	exportDir string
	now       func() time.Time

	width    int
	height   int
	quitting bool
}

func New(ctx context.Context, session Session, opts ...Option) Model {
	input := textinput.New()
	input.Placeholder = "Type your question..."
	input.Prompt = "> "
	input.Focus()

	m := Model{
		ctx:       ctx,
		session:   session,
		input:     input,
		history:   viewport.New(80, 20),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:    newStyles(),
		exportDir: ".",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refreshHistory()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.feed.listen())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case replyMsg:
		m.busy = false
		m.pending = ""
		m.refreshHistory()
		if msg.err != nil {
			m.setStatus(msg.reply, true)
			return m, nil
		}
		m.setStatus("", false)
		if m.session.CanSpeak() {
			return m, speakReply(m.ctx, m.session, msg.reply)
		}
		return m, nil

	case captureMsg:
		m.interim = ""
		if msg.err != nil {
			m.busy = false
			m.setStatus(captureFailure(msg.err), true)
			return m, nil
		}
		m.activity = "Thinking"
		m.pending = msg.utterance
		m.refreshHistory()
		return m, submitTurn(m.ctx, m.session, msg.utterance)

	case sessionEventMsg:
		m.handleSessionEvent(msg.event)
		return m, m.feed.listen()

	case spokenMsg:
		if msg.err != nil && !errors.Is(msg.err, orchestration.ErrPlaybackStopped) {
			m.setStatus("Playback failed: "+msg.err.Error(), true)
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setStatus("Export failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Transcript saved to "+msg.path, false)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		m.session.StopAudio()
		return m, tea.Quit
	}

	if m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.startActivity("Thinking")
		m.pending = text
		m.refreshHistory()
		return m, tea.Batch(m.spinner.Tick, submitTurn(m.ctx, m.session, text))

	case tea.KeyCtrlR:
		if !m.session.CanListen() {
			m.setStatus("Voice input is not configured.", true)
			return m, nil
		}
		m.startActivity("Listening")
		return m, tea.Batch(m.spinner.Tick, captureUtterance(m.ctx, m.session))

	case tea.KeyCtrlL:
		m.session.StopAudio()
		m.session.ResetHistory()
		m.refreshHistory()
		m.setStatus("Chat cleared.", false)
		return m, nil

	case tea.KeyCtrlS:
		m.session.StopAudio()
		m.setStatus("", false)
		return m, nil

	case tea.KeyCtrlE:
		return m, exportTranscript(m.session, m.exportDir, m.now())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSessionEvent(event events.Event) {
	switch e := event.(type) {
	case events.UserSpeechStarted:
		if m.busy {
			m.activity = "Hearing you"
		}
	case events.UserTranscriptInterimUpdated:
		m.interim = e.Transcript
		m.refreshHistory()
	case events.UserSpeechEnded:
		if m.busy {
			m.activity = "Transcribing"
		}
	case events.UserTranscriptFinal, events.UserCaptureFailed:
		m.interim = ""
		m.refreshHistory()
	}
}

func (m *Model) startActivity(activity string) {
	m.busy = true
	m.activity = activity
	m.setStatus("", false)
}

func (m *Model) setStatus(status string, failed bool) {
	m.status = status
	m.failed = failed
}

func (m *Model) resize() {
	historyHeight := max(m.height-4, 3)
	m.history.Width = m.width
	m.history.Height = historyHeight
	m.input.Width = max(m.width-4, 10)
	m.refreshHistory()
}

func (m *Model) refreshHistory() {
	m.history.SetContent(m.renderHistory())
	m.history.GotoBottom()
}
