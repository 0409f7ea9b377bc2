package tui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-voicebot/core"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
)

type sessionStub struct {
	mu sync.Mutex

	history   []llms.Turn
	reply     string
	replyErr  error
	heard     string
	hearErr   error
	canListen bool
	canSpeak  bool

	submitted []string
	spoken    []string
	captures  int
	stops     int
	resets    int
}

func newSessionStub() *sessionStub {
	return &sessionStub{history: []llms.Turn{llms.NewAssistantTurn("Hello! Ask me anything.")}, reply: "Paris"}
}

func (s *sessionStub) History() []llms.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llms.Turn(nil), s.history...)
}

func (s *sessionStub) ResetHistory() []llms.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.history = []llms.Turn{llms.NewAssistantTurn("Hello! Ask me anything.")}
	return append([]llms.Turn(nil), s.history...)
}

func (s *sessionStub) SubmitTurn(_ context.Context, utterance string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, utterance)
	s.history = append(s.history, llms.NewUserTurn(utterance))
	if s.replyErr != nil {
		return "Error: " + s.replyErr.Error(), s.replyErr
	}
	s.history = append(s.history, llms.NewAssistantTurn(s.reply))
	return s.reply, nil
}

func (s *sessionStub) CaptureUtterance(context.Context, ...speechtotext.RecognitionOption) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures++
	return s.heard, s.hearErr
}

func (s *sessionStub) Speak(_ context.Context, text string, _ ...texttospeech.SynthesisOption) (audio.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return audio.Clip{Text: text}, nil
}

func (s *sessionStub) StopAudio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *sessionStub) AllocatedClips() int { return 0 }
func (s *sessionStub) PlaybackState() orchestration.PlaybackState { return orchestration.PlaybackIdle }
func (s *sessionStub) CanListen() bool { return s.canListen }
func (s *sessionStub) CanSpeak() bool { return s.canSpeak }

// run executes cmd and every command batched inside it, returning the
// produced messages
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, run(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	t.Fatalf("expected a %T among %v", zero, msgs)
	return zero
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, text string) Model {
	m.input.SetValue(text)
	return m
}

func TestEnterSubmitsTurnAndShowsReply(t *testing.T) {
	session := newSessionStub()
	m := typeText(New(context.Background(), session), "  What is the capital of France?  ")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.busy || m.input.Value() != "" {
		t.Fatalf("expected model to be busy with a cleared input, got busy=%v input=%q", m.busy, m.input.Value())
	}

	reply := find[replyMsg](t, run(cmd))
	m, cmd = update(m, reply)
	if cmd != nil {
		t.Fatalf("expected no follow-up command without a synthesizer")
	}
	if m.busy {
		t.Fatalf("expected model to be idle after the reply")
	}
	if len(session.submitted) != 1 || session.submitted[0] != "What is the capital of France?" {
		t.Fatalf("unexpected submitted turns: %v", session.submitted)
	}

	content := m.renderHistory()
	if !strings.Contains(content, "What is the capital of France?") || !strings.Contains(content, "Paris") {
		t.Fatalf("expected history to show the exchange, got %q", content)
	}
}

func TestBlankInputIsIgnored(t *testing.T) {
	session := newSessionStub()
	m := typeText(New(context.Background(), session), "   ")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.busy {
		t.Fatalf("expected blank input to be ignored")
	}
}

func TestKeysAreIgnoredWhileBusy(t *testing.T) {
	session := newSessionStub()
	session.canListen = true
	m := typeText(New(context.Background(), session), "first")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	for _, key := range []tea.KeyType{tea.KeyEnter, tea.KeyCtrlR, tea.KeyCtrlL, tea.KeyCtrlE} {
		var cmd tea.Cmd
		m, cmd = update(m, tea.KeyMsg{Type: key})
		if cmd != nil {
			t.Fatalf("expected key %v to be ignored while busy", key)
		}
	}
	if session.resets != 0 || session.captures != 0 {
		t.Fatalf("expected no actions while busy, got resets=%d captures=%d", session.resets, session.captures)
	}
}

func TestFailedReplyIsShownAsError(t *testing.T) {
	session := newSessionStub()
	session.replyErr = llms.NewCompletionError(llms.CompletionErrorNetwork, 0, nil)
	m := typeText(New(context.Background(), session), "hi")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(m, find[replyMsg](t, run(cmd)))

	if !m.failed || !strings.HasPrefix(m.status, "Error: ") {
		t.Fatalf("expected error status, got failed=%v status=%q", m.failed, m.status)
	}
}

func TestReplyIsSpokenWhenSynthesizerConfigured(t *testing.T) {
	session := newSessionStub()
	session.canSpeak = true
	m := typeText(New(context.Background(), session), "hi")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd = update(m, find[replyMsg](t, run(cmd)))
	m, _ = update(m, find[spokenMsg](t, run(cmd)))

	if len(session.spoken) != 1 || session.spoken[0] != "Paris" {
		t.Fatalf("expected reply to be spoken, got %v", session.spoken)
	}
	if m.failed {
		t.Fatalf("expected no error status, got %q", m.status)
	}
}

func TestStoppedPlaybackIsNotAFailure(t *testing.T) {
	m := New(context.Background(), newSessionStub())

	m, _ = update(m, spokenMsg{err: orchestration.ErrPlaybackStopped})
	if m.failed || m.status != "" {
		t.Fatalf("expected a stopped clip to be silent, got failed=%v status=%q", m.failed, m.status)
	}

	m, _ = update(m, spokenMsg{err: errors.New("device gone")})
	if !m.failed || !strings.HasPrefix(m.status, "Playback failed: ") {
		t.Fatalf("expected playback failure status, got %q", m.status)
	}
}

func TestSpeakKeyCapturesThenSubmits(t *testing.T) {
	session := newSessionStub()
	session.canListen = true
	session.heard = "tell me a joke"
	m := New(context.Background(), session)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.busy || m.activity != "Listening" {
		t.Fatalf("expected model to be listening, got busy=%v activity=%q", m.busy, m.activity)
	}

	m, cmd = update(m, find[captureMsg](t, run(cmd)))
	if !m.busy || m.pending != "tell me a joke" {
		t.Fatalf("expected utterance to be pending, got busy=%v pending=%q", m.busy, m.pending)
	}

	m, _ = update(m, find[replyMsg](t, run(cmd)))
	if m.busy || len(session.submitted) != 1 || session.submitted[0] != "tell me a joke" {
		t.Fatalf("expected spoken utterance to be submitted, got %v", session.submitted)
	}
}

func TestSpeakKeyShowsCaptureFailure(t *testing.T) {
	session := newSessionStub()
	session.canListen = true
	session.hearErr = speechtotext.NewCaptureError(speechtotext.CaptureErrorNoSpeechDetected, nil)
	m := New(context.Background(), session)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = update(m, find[captureMsg](t, run(cmd)))

	if m.busy || m.status != "No speech detected. Please try again." {
		t.Fatalf("unexpected state after failed capture: busy=%v status=%q", m.busy, m.status)
	}
	if len(session.submitted) != 0 {
		t.Fatalf("expected nothing to be submitted, got %v", session.submitted)
	}
}

func TestSpeakKeyWithoutVoiceInput(t *testing.T) {
	session := newSessionStub()
	m := New(context.Background(), session)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd != nil || m.busy || !m.failed {
		t.Fatalf("expected voice input to be reported as unavailable")
	}
}

func TestClearResetsHistory(t *testing.T) {
	session := newSessionStub()
	session.history = append(session.history, llms.NewUserTurn("hi"), llms.NewAssistantTurn("hey"))
	m := New(context.Background(), session)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if session.resets != 1 || session.stops != 1 {
		t.Fatalf("expected reset and stop, got resets=%d stops=%d", session.resets, session.stops)
	}
	if strings.Contains(m.renderHistory(), "hey") {
		t.Fatalf("expected cleared history to be shown")
	}
}

func TestExportWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	session := newSessionStub()
	m := New(context.Background(), session, WithExportDir(dir))
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	exported := find[exportedMsg](t, run(cmd))
	if exported.err != nil {
		t.Fatalf("expected export to succeed, got %v", exported.err)
	}
	if want := filepath.Join(dir, "ema-transcript-20240501-123000.json"); exported.path != want {
		t.Fatalf("expected path %q, got %q", want, exported.path)
	}

	data, err := os.ReadFile(exported.path)
	if err != nil {
		t.Fatalf("failed to read transcript: %v", err)
	}
	var transcript struct {
		Turns []struct {
			Speaker string `json:"speaker"`
			Text    string `json:"text"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(data, &transcript); err != nil {
		t.Fatalf("failed to decode transcript: %v", err)
	}
	if len(transcript.Turns) != 1 || transcript.Turns[0].Text != "Hello! Ask me anything." {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}

	m, _ = update(m, exported)
	if m.failed || !strings.Contains(m.status, exported.path) {
		t.Fatalf("unexpected status after export: %q", m.status)
	}
}

func TestQuitStopsAudio(t *testing.T) {
	session := newSessionStub()
	m := New(context.Background(), session)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !m.quitting || session.stops != 1 {
		t.Fatalf("expected quit with audio stopped")
	}
	if m.View() != "Goodbye!\n" {
		t.Fatalf("unexpected final view %q", m.View())
	}
}

func TestEventFeedShowsInterimTranscript(t *testing.T) {
	session := newSessionStub()
	session.canListen = true
	feed := NewEventFeed(4)
	m := New(context.Background(), session, WithEventFeed(feed))

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlR})

	feed.Handle(events.NewUserSpeechStarted())
	feed.Handle(events.NewUserTranscriptInterimUpdated("tell me"))

	var cmd tea.Cmd
	for i := 0; i < 2; i++ {
		msg := feed.listen()()
		m, cmd = update(m, msg)
		if cmd == nil {
			t.Fatalf("expected the feed to keep listening")
		}
	}

	if m.activity != "Hearing you" {
		t.Fatalf("expected activity to follow speech, got %q", m.activity)
	}
	if !strings.Contains(m.renderHistory(), "tell me...") {
		t.Fatalf("expected interim transcript in history, got %q", m.renderHistory())
	}

	m, _ = update(m, captureMsg{utterance: "tell me a joke"})
	if strings.Contains(m.renderHistory(), "tell me...") {
		t.Fatalf("expected interim transcript to be replaced")
	}
}

func TestEventFeedDropsWhenFull(t *testing.T) {
	feed := NewEventFeed(1)
	feed.Handle(events.NewUserSpeechStarted())
	feed.Handle(events.NewUserSpeechEnded())

	msg := feed.listen()().(sessionEventMsg)
	if msg.event.Kind() != events.KindUserSpeechStarted {
		t.Fatalf("expected the first event to be kept, got %q", msg.event.Kind())
	}
	if len(feed.events) != 0 {
		t.Fatalf("expected the second event to be dropped")
	}
}
