package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/ema-voicebot/core/conversations"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
)

type replyMsg struct {
	reply string
	err   error
}

type captureMsg struct {
	utterance string
	err       error
}

type spokenMsg struct{ err error }

type exportedMsg struct {
	path string
	err  error
}

func submitTurn(ctx context.Context, session Session, utterance string) tea.Cmd {
	return func() tea.Msg {
		reply, err := session.SubmitTurn(ctx, utterance)
		return replyMsg{reply: reply, err: err}
	}
}

func captureUtterance(ctx context.Context, session Session) tea.Cmd {
	return func() tea.Msg {
		utterance, err := session.CaptureUtterance(ctx)
		return captureMsg{utterance: utterance, err: err}
	}
}

func speakReply(ctx context.Context, session Session, reply string) tea.Cmd {
	return func() tea.Msg {
		_, err := session.Speak(ctx, reply)
		return spokenMsg{err: err}
	}
}

// exportTranscript saves the session history as it stands when the command
// runs
func exportTranscript(session conversations.ActiveContext, dir string, now time.Time) tea.Cmd {
	return func() tea.Msg {
		data, err := conversations.Export(session.History())
		if err != nil {
			return exportedMsg{err: err}
		}

		path := filepath.Join(dir, fmt.Sprintf("ema-transcript-%s.json", now.Format("20060102-150405")))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{err: fmt.Errorf("failed to write transcript: %w", err)}
		}
		return exportedMsg{path: path}
	}
}

func captureFailure(err error) string {
	var captureErr *speechtotext.CaptureError
	if errors.As(err, &captureErr) {
		return captureErr.Message()
	}
	return err.Error()
}
