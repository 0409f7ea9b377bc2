package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/koscakluka/ema-voicebot/core"
)

const help = "enter send • ctrl+r speak • ctrl+s stop audio • ctrl+l clear • ctrl+e export • esc quit"

type styles struct {
	Title lipgloss.Style
	User  lipgloss.Style
	Bot   lipgloss.Style
	Help  lipgloss.Style
	Error lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1),
		User:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff")),
		Bot:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Help:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
	}
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	title := m.styles.Title.Render("Voice Chatbot")
	if m.session.PlaybackState() == orchestration.PlaybackPlaying {
		title += m.styles.Help.Render("[speaking]")
	}

	var status string
	switch {
	case m.busy:
		status = m.spinner.View() + " " + m.activity + "..."
	case m.failed:
		status = m.styles.Error.Render(m.status)
	default:
		status = m.styles.Help.Render(m.status)
	}

	return strings.Join([]string{
		title,
		m.history.View(),
		status,
		m.input.View(),
		m.styles.Help.Render(help),
	}, "\n")
}

func (m Model) renderHistory() string {
	width := max(m.history.Width-2, 20)

	var lines []string
	for _, turn := range m.session.History() {
		lines = append(lines, m.renderTurn(turn.IsUser(), turn.Text, width))
	}
	switch {
	case m.pending != "":
		lines = append(lines, m.renderTurn(true, m.pending, width))
	case m.interim != "":
		lines = append(lines, m.styles.Help.Render(m.renderTurn(true, m.interim+"...", width)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTurn(isUser bool, text string, width int) string {
	label := m.styles.Bot.Render("Bot:")
	if isUser {
		label = m.styles.User.Render("You:")
	}
	return wordwrap.String(label+" "+text, width)
}
