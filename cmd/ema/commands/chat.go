package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-voicebot/cmd/ema/tui"
	orchestration "github.com/koscakluka/ema-voicebot/core"
	"github.com/koscakluka/ema-voicebot/core/conversations"
	"github.com/koscakluka/ema-voicebot/core/llms"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Open an interactive chat.

Keys:
  enter   send the typed question
  ctrl+r  ask by voice (needs a speech-to-text provider and an audio backend)
  ctrl+s  stop the reply being read out
  ctrl+l  clear the chat
  ctrl+e  save the transcript as JSON
  esc     quit

Use --resume with a saved transcript to pick up where that chat left off.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exportDir, err := cmd.Flags().GetString("export-dir")
		if err != nil {
			return fmt.Errorf("failed to read 'export-dir' flag: %w", err)
		}

		resume, err := cmd.Flags().GetString("resume")
		if err != nil {
			return fmt.Errorf("failed to read 'resume' flag: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := []orchestration.OrchestratorOption{}
		if resume != "" {
			history, err := loadTranscript(resume)
			if err != nil {
				return err
			}
			opts = append(opts, orchestration.WithHistory(history))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feed := tui.NewEventFeed(64)
		opts = append(opts, orchestration.WithEventHandler(feed.Handle))
		session, err := newOrchestrator(ctx, cfg, opts...)
		if err != nil {
			return err
		}
		defer session.Close()

		model := tui.New(ctx, session, tui.WithExportDir(exportDir), tui.WithEventFeed(feed))
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("chat ended with error: %w", err)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().String("export-dir", ".", "directory transcripts are saved to")
	chatCmd.Flags().String("resume", "", "continue the chat saved in this transcript file")
}

// loadTranscript reads a transcript saved with ctrl+e
func loadTranscript(path string) ([]llms.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	history, err := conversations.Import(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript %s: %w", path, err)
	}
	return history, nil
}
