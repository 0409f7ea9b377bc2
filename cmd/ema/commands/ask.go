package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	orchestration "github.com/koscakluka/ema-voicebot/core"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Long: `Send one question and print the reply.

Example:
  ema ask "What is the capital of France?"
  ema ask --speak "Tell me a joke"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speak, err := cmd.Flags().GetBool("speak")
		if err != nil {
			return fmt.Errorf("failed to read 'speak' flag: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, err := newOrchestrator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		return answer(cmd.Context(), cmd.OutOrStdout(), session, strings.Join(args, " "), speak)
	},
}

func init() {
	askCmd.Flags().Bool("speak", false, "read the reply out loud")
}

// answer submits question, prints the reply and, when asked to, waits for it
// to be read out
func answer(ctx context.Context, out io.Writer, session *orchestration.Orchestrator, question string, speak bool) error {
	reply, err := session.SubmitTurn(ctx, question)
	if err != nil {
		if errors.Is(err, orchestration.ErrEmptyInput) {
			return fmt.Errorf("question is empty")
		}
		return err
	}
	fmt.Fprintf(out, "Bot: %s\n", reply)

	if !speak {
		return nil
	}
	if !session.CanSpeak() {
		return fmt.Errorf("speech output is not configured")
	}
	if _, err := session.Speak(ctx, reply); err != nil {
		return fmt.Errorf("failed to read the reply: %w", err)
	}
	return session.AwaitPlayback(ctx)
}
