package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-voicebot/core/speechtotext"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Ask a single question by voice",
	Long: `Capture one spoken question from the microphone, print what was heard
and answer it. The reply is read out when a text-to-speech provider is
configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, err := newOrchestrator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		if !session.CanListen() {
			return fmt.Errorf("voice input is not configured, set EMA_STT_PROVIDER and EMA_AUDIO_BACKEND")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Listening...")
		utterance, err := session.CaptureUtterance(cmd.Context())
		if err != nil {
			var captureErr *speechtotext.CaptureError
			if errors.As(err, &captureErr) {
				return errors.New(captureErr.Message())
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "You: %s\n", utterance)

		return answer(cmd.Context(), cmd.OutOrStdout(), session, utterance, session.CanSpeak())
	},
}
