package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-voicebot/internal/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ema",
	Short: "Voice-enabled chatbot",
	Long: `ema - a conversational assistant you can type or talk to.

Replies come from a chat completion service (Groq by default). When a speech
provider and an audio backend are configured, questions can be spoken and
replies are read out loud.

Examples:
  # Chat in the terminal
  GROQ_API_KEY=... ema chat

  # Ask a single question and hear the answer
  ema --config ema.yaml ask "What is the capital of France?" --speak
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(listenCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
