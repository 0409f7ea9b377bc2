// Package main provides the ema voice chatbot.
//
// Usage:
//
//	ema [--config ema.yaml] <command> [args]
//
// Commands:
//
//	chat   - interactive terminal chat with optional voice input and output
//	ask    - answer a single question and print the reply
//	listen - capture one spoken question and answer it
//
// Configuration:
//
//	Providers and credentials come from an optional YAML file and the
//	environment (GROQ_API_KEY, DEEPGRAM_API_KEY, EMA_LLM_PROVIDER, ...).
package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-voicebot/cmd/ema/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
