package conversations

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/koscakluka/ema-voicebot/core/llms"
)

// Transcript is the saved form of a session
type Transcript struct {
	ExportedAt time.Time         `json:"exported_at"`
	Turns      []TranscriptEntry `json:"turns"`
}

type TranscriptEntry struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTranscript(history []llms.Turn, exportedAt time.Time) Transcript {
	transcript := Transcript{ExportedAt: exportedAt, Turns: make([]TranscriptEntry, 0, len(history))}
	for _, turn := range history {
		transcript.Turns = append(transcript.Turns, TranscriptEntry{
			ID:        turn.ID,
			Speaker:   turn.Speaker.String(),
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		})
	}
	return transcript
}

// Export renders history as an indented JSON transcript
func Export(history []llms.Turn) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(NewTranscript(history, time.Now().UTC()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return data, nil
}

// Import reads a transcript written by Export back into turns
func Import(data []byte) ([]llms.Turn, error) {
	var transcript Transcript
	if err := sonic.ConfigStd.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}

	history := make([]llms.Turn, 0, len(transcript.Turns))
	for _, entry := range transcript.Turns {
		speaker := llms.Speaker(entry.Speaker)
		if speaker != llms.SpeakerUser && speaker != llms.SpeakerAssistant {
			return nil, fmt.Errorf("unknown speaker %q in transcript", entry.Speaker)
		}
		history = append(history, llms.Turn{
			ID:        entry.ID,
			Speaker:   speaker,
			Text:      entry.Text,
			CreatedAt: entry.CreatedAt,
		})
	}
	return history, nil
}
