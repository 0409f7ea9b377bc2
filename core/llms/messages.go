package llms

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Speaker describes who a turn is attributed to
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

func (s Speaker) String() string { return string(s) }

// Turn is a single utterance in the conversation, attributed either to the
// user or to the assistant. Turns are values and are never modified after they
// are created.
type Turn struct {
	ID      string
	Speaker Speaker
	// Text is the prompt in user's turn and the reply in assistant's turn
	Text      string
	CreatedAt time.Time
}

func NewUserTurn(text string) Turn {
	return newTurn(SpeakerUser, text)
}

func NewAssistantTurn(text string) Turn {
	return newTurn(SpeakerAssistant, text)
}

func newTurn(speaker Speaker, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func (t Turn) IsUser() bool      { return t.Speaker == SpeakerUser }
func (t Turn) IsAssistant() bool { return t.Speaker == SpeakerAssistant }

// Response is a single reply from a completion service
type Response struct {
	Content string
	Usage   *Usage
}

// Usage is token accounting reported by the completion service, if any.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is the {role, content} pair forwarded to completion services
type Message struct {
	Role    MessageRole
	Content string
}

// ToMessages converts the ordered history (oldest first) into messages,
// prefixed with the system instructions when they are set. Turns with blank
// text carry nothing to the model and are skipped.
func ToMessages(instructions string, history []Turn) []Message {
	messages := make([]Message, 0, len(history)+1)
	if instructions != "" {
		messages = append(messages, Message{Role: MessageRoleSystem, Content: instructions})
	}

	for _, turn := range history {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}

		switch turn.Speaker {
		case SpeakerUser:
			messages = append(messages, Message{Role: MessageRoleUser, Content: turn.Text})
		case SpeakerAssistant:
			messages = append(messages, Message{Role: MessageRoleAssistant, Content: turn.Text})
		}
	}
	return messages
}
