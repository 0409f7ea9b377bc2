package orchestration

import (
	"strings"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-voicebot/core/llms"
)

// conversation is the session history. It always starts with the seeded
// assistant greeting and is only ever appended to or reset.
type conversation struct {
	mu sync.RWMutex

	greeting string
	turns    []llms.Turn
	// restored is set once turns from an earlier session were loaded, a
	// later greeting change then leaves them in place
	restored bool
}

func newConversation(greeting string) *conversation {
	c := &conversation{greeting: greeting}
	c.turns = []llms.Turn{llms.NewAssistantTurn(greeting)}
	return c
}

// setGreeting changes the greeting and reseeds the history with it, unless an
// earlier history was restored
func (c *conversation) setGreeting(greeting string) {
	if strings.TrimSpace(greeting) == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.greeting = greeting
	if !c.restored {
		c.turns = []llms.Turn{llms.NewAssistantTurn(greeting)}
	}
}

// restore replaces the history with turns of an earlier session. A history
// that does not open with an assistant turn gets the greeting in front.
func (c *conversation) restore(turns []llms.Turn) {
	if len(turns) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restored := make([]llms.Turn, 0, len(turns)+1)
	if !turns[0].IsAssistant() {
		restored = append(restored, llms.NewAssistantTurn(c.greeting))
	}
	c.turns = append(restored, turns...)
	c.restored = true
}

func (c *conversation) Greeting() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.greeting
}

// History returns a deep copy, callers are free to modify it
func (c *conversation) History() []llms.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot()
}

func (c *conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.turns)
}

func (c *conversation) Append(turns ...llms.Turn) []llms.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turns...)
	return c.snapshot()
}

func (c *conversation) Reset() []llms.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = []llms.Turn{llms.NewAssistantTurn(c.greeting)}
	return c.snapshot()
}

// snapshot copies the turns field by field, Turn holds no references so the
// result shares nothing with the conversation
func (c *conversation) snapshot() []llms.Turn {
	history := []llms.Turn{}
	if err := copier.Copy(&history, c.turns); err != nil {
		logger.Warn("failed to deep copy history", "error", err)
		history = make([]llms.Turn, len(c.turns))
		copy(history, c.turns)
	}
	return history
}
