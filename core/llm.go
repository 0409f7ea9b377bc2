package orchestration

import (
	"context"

	"github.com/koscakluka/ema-voicebot/core/llms"
)

// completion wraps the configured completion client together with the
// session's system prompt
type completion struct {
	client       llms.Completion
	systemPrompt string
}

func (c *completion) set(client llms.Completion) {
	c.client = nil
	if isNilClient(client) {
		return
	}
	c.client = client
}

func (c *completion) isConfigured() bool { return c != nil && c.client != nil }

// complete asks for a reply to the history. Every failure is reported as a
// [*llms.CompletionError].
func (c *completion) complete(ctx context.Context, history []llms.Turn) (string, *llms.CompletionError) {
	if !c.isConfigured() {
		return "", llms.NewCompletionError(llms.CompletionErrorUnknown, 0, ErrNoCompletionClient)
	}

	var opts []llms.CompletionOption
	if c.systemPrompt != "" {
		opts = append(opts, llms.WithSystemPrompt(c.systemPrompt))
	}

	response, err := c.client.Complete(ctx, history, opts...)
	if err != nil {
		return "", llms.AsCompletionError(err)
	}
	if response == nil {
		return "", llms.NewCompletionError(llms.CompletionErrorMalformedResponse, 0, errEmptyResponse)
	}

	return response.Content, nil
}
