package llms

import "context"

// Completion maps an ordered conversation history to a single reply. Each
// call is a single best-effort attempt, implementations do not retry.
type Completion interface {
	Complete(ctx context.Context, history []Turn, opts ...CompletionOption) (*Response, error)
}

type CompletionOptions struct {
	// Instructions is the system prompt sent ahead of the history
	Instructions string
}

type CompletionOption func(*CompletionOptions)

// WithSystemPrompt sets the system prompt for the completion.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) CompletionOption {
	return func(opts *CompletionOptions) {
		opts.Instructions = prompt
	}
}

func ApplyCompletionOptions(base CompletionOptions, opts ...CompletionOption) CompletionOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&base)
		}
	}
	return base
}
