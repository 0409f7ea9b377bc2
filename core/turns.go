package orchestration

import (
	"context"
	"strings"

	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SubmitTurn runs one conversational turn.
//
// Blank utterances return ErrEmptyInput and change nothing. Otherwise the user
// turn is appended with the utterance exactly as given and the whole history is sent to the completion client in
// a single attempt. On success the reply is appended as an assistant turn and
// returned.
//
// When the completion fails the user turn stays in the history, no assistant
// turn is added and the returned reply is a visible "Error: ..." message
// alongside the [*llms.CompletionError].
func (o *Orchestrator) SubmitTurn(ctx context.Context, utterance string) (string, error) {
	if o.closed.Load() {
		return "", ErrClosed
	}

	if strings.TrimSpace(utterance) == "" {
		return "", ErrEmptyInput
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	history := o.conversation.Append(llms.NewUserTurn(utterance))
	span.SetAttributes(attribute.Int("history.length", len(history)))

	reply, completionErr := o.llm.complete(ctx, history)
	if completionErr != nil {
		span.RecordError(completionErr)
		span.SetStatus(codes.Error, completionErr.Error())
		logger.WarnContext(ctx, "completion failed", "kind", completionErr.Kind, "error", completionErr)
		errorReply := ErrorReply(completionErr)
		o.events.emit(events.NewAssistantResponseFailed(completionErr.Kind, errorReply))
		return errorReply, completionErr
	}

	o.conversation.Append(llms.NewAssistantTurn(reply))
	o.events.emit(events.NewAssistantResponseFinal(reply))
	return reply, nil
}

// ErrorReply is the assistant-style message shown in place of a reply when a
// turn fails
func ErrorReply(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
