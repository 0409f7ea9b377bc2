package gemini

import (
	"errors"
	"net/http"
	"testing"

	"github.com/koscakluka/ema-voicebot/core/llms"
	"google.golang.org/genai"
)

func TestToContentsDropsLeadingGreetingAndMergesRoles(t *testing.T) {
	contents := toContents([]llms.Turn{
		llms.NewAssistantTurn("Hello!"),
		llms.NewUserTurn("first"),
		llms.NewUserTurn("second"),
		llms.NewAssistantTurn("reply"),
	})

	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != roleUser || len(contents[0].Parts) != 2 {
		t.Fatalf("expected merged user content with 2 parts, got %+v", contents[0])
	}
	if contents[0].Parts[0].Text != "first" || contents[0].Parts[1].Text != "second" {
		t.Fatalf("unexpected merged parts order")
	}
	if contents[1].Role != roleModel || contents[1].Parts[0].Text != "reply" {
		t.Fatalf("unexpected model content: %+v", contents[1])
	}
}

func TestResponseTextJoinsParts(t *testing.T) {
	text, ok := responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello"}, {Text: " there"}}},
		}},
	})
	if !ok || text != "Hello there" {
		t.Fatalf("expected joined text, got %q (ok=%t)", text, ok)
	}

	if _, ok := responseText(&genai.GenerateContentResponse{}); ok {
		t.Fatalf("expected empty response to be reported as missing text")
	}
}

func TestClassifyErrorUsesAPIErrorCode(t *testing.T) {
	err := classifyError(genai.APIError{Code: http.StatusTooManyRequests, Message: "quota exceeded"})
	if !errors.Is(err, llms.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	err = classifyError(errors.New("connection reset"))
	if !errors.Is(err, llms.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
