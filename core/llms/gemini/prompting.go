package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-voicebot/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

const (
	roleUser  = "user"
	roleModel = "model"
)

var _ llms.Completion = (*Client)(nil)

type Client struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

type ClientOption func(*genai.ClientConfig, *Client)

func WithSystemPrompt(prompt string) ClientOption {
	return func(_ *genai.ClientConfig, c *Client) { c.systemPrompt = prompt }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(config *genai.ClientConfig, _ *Client) {
		if httpClient != nil {
			config.HTTPClient = httpClient
		}
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(config *genai.ClientConfig, _ *Client) {
		config.HTTPOptions.BaseURL = baseURL
	}
}

func NewClient(ctx context.Context, apiKey, model string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	config := genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	client := &Client{model: model}
	for _, opt := range opts {
		opt(&config, client)
	}

	var err error
	if client.client, err = genai.NewClient(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return client, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, history []llms.Turn, opts ...llms.CompletionOption) (*llms.Response, error) {
	options := llms.ApplyCompletionOptions(llms.CompletionOptions{Instructions: c.systemPrompt}, opts...)

	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.Int("request.history_length", len(history)),
	)

	fail := func(err *llms.CompletionError) (*llms.Response, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if options.Instructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(options.Instructions)}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(history), config)
	if err != nil {
		return fail(classifyError(err))
	}

	text, ok := responseText(resp)
	if !ok {
		return fail(llms.NewCompletionError(llms.CompletionErrorMalformedResponse, http.StatusOK, errors.New("no text candidates in response")))
	}

	response := &llms.Response{Content: text}
	if usage := resp.UsageMetadata; usage != nil {
		response.Usage = &llms.Usage{
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount),
			TotalTokens:  int(usage.TotalTokenCount),
		}
		span.SetAttributes(attribute.Int("usage.total", response.Usage.TotalTokens))
	}
	return response, nil
}

// toContents maps the history onto Gemini contents. The API expects the
// conversation to open with the user and roles to alternate, so leading
// assistant turns (the greeting) are dropped and consecutive turns of the same
// speaker are merged into one content with multiple parts.
func toContents(history []llms.Turn) []*genai.Content {
	var (
		contents []*genai.Content
		last     *genai.Content
	)
	for _, message := range llms.ToMessages("", history) {
		role := roleUser
		if message.Role == llms.MessageRoleAssistant {
			role = roleModel
		}

		if last == nil && role == roleModel {
			continue
		}
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, genai.NewPartFromText(message.Content))
			continue
		}

		last = &genai.Content{Role: role, Parts: []*genai.Part{genai.NewPartFromText(message.Content)}}
		contents = append(contents, last)
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String(), true
}

func classifyError(err error) *llms.CompletionError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llms.NewCompletionError(llms.ClassifyStatus(apiErr.Code), apiErr.Code, err)
	}
	return llms.NewCompletionError(llms.CompletionErrorNetwork, 0, err)
}
