package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/koscakluka/ema-voicebot/core/llms"
	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultModel = goopenai.GPT4oMini

var _ llms.Completion = (*Client)(nil)

// Client talks to OpenAI or any OpenAI-compatible chat completions endpoint
type Client struct {
	client       *goopenai.Client
	model        string
	systemPrompt string
}

type ClientOption func(*goopenai.ClientConfig, *Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(config *goopenai.ClientConfig, _ *Client) { config.BaseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(config *goopenai.ClientConfig, _ *Client) {
		if httpClient != nil {
			config.HTTPClient = httpClient
		}
	}
}

func WithSystemPrompt(prompt string) ClientOption {
	return func(_ *goopenai.ClientConfig, c *Client) { c.systemPrompt = prompt }
}

func NewClient(apiKey, model string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	config := goopenai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	client := &Client{model: model}
	for _, opt := range opts {
		opt(&config, client)
	}
	client.client = goopenai.NewClientWithConfig(config)

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

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(options.Instructions, history),
	})
	if err != nil {
		completionErr := classifyError(err)
		span.RecordError(completionErr)
		span.SetStatus(codes.Error, completionErr.Error())
		return nil, completionErr
	}

	if len(resp.Choices) == 0 {
		err := llms.NewCompletionError(llms.CompletionErrorMalformedResponse, http.StatusOK, errors.New("no choices in response"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("usage.input", resp.Usage.PromptTokens),
		attribute.Int("usage.output", resp.Usage.CompletionTokens),
		attribute.Int("usage.total", resp.Usage.TotalTokens),
	)

	return &llms.Response{
		Content: resp.Choices[0].Message.Content,
		Usage: &llms.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func toChatMessages(instructions string, history []llms.Turn) []goopenai.ChatCompletionMessage {
	messages := []goopenai.ChatCompletionMessage{}
	for _, message := range llms.ToMessages(instructions, history) {
		var role string
		switch message.Role {
		case llms.MessageRoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case llms.MessageRoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		default:
			role = goopenai.ChatMessageRoleUser
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: message.Content})
	}
	return messages
}

func classifyError(err error) *llms.CompletionError {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return llms.NewCompletionError(llms.ClassifyStatus(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode, err)
	}

	var requestErr *goopenai.RequestError
	if errors.As(err, &requestErr) {
		return llms.NewCompletionError(llms.ClassifyStatus(requestErr.HTTPStatusCode), requestErr.HTTPStatusCode, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return llms.NewCompletionError(llms.CompletionErrorMalformedResponse, http.StatusOK, err)
	}

	return llms.NewCompletionError(llms.CompletionErrorNetwork, 0, err)
}
