package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/koscakluka/ema-voicebot/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-70b-8192"

	completionsPath = "/chat/completions"
)

var _ llms.Completion = (*Client)(nil)

type Client struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	httpClient   *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different OpenAI-compatible endpoint,
// mostly useful for tests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithSystemPrompt(prompt string) ClientOption {
	return func(c *Client) { c.systemPrompt = prompt }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(apiKey, model string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends the full history in one non-streaming request and returns the
// first choice. There is a single attempt, failures are reported as
// [llms.CompletionError].
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

	requestBodyBytes, err := json.Marshal(requestBody{
		Model:    c.model,
		Messages: toMessages(options.Instructions, history),
		Stream:   false,
	})
	if err != nil {
		return fail(llms.NewCompletionError(llms.CompletionErrorUnknown, 0, fmt.Errorf("error marshalling JSON: %w", err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return fail(llms.NewCompletionError(llms.CompletionErrorUnknown, 0, fmt.Errorf("error creating HTTP request: %w", err)))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	span.AddEvent("request started")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(llms.NewCompletionError(llms.CompletionErrorNetwork, 0, fmt.Errorf("error sending request: %w", err)))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(llms.NewCompletionError(llms.CompletionErrorNetwork, resp.StatusCode, fmt.Errorf("error reading response body: %w", err)))
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("response.error", string(bodyBytes)))
		return fail(llms.NewCompletionError(llms.ClassifyStatus(resp.StatusCode), resp.StatusCode, errorFromBody(resp.Status, bodyBytes)))
	}

	var body responseBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return fail(llms.NewCompletionError(llms.CompletionErrorMalformedResponse, resp.StatusCode, fmt.Errorf("error unmarshalling response body: %w", err)))
	}
	if len(body.Choices) == 0 {
		return fail(llms.NewCompletionError(llms.CompletionErrorMalformedResponse, resp.StatusCode, errors.New("no choices in response")))
	}
	if len(body.Choices) > 1 {
		logger.WarnContext(ctx, "multiple choices returned, using the first one", "choices", len(body.Choices))
	}

	response := &llms.Response{Content: body.Choices[0].Message.Content}
	if body.Usage != nil {
		span.SetAttributes(
			attribute.Int("usage.input", body.Usage.PromptTokens),
			attribute.Int("usage.output", body.Usage.CompletionTokens),
			attribute.Int("usage.total", body.Usage.TotalTokens),
			attribute.Float64("usage.queue_time", body.Usage.QueueTime),
			attribute.Float64("usage.total_time", body.Usage.TotalTime),
		)
		response.Usage = &llms.Usage{
			InputTokens:  body.Usage.PromptTokens,
			OutputTokens: body.Usage.CompletionTokens,
			TotalTokens:  body.Usage.TotalTokens,
		}
	}

	return response, nil
}

func errorFromBody(status string, body []byte) error {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("non-OK HTTP status: %s: %s", status, parsed.Error.Message)
	}
	return fmt.Errorf("non-OK HTTP status: %s", status)
}
