// Package openai implements ports.ChatModel for OpenAI-compatible chat
// completion APIs (Groq by default) with tool calling.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/pkg/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the model the chat loop talks to.
	DefaultModel = "openai/gpt-oss-120b"
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2
	// DefaultBackoff is the delay before the first retry; it doubles each time.
	DefaultBackoff = 500 * time.Millisecond
)

// Config selects the endpoint and the sampling parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxRetries  int
}

// Client implements ports.ChatModel over github.com/sashabaranov/go-openai.
type Client struct {
	api        *openai.Client
	model      string
	temp       float32
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBackoff overrides DefaultBackoff.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// New creates a client. Empty BaseURL and Model fall back to the defaults;
// a negative MaxRetries disables retries.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is missing")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := &Client{
		model:      cfg.Model,
		temp:       cfg.Temperature,
		maxRetries: cfg.MaxRetries,
		backoff:    DefaultBackoff,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	sdkCfg.BaseURL = cfg.BaseURL
	if c.httpClient != nil {
		sdkCfg.HTTPClient = c.httpClient
	}
	c.api = openai.NewClientWithConfig(sdkCfg)
	return c, nil
}

// ModelName reports the configured model.
func (c *Client) ModelName() string {
	return c.model
}

// Generate sends the conversation and the declared tools and maps the first
// choice back to an assistant message.
func (c *Client) Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature(c.temp),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	start := time.Now()
	resp, err := c.create(ctx, req)
	if err != nil {
		c.logger.Error("LLM request failed",
			"model", c.model,
			"err", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return domain.Message{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Message{}, errors.New("openai api error: no choices in response")
	}

	reply := fromOpenAIMessage(resp.Choices[0].Message)

	c.logger.Debug("LLM response received",
		"model", c.model,
		"tool_calls", len(reply.ToolCalls),
		"content_length", len(reply.Content),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// create calls the API, retrying transient failures up to maxRetries times.
func (c *Client) create(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.maxRetries || !retryable(ctx, err) {
			return openai.ChatCompletionResponse{}, err
		}

		c.logger.Warn("LLM request failed, retrying",
			"model", c.model,
			"attempt", attempt+1,
			"delay", delay,
			"err", err,
		)

		select {
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// retryable reports whether err is worth another attempt: rate limits,
// server errors, and transport failures. Client errors are final.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// temperature maps 0 to the smallest non-zero float32, since the SDK omits a
// zero temperature from the request and the provider default would apply.
func temperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func toOpenAIMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		switch m.Role {
		case domain.RoleAssistant:
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: encodeArgs(call),
					},
				})
			}
		case domain.RoleTool:
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.Name
		}
		out[i] = msg
	}
	return out
}

func toOpenAITools(defs []domain.Tool) []openai.Tool {
	out := make([]openai.Tool, len(defs))
	for i, def := range defs {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) domain.Message {
	calls := make([]domain.ToolCall, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		call := domain.ToolCall{
			ID:      tc.ID,
			Name:    tc.Function.Name,
			RawArgs: tc.Function.Arguments,
		}
		// Malformed arguments stay in RawArgs; the tool node reports them.
		var args map[string]any
		if tc.Function.Arguments == "" {
			call.Args = map[string]any{}
		} else if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
			call.Args = args
		}
		calls = append(calls, call)
	}
	return domain.NewAssistantMessage(m.Content, calls...)
}

func encodeArgs(call domain.ToolCall) string {
	if call.RawArgs != "" {
		return call.RawArgs
	}
	if call.Args == nil {
		return "{}"
	}
	b, err := json.Marshal(call.Args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
