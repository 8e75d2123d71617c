// Package tavily provides the web-search tool backed by the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lookout/internal/logging"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the Tavily search API.
	DefaultEndpoint = "https://api.tavily.com/search"
	// DefaultMaxResults caps the results returned per query.
	DefaultMaxResults = 3
	// DefaultTopic is the search category.
	DefaultTopic = "general"
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second
	// DefaultRateLimit is the sustained number of searches per second.
	DefaultRateLimit = 1
	// DefaultMaxRetries is how many times a 429 response is retried.
	DefaultMaxRetries = 2
	// maxBackoff caps the delay between 429 retries.
	maxBackoff = 30 * time.Second
)

// Topics accepted by the API.
var Topics = []string{"general", "news", "finance"}

// SearchResult is a single hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Client calls the Tavily search API.
type Client struct {
	apiKey     string
	endpoint   string
	maxResults int
	topic      string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithMaxResults overrides DefaultMaxResults.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(c *Client) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// WithEndpoint points the client at another URL (tests, proxies).
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the sustained searches per second; burst is one.
// A non-positive rps disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBackoff sets the first delay after a 429 response.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithMaxRetries sets how many times a 429 response is retried before the
// search fails. Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Tavily client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		maxResults: DefaultMaxResults,
		topic:      DefaultTopic,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		backoff:    time.Second,
		maxRetries: DefaultMaxRetries,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxResults returns the configured result cap.
func (c *Client) MaxResults() int {
	return c.maxResults
}

// Topic returns the configured default topic.
func (c *Client) Topic() string {
	return c.topic
}

type searchRequest struct {
	Query      string `json:"query"`
	Topic      string `json:"topic"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Search posts a query. An empty topic uses the configured default.
func (c *Client) Search(ctx context.Context, query, topic string) ([]SearchResult, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("tavily: query is empty")
	}
	if topic == "" {
		topic = c.topic
	}

	payload, err := json.Marshal(searchRequest{Query: query, Topic: topic, MaxResults: c.maxResults})
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tavily: rate limit: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := out.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	c.logger.Debug("Search completed",
		"topic", topic,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// post sends the request, backing off and retrying up to maxRetries times
// while the API answers 429. The last 429 response is returned to the caller.
func (c *Client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("tavily: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}
		resp.Body.Close()

		c.logger.Warn("Search rate limited, backing off", "delay", delay, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
}
