// Package ai provides the OpenAI-compatible transport used for chat completions and embeddings.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoCredentials is returned when no usable API key is available.
	ErrNoCredentials = errors.New("no AI credentials available")
	// ErrNoEmbeddingModel is returned when the provider has no embedding model configured.
	ErrNoEmbeddingModel = errors.New("no embedding model configured")
	// ErrMalformedResponse is returned when a 2xx response does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed AI response")
)

// HTTPError is a non-2xx response from the provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ai http %d: %s", e.StatusCode, e.Body)
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a chat completion.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}

// Client talks to OpenAI-compatible endpoints. Credentials are supplied per call.
// There are no retries; the caller degrades instead.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client whose requests time out after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doOnce(ctx context.Context, creds *Credentials, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.BaseURL()+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	c.logger.Debug("ai request",
		zap.String("provider", creds.Provider),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends a chat completion and returns choices[0].message.content.
func (c *Client) Chat(ctx context.Context, creds *Credentials, messages []Message, opts ChatOptions) (string, error) {
	if !creds.Usable() {
		return "", ErrNoCredentials
	}
	req := chatRequest{
		Model:       creds.ChatModel(),
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	var resp chatResponse
	if err := c.doOnce(ctx, creds, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     *int      `json:"index"`
	} `json:"data"`
}

// Embed embeds all inputs in one request. The result has exactly len(inputs)
// non-empty vectors of equal length, in input order.
func (c *Client) Embed(ctx context.Context, creds *Credentials, inputs []string) ([][]float64, error) {
	if !creds.Usable() {
		return nil, ErrNoCredentials
	}
	model := creds.EmbeddingModelName()
	if model == "" {
		return nil, ErrNoEmbeddingModel
	}
	if len(inputs) == 0 {
		return [][]float64{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.doOnce(ctx, creds, "/embeddings", embeddingsRequest{Model: model, Input: clean}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(clean) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", ErrMalformedResponse, len(clean), len(resp.Data))
	}

	out := make([][]float64, len(clean))
	for i, d := range resp.Data {
		idx := i
		if d.Index != nil {
			idx = *d.Index
		}
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			return nil, fmt.Errorf("%w: bad embedding index %d", ErrMalformedResponse, idx)
		}
		out[idx] = d.Embedding
	}
	dims := len(out[0])
	for _, v := range out {
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("%w: embedding dimensions differ", ErrMalformedResponse)
		}
	}
	return out, nil
}
