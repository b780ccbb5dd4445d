// Package llm provides the client for OpenAI-compatible chat
// completion providers, with SSE streaming support.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	maxTokens   *int
	logger      *slog.Logger
}

// NewClient creates an LLM client from config. Timeout applies to
// non-streaming calls; streaming requests are bounded by ctx only.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	slog.Info("LLM client configured", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      slog.Default(),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type streamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StreamChunk is one unit of streamed assistant output.
type StreamChunk struct {
	Content string
	IsFinal bool
}

// Chat sends a non-streaming chat completion request and returns the
// assistant message.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := c.do(ctx, chatRequest{Model: c.model, Messages: messages,
		Temperature: c.temperature, MaxTokens: c.maxTokens})
	if err != nil {
		return "", err
	}
	defer body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Complete is Chat with a single user message. Used for one-shot
// prompts like search query generation.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

// ChatStream sends a streaming chat completion request. Content
// deltas arrive on the chunks channel; a terminal failure arrives on
// errs. Both channels close when the stream ends.
func (c *Client) ChatStream(ctx context.Context, messages []Message) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := c.do(ctx, chatRequest{Model: c.model, Messages: messages, Stream: true,
			Temperature: c.temperature, MaxTokens: c.maxTokens})
		if err != nil {
			errs <- err
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				select {
				case chunks <- StreamChunk{IsFinal: true}:
				case <-ctx.Done():
				}
				return
			}

			var parsed streamResponse
			if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
				c.logger.Warn("Skipping malformed stream event", "error", err)
				continue
			}
			if len(parsed.Choices) == 0 {
				continue
			}
			content := parsed.Choices[0].Delta.Content
			if content == "" && parsed.Choices[0].FinishReason == nil {
				continue
			}

			select {
			case chunks <- StreamChunk{Content: content, IsFinal: parsed.Choices[0].FinishReason != nil}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read stream: %w", err)
		}
	}()

	return chunks, errs
}

// do issues the HTTP request and returns the response body, decoding
// provider error payloads into the returned error.
func (c *Client) do(ctx context.Context, payload chatRequest) (io.ReadCloser, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	// The client timeout would kill long-lived streams early.
	httpClient := c.httpClient
	if payload.Stream {
		httpClient = &http.Client{Transport: c.httpClient.Transport}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
		}
		var errData errorResponse
		if err := json.Unmarshal(raw, &errData); err != nil || errData.Error.Message == "" {
			return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, errData.Error.Message)
	}
	return resp.Body, nil
}
