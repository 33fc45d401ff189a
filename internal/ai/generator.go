// Package ai wraps the hosted large-language-model API behind a small
// Generator interface so the rest of the application never sees the
// provider's wire format.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/apperr"
)

// Generator produces markdown text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Unconfigured is the Generator used when no AI endpoint is configured;
// every generation fails with AI_FAILURE.
type Unconfigured struct{}

// Generate always fails.
func (Unconfigured) Generate(context.Context, string) (string, error) {
	return "", apperr.New(apperr.CodeAIFailure, "no AI endpoint configured")
}

// Client calls a hosted chat-completion endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a Client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt and returns the model's markdown reply.
// Deadline and timeout failures map to AI_TIMEOUT; everything else that goes
// wrong on the provider side maps to AI_FAILURE.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "encode generation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "build generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperr.Wrap(apperr.CodeAITimeout, "generation timed out", err)
		}
		return "", apperr.Wrap(apperr.CodeAIFailure, "generation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", apperr.Wrap(apperr.CodeAIFailure,
			fmt.Sprintf("provider returned %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(data)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.CodeAIFailure, "decode generation response", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", apperr.New(apperr.CodeAIFailure, "provider returned no content")
	}
	return out.Choices[0].Message.Content, nil
}
