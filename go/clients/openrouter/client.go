package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/corkboard/go/clients"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-3-flash-preview"

	chatCompletionsEndpoint = "/chat/completions"
)

// ErrEmptyCompletion is returned when the response carries no message content
var ErrEmptyCompletion = errors.New("no content in completion response")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Choice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResponse struct {
	ID       string   `json:"id"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Created  int64    `json:"created"`
	Choices  []Choice `json:"choices"`
	Usage    Usage    `json:"usage"`
}

// Client talks to the OpenRouter chat completions API
type Client struct {
	*clients.BaseClient
	model string
}

// NewClient creates an OpenRouter client. Empty baseURL or model use the defaults.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Authorization", "Bearer "+apiKey)
	base.SetHeader("Content-Type", "application/json")

	return &Client{BaseClient: base, model: model}
}

// Complete sends a system and user prompt and returns the first choice's content
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	data, err := c.Post(ctx, chatCompletionsEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal chat response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
