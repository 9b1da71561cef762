package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-20241022"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider reviews reports through the Messages API
type AnthropicProvider struct {
	api    *apiEndpoint
	config Config
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []messageTurn `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type messageTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider requires an API key
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	api := newAPIEndpoint(config, "https://api.anthropic.com", 30*time.Second)
	api.headers["x-api-key"] = config.APIKey
	api.headers["anthropic-version"] = anthropicVersion
	api.errorText = func(body []byte) string {
		var e struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error.Message == "" {
			return ""
		}
		return e.Error.Type + " - " + e.Error.Message
	}

	return &AnthropicProvider{api: api, config: config}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable sends a one-word message to verify the key
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	var resp messagesResponse
	err := p.api.postJSON(ctx, "/v1/messages", messagesRequest{
		Model:     resolveModel(SummarizeRequest{}, p.config, defaultAnthropicModel),
		MaxTokens: 10,
		Messages:  []messageTurn{{Role: "user", Content: "Hi"}},
	}, &resp)
	if err != nil {
		slog.Warn("Anthropic API check failed", "error", err)
		return false
	}
	return true
}

// Summarize reviews the report in a single user turn
func (p *AnthropicProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	var resp messagesResponse
	err := p.api.postJSON(ctx, "/v1/messages", messagesRequest{
		Model:       resolveModel(req, p.config, defaultAnthropicModel),
		MaxTokens:   resolveMaxTokens(req, p.config),
		System:      systemPrompt,
		Messages:    []messageTurn{{Role: "user", Content: promptFor(req)}},
		Temperature: 0.2,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("no content in Anthropic response")
	}

	return finishSummary(p.config, req, resp.Content[0].Text, resp.Model,
		resp.Usage.InputTokens+resp.Usage.OutputTokens)
}
