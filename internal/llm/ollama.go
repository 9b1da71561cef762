package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// OllamaProvider reviews reports with a local model
type OllamaProvider struct {
	api    *apiEndpoint
	config Config
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// NewOllamaProvider defaults to the local server
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	api := newAPIEndpoint(config, "http://localhost:11434", 60*time.Second)
	api.errorText = func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil {
			return ""
		}
		return e.Error
	}
	return &OllamaProvider{api: api, config: config}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the server lists its models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	if err := p.api.ping(ctx, "/api/tags"); err != nil {
		slog.Warn("Ollama availability check failed", "url", p.api.baseURL, "error", err)
		return false
	}
	return true
}

// Summarize runs a non-streaming generation
func (p *OllamaProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	model := resolveModel(req, p.config, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}
	prompt := promptFor(req)

	var resp generateResponse
	err := p.api.postJSON(ctx, "/api/generate", generateRequest{
		Model:  model,
		Prompt: prompt,
		System: systemPrompt,
		Options: generateOptions{
			Temperature: 0.2,
			NumPredict:  resolveMaxTokens(req, p.config),
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		// about four characters per token
		tokens = (len(prompt) + len(resp.Response)) / 4
	}
	return finishSummary(p.config, req, resp.Response, resp.Model, tokens)
}
