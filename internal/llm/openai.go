// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/mdaqa/internal/httputil"
	"github.com/pdiddy/mdaqa/pkg/types"
)

const (
	defaultOpenAIBase = "https://api.openai.com/v1"
	defaultOllamaBase = "http://localhost:11434"
)

// chatCompletions speaks the OpenAI chat completions wire format. It serves
// openai, azure_openai, and ollama, which differ only in URL and auth.
type chatCompletions struct {
	name   types.ProviderName
	url    string
	header http.Header
	cfg    types.LLMConfig
	client *http.Client
}

func newOpenAI(cfg types.LLMConfig, client *http.Client) (*chatCompletions, error) {
	if err := requireField(cfg.Provider, "api_key", cfg.APIKey); err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+cfg.APIKey)
	return &chatCompletions{
		name:   types.ProviderOpenAI,
		url:    baseURL(cfg.APIBase, defaultOpenAIBase) + "/chat/completions",
		header: h,
		cfg:    cfg,
		client: client,
	}, nil
}

func newAzureOpenAI(cfg types.LLMConfig, client *http.Client) (*chatCompletions, error) {
	for _, f := range []struct{ key, value string }{
		{"api_key", cfg.APIKey},
		{"api_base", cfg.APIBase},
		{"api_version", cfg.APIVersion},
	} {
		if err := requireField(cfg.Provider, f.key, f.value); err != nil {
			return nil, err
		}
	}
	h := http.Header{}
	h.Set("api-key", cfg.APIKey)
	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(cfg.APIBase, "/"), url.PathEscape(cfg.Model), url.QueryEscape(cfg.APIVersion))
	return &chatCompletions{
		name:   types.ProviderAzureOpenAI,
		url:    endpoint,
		header: h,
		cfg:    cfg,
		client: client,
	}, nil
}

// newOllama targets Ollama's OpenAI-compatible endpoint. No API key is
// required; one is sent when configured (e.g. for LM Studio or a proxy).
func newOllama(cfg types.LLMConfig, client *http.Client) *chatCompletions {
	base := baseURL(cfg.APIBase, defaultOllamaBase)
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")

	h := http.Header{}
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return &chatCompletions{
		name:   types.ProviderOllama,
		url:    base + "/v1/chat/completions",
		header: h,
		cfg:    cfg,
		client: client,
	}
}

func (c *chatCompletions) Name() string { return string(c.name) }

func (c *chatCompletions) Generate(ctx context.Context, systemPrompt, userPrompt string, wantJSON bool) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if wantJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := httputil.PostJSON(ctx, c.client, c.url, c.header, body, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", c.name)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%s: empty text content in response", c.name)
	}
	return content, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
