// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/pdiddy/mdaqa/internal/httputil"
	"github.com/pdiddy/mdaqa/pkg/types"
)

const (
	defaultAnthropicBase = "https://api.anthropic.com"
	anthropicAPIVersion  = "2023-06-01"
	vertexAPIVersion     = "vertex-2023-10-16"
	vertexScope          = "https://www.googleapis.com/auth/cloud-platform"
)

// messages speaks the Anthropic Messages wire format, either directly or
// through Vertex AI's rawPredict endpoint. Neither has a JSON response mode,
// so wantJSON is ignored and the prompt alone asks for JSON.
type messages struct {
	name   types.ProviderName
	url    string
	header http.Header
	cfg    types.LLMConfig
	client *http.Client

	// tokens is set for Vertex only; each call carries a fresh bearer token.
	tokens oauth2.TokenSource
}

func newAnthropic(cfg types.LLMConfig, client *http.Client) (*messages, error) {
	if err := requireField(cfg.Provider, "api_key", cfg.APIKey); err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("x-api-key", cfg.APIKey)
	h.Set("anthropic-version", anthropicAPIVersion)
	return &messages{
		name:   types.ProviderAnthropic,
		url:    baseURL(cfg.APIBase, defaultAnthropicBase) + "/v1/messages",
		header: h,
		cfg:    cfg,
		client: client,
	}, nil
}

func validateVertex(cfg types.LLMConfig) error {
	if err := requireField(cfg.Provider, "project_id", cfg.ProjectID); err != nil {
		return err
	}
	return requireField(cfg.Provider, "region", cfg.Region)
}

func newAnthropicVertex(cfg types.LLMConfig, client *http.Client, ts oauth2.TokenSource) (*messages, error) {
	if err := validateVertex(cfg); err != nil {
		return nil, err
	}
	base := baseURL(cfg.APIBase, fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Region))
	endpoint := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/anthropic/models/%s:rawPredict",
		base, cfg.ProjectID, cfg.Region, cfg.Model)
	return &messages{
		name:   types.ProviderAnthropicVertex,
		url:    endpoint,
		header: http.Header{},
		cfg:    cfg,
		client: client,
		tokens: ts,
	}, nil
}

func (m *messages) Name() string { return string(m.name) }

func (m *messages) Generate(ctx context.Context, systemPrompt, userPrompt string, _ bool) (string, error) {
	body := messagesRequest{
		MaxTokens:   m.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: userPrompt}},
		Temperature: m.cfg.Temperature,
	}

	header := m.header
	if m.tokens != nil {
		tok, err := m.tokens.Token()
		if err != nil {
			return "", fmt.Errorf("%s: fetching access token: %w", m.name, err)
		}
		header = m.header.Clone()
		header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
		body.AnthropicVersion = vertexAPIVersion
	} else {
		body.Model = m.cfg.Model
	}

	var resp messagesResponse
	if err := httputil.PostJSON(ctx, m.client, m.url, header, body, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", m.name, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: no text content in response", m.name)
	}
	return sb.String(), nil
}

type messagesRequest struct {
	AnthropicVersion string        `json:"anthropic_version,omitempty"`
	Model            string        `json:"model,omitempty"`
	MaxTokens        int           `json:"max_tokens"`
	System           string        `json:"system,omitempty"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
