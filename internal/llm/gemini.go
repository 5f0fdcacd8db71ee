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

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// gemini calls Google's generateContent endpoint.
type gemini struct {
	url    string
	header http.Header
	cfg    types.LLMConfig
	client *http.Client
}

func newGemini(cfg types.LLMConfig, client *http.Client) (*gemini, error) {
	if err := requireField(cfg.Provider, "api_key", cfg.APIKey); err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("x-goog-api-key", cfg.APIKey)
	return &gemini{
		url:    fmt.Sprintf("%s/models/%s:generateContent", baseURL(cfg.APIBase, defaultGeminiBase), url.PathEscape(cfg.Model)),
		header: h,
		cfg:    cfg,
		client: client,
	}, nil
}

func (g *gemini) Name() string { return string(types.ProviderGemini) }

func (g *gemini) Generate(ctx context.Context, systemPrompt, userPrompt string, wantJSON bool) (string, error) {
	temp := g.cfg.Temperature
	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		GenerationConfig: geminiGenConfig{
			MaxOutputTokens: g.cfg.MaxTokens,
			Temperature:     &temp,
		},
	}
	if wantJSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	var resp geminiResponse
	if err := httputil.PostJSON(ctx, g.client, g.url, g.header, body, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content in response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
