// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/pdiddy/mdaqa/internal/httputil"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// capture records the last request a test server received.
type capture struct {
	path   string
	query  string
	header http.Header
	body   map[string]any
}

func newServer(t *testing.T, status int, reply string, got *capture) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.header = r.Header.Clone()
		got.body = map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &got.body))
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func baseConfig(provider types.ProviderName, apiBase string) types.LLMConfig {
	return types.LLMConfig{
		Provider:    provider,
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   512,
		APIKey:      "test-key",
		APIBase:     apiBase,
	}
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), types.LLMConfig{Provider: "cohere", Model: "x"})
	require.Error(t, err)

	var unsupported *UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "cohere", unsupported.Provider)
	assert.Contains(t, err.Error(), "azure_openai")
}

func TestNewMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		cfg    types.LLMConfig
		errMsg string
	}{
		{"openai without key", types.LLMConfig{Provider: types.ProviderOpenAI, Model: "m"}, "llm.api_key"},
		{"azure without base", types.LLMConfig{Provider: types.ProviderAzureOpenAI, Model: "m", APIKey: "k", APIVersion: "v"}, "llm.api_base"},
		{"azure without version", types.LLMConfig{Provider: types.ProviderAzureOpenAI, Model: "m", APIKey: "k", APIBase: "https://x"}, "llm.api_version"},
		{"anthropic without key", types.LLMConfig{Provider: types.ProviderAnthropic, Model: "m"}, "llm.api_key"},
		{"vertex without project", types.LLMConfig{Provider: types.ProviderAnthropicVertex, Model: "m", Region: "us-east5"}, "llm.project_id"},
		{"vertex without region", types.LLMConfig{Provider: types.ProviderAnthropicVertex, Model: "m", ProjectID: "p"}, "llm.region"},
		{"gemini without key", types.LLMConfig{Provider: types.ProviderGemini, Model: "m"}, "llm.api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewSelectsVariant(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
	tests := []struct {
		cfg  types.LLMConfig
		name string
	}{
		{baseConfig(types.ProviderOpenAI, ""), "openai"},
		{types.LLMConfig{Provider: "Azure_OpenAI", Model: "d", APIKey: "k", APIBase: "https://a", APIVersion: "v"}, "azure_openai"},
		{types.LLMConfig{Provider: types.ProviderOllama, Model: "llama3"}, "ollama"},
		{baseConfig(types.ProviderAnthropic, ""), "anthropic"},
		{types.LLMConfig{Provider: types.ProviderAnthropicVertex, Model: "claude", ProjectID: "p", Region: "r"}, "anthropic_vertex"},
		{baseConfig(types.ProviderGemini, ""), "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(context.Background(), tt.cfg, WithTokenSource(ts))
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
		})
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`, &got)

	p, err := New(context.Background(), baseConfig(types.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	assert.Equal(t, "/chat/completions", got.path)
	assert.Equal(t, "Bearer test-key", got.header.Get("Authorization"))
	assert.Equal(t, "test-model", got.body["model"])
	assert.Equal(t, 0.3, got.body["temperature"])
	assert.Equal(t, float64(512), got.body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got.body["response_format"])

	msgs := got.body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "sys"}, msgs[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "user"}, msgs[1])
}

func TestOpenAIGenerateWithoutJSONMode(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"plain"}}]}`, &got)

	p, err := New(context.Background(), baseConfig(types.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", false)
	require.NoError(t, err)
	assert.Equal(t, "plain", text)
	assert.NotContains(t, got.body, "response_format")
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		errMsg string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, "status 429"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":""}}]}`, "empty text content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got capture
			srv := newServer(t, tt.status, tt.reply, &got)
			p, err := New(context.Background(), baseConfig(types.ProviderOpenAI, srv.URL))
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), "s", "u", false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Contains(t, err.Error(), "openai")
		})
	}
}

func TestOpenAIStatusErrorIsInspectable(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusServiceUnavailable, `overloaded`, &got)
	p, err := New(context.Background(), baseConfig(types.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "s", "u", false)
	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.True(t, se.Temporary())
}

func TestAzureOpenAIGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"azure says hi"}}]}`, &got)

	cfg := baseConfig(types.ProviderAzureOpenAI, srv.URL+"/")
	cfg.Model = "gpt4-deploy"
	cfg.APIVersion = "2024-02-01"
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	assert.Equal(t, "azure says hi", text)
	assert.Equal(t, "/openai/deployments/gpt4-deploy/chat/completions", got.path)
	assert.Equal(t, "api-version=2024-02-01", got.query)
	assert.Equal(t, "test-key", got.header.Get("api-key"))
	assert.Empty(t, got.header.Get("Authorization"))
	assert.Contains(t, got.body, "response_format")
}

func TestOllamaGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"local"}}]}`, &got)

	cfg := types.LLMConfig{Provider: types.ProviderOllama, Model: "llama3", APIBase: srv.URL + "/v1"}
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	assert.Equal(t, "local", text)
	assert.Equal(t, "/v1/chat/completions", got.path)
	assert.Empty(t, got.header.Get("Authorization"), "no key configured")
}

func TestAnthropicGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK,
		`{"content":[{"type":"text","text":"part one, "},{"type":"tool_use"},{"type":"text","text":"part two"}]}`, &got)

	p, err := New(context.Background(), baseConfig(types.ProviderAnthropic, srv.URL))
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	assert.Equal(t, "part one, part two", text)

	assert.Equal(t, "/v1/messages", got.path)
	assert.Equal(t, "test-key", got.header.Get("x-api-key"))
	assert.Equal(t, anthropicAPIVersion, got.header.Get("anthropic-version"))
	assert.Equal(t, "test-model", got.body["model"])
	assert.Equal(t, "sys", got.body["system"])
	assert.NotContains(t, got.body, "response_format", "JSON mode is unsupported and ignored")
	assert.NotContains(t, got.body, "anthropic_version")

	msgs := got.body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]any{"role": "user", "content": "user"}, msgs[0])
}

func TestAnthropicNoText(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"content":[]}`, &got)
	p, err := New(context.Background(), baseConfig(types.ProviderAnthropic, srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "s", "u", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestAnthropicVertexGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"content":[{"type":"text","text":"vertex"}]}`, &got)

	cfg := types.LLMConfig{
		Provider:  types.ProviderAnthropicVertex,
		Model:     "claude-3-5-sonnet@20240620",
		MaxTokens: 256,
		ProjectID: "my-project",
		Region:    "us-east5",
		APIBase:   srv.URL,
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29.token"})
	p, err := New(context.Background(), cfg, WithTokenSource(tokens))
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", false)
	require.NoError(t, err)
	assert.Equal(t, "vertex", text)

	assert.Equal(t, "/v1/projects/my-project/locations/us-east5/publishers/anthropic/models/claude-3-5-sonnet@20240620:rawPredict", got.path)
	assert.Equal(t, "Bearer ya29.token", got.header.Get("Authorization"))
	assert.Equal(t, vertexAPIVersion, got.body["anthropic_version"])
	assert.NotContains(t, got.body, "model")
	assert.Equal(t, "sys", got.body["system"])
}

func TestGeminiGenerate(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`, &got)

	p, err := New(context.Background(), baseConfig(types.ProviderGemini, srv.URL))
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	assert.Equal(t, "/models/test-model:generateContent", got.path)
	assert.Equal(t, "test-key", got.header.Get("x-goog-api-key"))

	gen := got.body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, float64(512), gen["maxOutputTokens"])
	assert.Equal(t, 0.3, gen["temperature"])

	sys := got.body["systemInstruction"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"text": "sys"}}, sys["parts"])
}

func TestGeminiNoCandidates(t *testing.T) {
	var got capture
	srv := newServer(t, http.StatusOK, `{"candidates":[]}`, &got)
	p, err := New(context.Background(), baseConfig(types.ProviderGemini, srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "s", "u", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}
