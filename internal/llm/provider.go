// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm presents one call shape over several LLM provider APIs.
//
// A Provider answers Generate(system, user, wantJSON) with raw response text
// regardless of which backend serves it. New validates the provider tag once
// at construction; Retrier wraps any Provider with bounded exponential
// backoff.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/pdiddy/mdaqa/pkg/types"
)

const defaultTimeout = 120 * time.Second

// Provider performs one request/response exchange with an LLM backend.
type Provider interface {
	// Name returns the provider tag.
	Name() string

	// Generate sends the two prompts and returns the raw response text.
	// wantJSON asks the backend to constrain its answer to a JSON object;
	// providers without such a mode ignore it.
	Generate(ctx context.Context, systemPrompt, userPrompt string, wantJSON bool) (string, error)
}

// UnsupportedProviderError reports a provider tag outside the supported set.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	names := make([]string, len(types.Providers))
	for i, p := range types.Providers {
		names[i] = string(p)
	}
	return fmt.Sprintf("unsupported provider %q (supported: %s)", e.Provider, strings.Join(names, ", "))
}

// Option customizes provider construction.
type Option func(*options)

type options struct {
	client      *http.Client
	tokenSource oauth2.TokenSource
}

// WithHTTPClient replaces the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithTokenSource supplies OAuth2 tokens for anthropic_vertex instead of
// Google application default credentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) { o.tokenSource = ts }
}

// New constructs the provider selected by cfg.Provider. An unrecognized tag
// yields *UnsupportedProviderError; a missing variant-specific field yields
// a descriptive error.
func New(ctx context.Context, cfg types.LLMConfig, opts ...Option) (Provider, error) {
	provider, ok := types.ParseProvider(string(cfg.Provider))
	if !ok {
		return nil, &UnsupportedProviderError{Provider: string(cfg.Provider)}
	}
	cfg.Provider = provider

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		o.client = &http.Client{Timeout: timeout}
	}

	switch provider {
	case types.ProviderOpenAI:
		return newOpenAI(cfg, o.client)
	case types.ProviderAzureOpenAI:
		return newAzureOpenAI(cfg, o.client)
	case types.ProviderOllama:
		return newOllama(cfg, o.client), nil
	case types.ProviderAnthropic:
		return newAnthropic(cfg, o.client)
	case types.ProviderAnthropicVertex:
		if err := validateVertex(cfg); err != nil {
			return nil, err
		}
		ts := o.tokenSource
		if ts == nil {
			var err error
			ts, err = google.DefaultTokenSource(ctx, vertexScope)
			if err != nil {
				return nil, fmt.Errorf("anthropic_vertex: loading Google credentials: %w", err)
			}
		}
		return newAnthropicVertex(cfg, o.client, ts)
	case types.ProviderGemini:
		return newGemini(cfg, o.client)
	}
	return nil, &UnsupportedProviderError{Provider: string(cfg.Provider)}
}

func requireField(provider types.ProviderName, key, value string) error {
	if value == "" {
		return fmt.Errorf("%s requires llm.%s", provider, key)
	}
	return nil
}

func baseURL(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}
