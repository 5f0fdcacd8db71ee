// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed file contents are the value.
//
// Recognized key files: openai-api-key, azure_openai-api-key, anthropic-api-key,
// gemini-api-key, ollama-api-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/mdaqa/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on w but do not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyName returns the secret file name holding the API key for provider.
func KeyName(provider types.ProviderName) string {
	return string(provider) + "-api-key"
}

// ApplyAPIKey returns cfg with APIKey filled from secrets when the config
// and environment left it empty. An explicit value is never overwritten.
func ApplyAPIKey(cfg types.LLMConfig, secrets map[string]string) types.LLMConfig {
	if cfg.APIKey != "" {
		return cfg
	}
	if v, ok := secrets[KeyName(cfg.Provider)]; ok {
		cfg.APIKey = v
	}
	return cfg
}
