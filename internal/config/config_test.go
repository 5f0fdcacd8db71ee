// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdaqa/pkg/types"
)

const minimalYAML = `
llm:
  provider: OpenAI
  model: gpt-4o
data:
  community_data: data/communities.json
  semantic_mapping: data/mapping.json
  spiqa_path: data/spiqa
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Load(path)
	require.Error(t, err)

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, path, missing.Path)
	assert.Contains(t, err.Error(), path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, types.ProviderOpenAI, cfg.LLM.Provider, "provider tag is normalized")
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.Processing.MinFileSize)
	assert.Equal(t, 200, cfg.Processing.MaxFileSize)
	assert.Equal(t, 100000, cfg.Processing.MaxContentLength)
	assert.Equal(t, 5, cfg.Processing.MaxRetries)
	assert.Equal(t, 1.0, cfg.Processing.BaseDelay)
	assert.Equal(t, 60.0, cfg.Processing.MaxDelay)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "generated_questions.json", cfg.Output.QuestionsFile)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFullFile(t *testing.T) {
	content := `
llm:
  provider: azure_openai
  model: gpt4-deploy
  temperature: 0.2
  max_tokens: 1024
  api_key: az-key
  api_base: https://example.openai.azure.com
  api_version: 2024-02-01
  timeout: 30s
data:
  community_data: c.json
  semantic_mapping: m.json
  spiqa_path: spiqa
processing:
  min_file_size: 5
  max_file_size: 50
  max_content_length: 2000
  max_retries: 3
  base_delay: 0.5
  max_delay: 8
  questions_per_community: 2
  min_quality_score: 3.5
output:
  dir: out
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, types.ProviderAzureOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt4-deploy", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, "2024-02-01", cfg.LLM.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, int64(5*1024), cfg.Processing.MinFileBytes())
	assert.Equal(t, 500*time.Millisecond, cfg.Processing.BaseDelayDuration())
	assert.Equal(t, 3.5, cfg.Processing.MinQualityScore)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("MDAQA_LLM_API_KEY", "from-env")
	t.Setenv("MDAQA_PROCESSING_MAX_RETRIES", "7")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 7, cfg.Processing.MaxRetries)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func validConfig() types.Config {
	return types.Config{
		LLM: types.LLMConfig{Provider: types.ProviderOpenAI, Model: "m", MaxTokens: 10, Temperature: 0.5},
		Data: types.DataConfig{
			CommunityData: "c.json", SemanticMapping: "m.json", SpiqaPath: "spiqa",
		},
		Processing: types.ProcessingConfig{
			MinFileSize: 1, MaxFileSize: 2, MaxContentLength: 100,
			MaxRetries: 1, BaseDelay: 1, MaxDelay: 2, QuestionsPerCommunity: 1,
		},
		Output: types.OutputConfig{Dir: "out"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Config)
		errMsg string
	}{
		{"valid", func(*types.Config) {}, ""},
		{"missing provider", func(c *types.Config) { c.LLM.Provider = "" }, "llm.provider"},
		{"missing model", func(c *types.Config) { c.LLM.Model = "" }, "llm.model"},
		{"zero max tokens", func(c *types.Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"temperature too high", func(c *types.Config) { c.LLM.Temperature = 3 }, "temperature"},
		{"missing community data", func(c *types.Config) { c.Data.CommunityData = "" }, "community_data"},
		{"missing mapping", func(c *types.Config) { c.Data.SemanticMapping = "" }, "semantic_mapping"},
		{"missing spiqa", func(c *types.Config) { c.Data.SpiqaPath = "" }, "spiqa_path"},
		{"max below min size", func(c *types.Config) { c.Processing.MaxFileSize = 0 }, "max_file_size"},
		{"zero content length", func(c *types.Config) { c.Processing.MaxContentLength = 0 }, "max_content_length"},
		{"zero retries", func(c *types.Config) { c.Processing.MaxRetries = 0 }, "max_retries"},
		{"negative delay", func(c *types.Config) { c.Processing.BaseDelay = -1 }, "base_delay"},
		{"zero questions", func(c *types.Config) { c.Processing.QuestionsPerCommunity = 0 }, "questions_per_community"},
		{"missing output dir", func(c *types.Config) { c.Output.Dir = "" }, "output.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MDAQA_TEST_DOTENV=hello\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MDAQA_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envPath))
	assert.Equal(t, "hello", os.Getenv("MDAQA_TEST_DOTENV"))
}
