// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// ProviderName identifies an LLM provider calling convention.
type ProviderName string

const (
	ProviderOpenAI          ProviderName = "openai"
	ProviderAzureOpenAI     ProviderName = "azure_openai"
	ProviderAnthropic       ProviderName = "anthropic"
	ProviderAnthropicVertex ProviderName = "anthropic_vertex"
	ProviderGemini          ProviderName = "gemini"
	ProviderOllama          ProviderName = "ollama"
)

// Providers lists every supported provider in display order.
var Providers = []ProviderName{
	ProviderOpenAI,
	ProviderAzureOpenAI,
	ProviderAnthropic,
	ProviderAnthropicVertex,
	ProviderGemini,
	ProviderOllama,
}

// ParseProvider normalizes s (case and surrounding space) and reports whether
// it names a supported provider.
func ParseProvider(s string) (ProviderName, bool) {
	name := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Providers {
		if p == name {
			return p, true
		}
	}
	return name, false
}

// LLMConfig holds the provider profile: the provider tag plus the model,
// sampling parameters, and credential/endpoint fields each variant requires.
type LLMConfig struct {
	// Provider selects the calling convention.
	Provider ProviderName `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (deployment name for azure_openai).
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Temperature is the sampling temperature sent with every request.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the length of each response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// APIKey authenticates openai, azure_openai, anthropic, gemini, and
	// (optionally) ollama requests.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// APIBase overrides the endpoint base URL. Required for azure_openai.
	APIBase string `json:"api_base,omitempty" yaml:"api_base,omitempty" mapstructure:"api_base"`

	// APIVersion is the azure_openai API version (e.g. "2024-02-01").
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" mapstructure:"api_version"`

	// ProjectID is the Google Cloud project for anthropic_vertex.
	ProjectID string `json:"project_id,omitempty" yaml:"project_id,omitempty" mapstructure:"project_id"`

	// Region is the Google Cloud region for anthropic_vertex (e.g. "us-east5").
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Timeout bounds a single HTTP exchange with the provider.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DataConfig points at the run's input files.
type DataConfig struct {
	// CommunityData is the community detection results file (JSON).
	CommunityData string `json:"community_data" yaml:"community_data" mapstructure:"community_data"`

	// SemanticMapping maps internal paper ids to arXiv ids and titles (JSON).
	SemanticMapping string `json:"semantic_mapping" yaml:"semantic_mapping" mapstructure:"semantic_mapping"`

	// SpiqaPath is the directory of extracted paper text files.
	SpiqaPath string `json:"spiqa_path" yaml:"spiqa_path" mapstructure:"spiqa_path"`
}

// ProcessingConfig holds selection thresholds and retry parameters.
type ProcessingConfig struct {
	// MinFileSize is the smallest accepted paper file, in kilobytes.
	MinFileSize int `json:"min_file_size" yaml:"min_file_size" mapstructure:"min_file_size"`

	// MaxFileSize is the largest accepted paper file, in kilobytes.
	MaxFileSize int `json:"max_file_size" yaml:"max_file_size" mapstructure:"max_file_size"`

	// MaxContentLength caps the combined community text, in characters.
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length" mapstructure:"max_content_length"`

	// MaxRetries is the maximum number of provider calls per logical request.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// BaseDelay is the first backoff delay, in seconds.
	BaseDelay float64 `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps the exponential part of the backoff, in seconds.
	MaxDelay float64 `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// QuestionsPerCommunity is the number of QA pairs requested per community.
	QuestionsPerCommunity int `json:"questions_per_community" yaml:"questions_per_community" mapstructure:"questions_per_community"`

	// MinQualityScore is the lowest overall grade kept in the final dataset.
	MinQualityScore float64 `json:"min_quality_score" yaml:"min_quality_score" mapstructure:"min_quality_score"`
}

// MinFileBytes returns MinFileSize converted to bytes.
func (p ProcessingConfig) MinFileBytes() int64 { return int64(p.MinFileSize) * 1024 }

// MaxFileBytes returns MaxFileSize converted to bytes.
func (p ProcessingConfig) MaxFileBytes() int64 { return int64(p.MaxFileSize) * 1024 }

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (p ProcessingConfig) BaseDelayDuration() time.Duration { return seconds(p.BaseDelay) }

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (p ProcessingConfig) MaxDelayDuration() time.Duration { return seconds(p.MaxDelay) }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// OutputConfig names the files a run produces.
type OutputConfig struct {
	// Dir is the base output directory.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// QuestionsFile is the generation checkpoint, relative to Dir.
	QuestionsFile string `json:"questions_file" yaml:"questions_file" mapstructure:"questions_file"`

	// EvaluationsFile is the evaluation checkpoint, relative to Dir.
	EvaluationsFile string `json:"evaluations_file" yaml:"evaluations_file" mapstructure:"evaluations_file"`

	// DatasetFile is the final dataset, relative to Dir.
	DatasetFile string `json:"dataset_file" yaml:"dataset_file" mapstructure:"dataset_file"`

	// DatasetDB is the SQLite index of the final dataset, relative to Dir.
	DatasetDB string `json:"dataset_db" yaml:"dataset_db" mapstructure:"dataset_db"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config is the validated, read-only configuration for one run.
type Config struct {
	LLM        LLMConfig        `json:"llm" yaml:"llm" mapstructure:"llm"`
	Data       DataConfig       `json:"data" yaml:"data" mapstructure:"data"`
	Processing ProcessingConfig `json:"processing" yaml:"processing" mapstructure:"processing"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// String renders the provider profile without credentials.
func (c LLMConfig) String() string {
	return fmt.Sprintf("%s/%s (temperature=%.2f, max_tokens=%d)", c.Provider, c.Model, c.Temperature, c.MaxTokens)
}
