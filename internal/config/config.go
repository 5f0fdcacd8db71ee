// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates the run configuration.
//
// Values come from a YAML file, overridden by MDAQA_-prefixed environment
// variables (MDAQA_LLM_API_KEY overrides llm.api_key). A .env file, when
// present, is loaded into the environment before the lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdaqa/pkg/types"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "config/config.yaml"

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "MDAQA"

// MissingError reports that the configuration file does not exist.
type MissingError struct {
	Path string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("configuration file not found: %s (copy config/config_template.yaml to %s and fill in your values)", e.Path, e.Path)
}

// defaults are registered with viper so that every key is known to
// AutomaticEnv, even when the YAML file omits it.
var defaults = map[string]any{
	"llm.provider":    "",
	"llm.model":       "",
	"llm.temperature": 0.7,
	"llm.max_tokens":  4096,
	"llm.api_key":     "",
	"llm.api_base":    "",
	"llm.api_version": "",
	"llm.project_id":  "",
	"llm.region":      "",
	"llm.timeout":     "120s",

	"data.community_data":   "",
	"data.semantic_mapping": "",
	"data.spiqa_path":       "",

	"processing.min_file_size":           10,
	"processing.max_file_size":           200,
	"processing.max_content_length":      100000,
	"processing.max_retries":             5,
	"processing.base_delay":              1.0,
	"processing.max_delay":               60.0,
	"processing.questions_per_community": 3,
	"processing.min_quality_score":       4.0,

	"output.dir":              "output",
	"output.questions_file":   "generated_questions.json",
	"output.evaluations_file": "evaluated_questions.json",
	"output.dataset_file":     "mdaqa_dataset.json",
	"output.dataset_db":       "mdaqa.db",

	"logging.level":  "info",
	"logging.format": "console",
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (types.Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Config{}, &MissingError{Path: path}
		}
		return types.Config{}, fmt.Errorf("checking config file %s: %w", path, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return types.Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if p, ok := types.ParseProvider(string(cfg.LLM.Provider)); ok {
		cfg.LLM.Provider = p
	}

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks required keys and numeric ranges. The provider tag itself
// is checked when the provider is constructed.
func Validate(cfg types.Config) error {
	switch {
	case cfg.LLM.Provider == "":
		return fmt.Errorf("config: llm.provider is required")
	case cfg.LLM.Model == "":
		return fmt.Errorf("config: llm.model is required")
	case cfg.LLM.MaxTokens <= 0:
		return fmt.Errorf("config: llm.max_tokens must be positive, got %d", cfg.LLM.MaxTokens)
	case cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2:
		return fmt.Errorf("config: llm.temperature %.2f out of range [0,2]", cfg.LLM.Temperature)
	case cfg.LLM.Timeout < 0:
		return fmt.Errorf("config: llm.timeout must not be negative")
	}

	if cfg.Data.CommunityData == "" {
		return fmt.Errorf("config: data.community_data is required")
	}
	if cfg.Data.SemanticMapping == "" {
		return fmt.Errorf("config: data.semantic_mapping is required")
	}
	if cfg.Data.SpiqaPath == "" {
		return fmt.Errorf("config: data.spiqa_path is required")
	}

	p := cfg.Processing
	switch {
	case p.MinFileSize < 0:
		return fmt.Errorf("config: processing.min_file_size must not be negative")
	case p.MaxFileSize < p.MinFileSize:
		return fmt.Errorf("config: processing.max_file_size (%d) is below min_file_size (%d)", p.MaxFileSize, p.MinFileSize)
	case p.MaxContentLength <= 0:
		return fmt.Errorf("config: processing.max_content_length must be positive")
	case p.MaxRetries < 1:
		return fmt.Errorf("config: processing.max_retries must be at least 1, got %d", p.MaxRetries)
	case p.BaseDelay < 0 || p.MaxDelay < 0:
		return fmt.Errorf("config: processing.base_delay and max_delay must not be negative")
	case p.QuestionsPerCommunity < 1:
		return fmt.Errorf("config: processing.questions_per_community must be at least 1")
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("config: output.dir is required")
	}
	return nil
}
