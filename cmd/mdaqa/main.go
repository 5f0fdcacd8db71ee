// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mdaqa CLI, which builds a
// multi-document question answering dataset from communities of related
// papers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/config"
	"github.com/pdiddy/mdaqa/internal/llm"
	"github.com/pdiddy/mdaqa/internal/logging"
	"github.com/pdiddy/mdaqa/internal/pipeline"
	"github.com/pdiddy/mdaqa/internal/secrets"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the mdaqa CLI.
var rootCmd = &cobra.Command{
	Use:   "mdaqa",
	Short: "Generate a multi-document QA dataset from paper communities",
	Long: `mdaqa builds a multi-document question answering dataset. For each
community of related papers it assembles the papers' text, asks an LLM for
questions that need two or more papers to answer, grades every question
with a second LLM pass, and keeps the questions that pass.

Stages are subcommands: generate, evaluate, and final; full runs all three.
Progress is checkpointed per community, so an interrupted stage resumes
where it stopped.

Before running, copy config/config_template.yaml to config/config.yaml and
fill in the LLM provider and data paths.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "override logging.format (console, json)")
}

// env is the per-invocation state shared by the stage commands.
type env struct {
	cfg types.Config
	log *zap.Logger
}

// setup loads .env, the config file, and secrets, then builds the logger.
func setup(cmd *cobra.Command) (*env, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w\ncopy config/config_template.yaml to %s and fill in your values", err, missing.Path)
		}
		return nil, err
	}

	s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
	if err != nil {
		return nil, err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
	}
	cfg.LLM = secrets.ApplyAPIKey(cfg.LLM, s)

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if f, _ := cmd.Flags().GetString("log-format"); f != "" {
		cfg.Logging.Format = f
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: log}, nil
}

// newPipeline builds the provider, wraps it in the retry policy, and returns a
// Pipeline over the OS filesystem that reports progress on stdout.
func (e *env) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	provider, err := llm.New(ctx, e.cfg.LLM)
	if err != nil {
		return nil, err
	}
	policy := llm.PolicyFrom(e.cfg.Processing)
	e.log.Debug("provider ready",
		zap.String("provider", provider.Name()),
		zap.String("model", e.cfg.LLM.Model),
		zap.Int("max_retries", policy.MaxRetries),
		zap.Duration("max_backoff", policy.MaxBackoff()))

	retrier := llm.NewRetrier(provider, policy, e.log)
	return pipeline.New(e.cfg, retrier, afero.NewOsFs(), e.log, os.Stdout), nil
}

func (e *env) close() {
	_ = e.log.Sync()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
