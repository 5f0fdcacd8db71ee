// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the dataset stages: question generation, quality
// evaluation, and final dataset assembly. Each stage checkpoints after every
// community so an interrupted run resumes where it stopped.
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/llm"
	"github.com/pdiddy/mdaqa/internal/logging"
	"github.com/pdiddy/mdaqa/internal/progress"
	"github.com/pdiddy/mdaqa/internal/selection"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// Summary holds counts from one stage run.
type Summary struct {
	// Processed communities produced a new checkpoint entry.
	Processed int
	// Resumed communities were already checkpointed.
	Resumed int
	// Rejected communities had no usable multi-document context.
	Rejected int
	// Failed communities hit a provider or parse error; they are retried on
	// the next run.
	Failed int
}

// Total returns the number of communities visited.
func (s Summary) Total() int {
	return s.Processed + s.Resumed + s.Rejected + s.Failed
}

// HasFailures reports whether any community failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Pipeline holds the collaborators shared by every stage.
type Pipeline struct {
	cfg      types.Config
	provider llm.Provider
	fs       afero.Fs
	selector *selection.Selector
	log      *zap.Logger
	w        io.Writer
	now      func() time.Time
}

// New returns a Pipeline. provider is used as given; callers wrap it in an
// llm.Retrier. Progress lines are written to w.
func New(cfg types.Config, provider llm.Provider, fsys afero.Fs, log *zap.Logger, w io.Writer) *Pipeline {
	log = logging.OrNop(log)
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		fs:       fsys,
		selector: selection.New(fsys, cfg.Data.SpiqaPath, cfg.Processing, log),
		log:      log,
		w:        w,
		now:      time.Now,
	}
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.cfg.Output.Dir, name)
}

func (p *Pipeline) generations() *progress.Store[types.GenerationRecord] {
	return progress.New[types.GenerationRecord](p.fs, p.outputPath(p.cfg.Output.QuestionsFile))
}

func (p *Pipeline) evaluations() *progress.Store[types.EvaluationRecord] {
	return progress.New[types.EvaluationRecord](p.fs, p.outputPath(p.cfg.Output.EvaluationsFile))
}

func (p *Pipeline) printSummary(verb string, s Summary) {
	fmt.Fprintf(p.w, "\n%s: %d, resumed: %d, rejected: %d, failed: %d\n",
		verb, s.Processed, s.Resumed, s.Rejected, s.Failed)
}

func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}
