// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mdaqa/internal/store"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// ErrNoEvaluations is returned by Final when there is nothing to assemble.
var ErrNoEvaluations = errors.New("no evaluated questions: run evaluate first")

// Indexer receives the assembled dataset. *store.Store satisfies it.
type Indexer interface {
	Ingest(ctx context.Context, entries []types.DatasetEntry) (store.IngestSummary, error)
}

// FinalOptions controls the optional outputs of Final.
type FinalOptions struct {
	// YAML also writes the dataset next to the JSON file with a .yaml
	// extension.
	YAML bool

	// Index, when set, receives the dataset after it is written.
	Index Indexer
}

// FinalSummary reports what Final kept.
type FinalSummary struct {
	Communities int
	Evaluated   int
	Kept        int
	Duplicates  int
	Paths       []string
	Index       *store.IngestSummary
}

// Final assembles the dataset from evaluation checkpoints. A question is
// kept when its evaluation passed and its overall score reaches
// processing.min_quality_score.
func (p *Pipeline) Final(ctx context.Context, opts FinalOptions) (FinalSummary, error) {
	evals, err := p.evaluations().Load()
	if err != nil {
		return FinalSummary{}, err
	}
	if len(evals) == 0 {
		return FinalSummary{}, ErrNoEvaluations
	}

	entries, summary := p.assemble(evals)

	jsonPath := p.outputPath(p.cfg.Output.DatasetFile)
	if err := p.writeJSON(jsonPath, entries); err != nil {
		return summary, err
	}
	summary.Paths = append(summary.Paths, jsonPath)

	if opts.YAML {
		yamlPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".yaml"
		if err := p.writeYAML(yamlPath, entries); err != nil {
			return summary, err
		}
		summary.Paths = append(summary.Paths, yamlPath)
	}

	if opts.Index != nil {
		is, err := opts.Index.Ingest(ctx, entries)
		if err != nil {
			return summary, fmt.Errorf("indexing dataset: %w", err)
		}
		summary.Index = &is
	}

	for _, path := range summary.Paths {
		fmt.Fprintf(p.w, "wrote %s\n", path)
	}
	fmt.Fprintf(p.w, "\ncommunities: %d, evaluated: %d, kept: %d\n",
		summary.Communities, summary.Evaluated, summary.Kept)
	if summary.Index != nil {
		fmt.Fprintf(p.w, "indexed: %d, updated: %d, removed: %d\n",
			summary.Index.Indexed, summary.Index.Updated, summary.Index.Removed)
	}
	p.log.Info("final dataset written",
		zap.Int("kept", summary.Kept),
		zap.Int("evaluated", summary.Evaluated),
		zap.Float64("min_quality_score", p.cfg.Processing.MinQualityScore))

	return summary, nil
}

// assemble filters evaluations into dataset entries ordered by community id
// and then question order.
func (p *Pipeline) assemble(evals map[string]types.EvaluationRecord) ([]types.DatasetEntry, FinalSummary) {
	summary := FinalSummary{Communities: len(evals)}
	entries := []types.DatasetEntry{}
	seen := make(map[string]bool)

	for _, id := range sortedKeys(evals) {
		rec := evals[id]
		for _, ev := range rec.Evaluations {
			summary.Evaluated++
			if !ev.Pass || ev.Overall < p.cfg.Processing.MinQualityScore {
				continue
			}
			entryID := EntryID(rec.CommunityID, ev.Question)
			if seen[entryID] {
				summary.Duplicates++
				p.log.Debug("duplicate question", zap.String("community", id), zap.String("id", entryID))
				continue
			}
			seen[entryID] = true
			entries = append(entries, types.DatasetEntry{
				ID:          entryID,
				CommunityID: rec.CommunityID,
				Question:    ev.Question,
				Answer:      ev.Answer,
				Papers:      rec.Papers,
				Evidence:    ev.Evidence,
				Score:       ev.Overall,
			})
		}
	}
	summary.Kept = len(entries)
	return entries, summary
}

// EntryID returns the stable dataset id for a question: the first 12 hex
// characters of SHA-256 over the community id and question text.
func EntryID(community types.CommunityID, question string) string {
	sum := sha256.Sum256([]byte(string(community) + "\x00" + question))
	return hex.EncodeToString(sum[:])[:12]
}

func (p *Pipeline) writeJSON(path string, entries []types.DatasetEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return p.writeFile(path, buf.Bytes())
}

func (p *Pipeline) writeYAML(path string, entries []types.DatasetEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return p.writeFile(path, data)
}

func (p *Pipeline) writeFile(path string, data []byte) error {
	if err := p.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(p.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
