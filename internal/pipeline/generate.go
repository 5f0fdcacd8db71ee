// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/dataset"
	"github.com/pdiddy/mdaqa/internal/prompt"
	"github.com/pdiddy/mdaqa/internal/selection"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// Generate writes questions for every community in the community file that
// has no checkpoint yet. Data file errors abort the run; per-community
// provider and parse failures are counted and skipped.
func (p *Pipeline) Generate(ctx context.Context) (Summary, error) {
	communities, err := dataset.LoadCommunities(p.fs, p.cfg.Data.CommunityData)
	if err != nil {
		return Summary{}, err
	}
	mapping, err := dataset.LoadMapping(p.fs, p.cfg.Data.SemanticMapping)
	if err != nil {
		return Summary{}, err
	}

	store := p.generations()
	done, err := store.Load()
	if err != nil {
		return Summary{}, err
	}

	p.log.Info("generating questions",
		zap.Int("communities", len(communities)),
		zap.Int("checkpointed", len(done)),
		zap.Stringer("provider", p.cfg.LLM))

	var summary Summary
	for _, c := range communities {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		id := string(c.ID)
		if _, ok := done[id]; ok {
			fmt.Fprintf(p.w, "resumed %s\n", id)
			summary.Resumed++
			continue
		}

		cands, unresolved := mapping.Candidates(c)
		if len(unresolved) > 0 {
			p.log.Debug("unmapped papers", zap.String("community", id), zap.Strings("papers", unresolved))
		}

		sel, outcome := p.selector.Select(cands)
		if outcome != selection.Selected {
			fmt.Fprintf(p.w, "rejected %s: %s\n", id, outcome)
			summary.Rejected++
			continue
		}

		fmt.Fprintf(p.w, "generating %s (%d papers)\n", id, len(sel.Papers))
		questions, err := p.generateQuestions(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(p.w, "failed  %s: %v\n", id, err)
			p.log.Error("question generation failed", zap.String("community", id), zap.Error(err))
			summary.Failed++
			continue
		}

		done[id] = types.GenerationRecord{
			CommunityID: c.ID,
			Papers:      sel.Papers,
			Questions:   questions,
			Model:       p.cfg.LLM.Model,
			GeneratedAt: p.now().UTC(),
		}
		if err := store.Save(done); err != nil {
			return summary, err
		}

		fmt.Fprintf(p.w, "generated %s (%d questions)\n", id, len(questions))
		summary.Processed++
	}

	p.printSummary("generated", summary)
	return summary, nil
}

func (p *Pipeline) generateQuestions(ctx context.Context, sel *types.CommunitySelection) ([]types.QAPair, error) {
	user, err := prompt.Generation(sel, p.cfg.Processing.QuestionsPerCommunity)
	if err != nil {
		return nil, err
	}
	raw, err := p.provider.Generate(ctx, prompt.GenerationSystem, user, true)
	if err != nil {
		return nil, err
	}
	return prompt.ParseQuestions(raw)
}
