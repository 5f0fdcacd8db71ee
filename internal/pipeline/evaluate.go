// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/prompt"
	"github.com/pdiddy/mdaqa/internal/selection"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// ErrNoGenerations is returned by Evaluate when there is nothing to grade.
var ErrNoGenerations = errors.New("no generated questions: run generate first")

// Evaluate grades every generated community that has no evaluation
// checkpoint yet. The paper context is rebuilt from the papers recorded at
// generation time.
func (p *Pipeline) Evaluate(ctx context.Context) (Summary, error) {
	gens, err := p.generations().Load()
	if err != nil {
		return Summary{}, err
	}
	if len(gens) == 0 {
		return Summary{}, ErrNoGenerations
	}

	store := p.evaluations()
	done, err := store.Load()
	if err != nil {
		return Summary{}, err
	}

	p.log.Info("evaluating questions",
		zap.Int("communities", len(gens)),
		zap.Int("checkpointed", len(done)))

	var summary Summary
	for _, id := range sortedKeys(gens) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if _, ok := done[id]; ok {
			fmt.Fprintf(p.w, "resumed %s\n", id)
			summary.Resumed++
			continue
		}

		gen := gens[id]
		sel, outcome := p.selector.Select(gen.Papers)
		if outcome != selection.Selected {
			fmt.Fprintf(p.w, "rejected %s: %s\n", id, outcome)
			summary.Rejected++
			continue
		}

		fmt.Fprintf(p.w, "evaluating %s (%d questions)\n", id, len(gen.Questions))
		evals, err := p.gradeAll(ctx, sel, gen.Questions)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(p.w, "failed  %s: %v\n", id, err)
			p.log.Error("evaluation failed", zap.String("community", id), zap.Error(err))
			summary.Failed++
			continue
		}

		done[id] = types.EvaluationRecord{
			CommunityID: gen.CommunityID,
			Papers:      gen.Papers,
			Evaluations: evals,
			EvaluatedAt: p.now().UTC(),
		}
		if err := store.Save(done); err != nil {
			return summary, err
		}

		fmt.Fprintf(p.w, "evaluated %s (%d passed)\n", id, countPassed(evals))
		summary.Processed++
	}

	p.printSummary("evaluated", summary)
	return summary, nil
}

func (p *Pipeline) gradeAll(ctx context.Context, sel *types.CommunitySelection, questions []types.QAPair) ([]types.QuestionEvaluation, error) {
	evals := make([]types.QuestionEvaluation, 0, len(questions))
	for i, qa := range questions {
		user, err := prompt.Evaluation(sel, qa)
		if err != nil {
			return nil, err
		}
		raw, err := p.provider.Generate(ctx, prompt.EvaluationSystem, user, true)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		grade, err := prompt.ParseGrade(raw)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		evals = append(evals, grade.Apply(qa))
	}
	return evals, nil
}

func countPassed(evals []types.QuestionEvaluation) int {
	n := 0
	for _, e := range evals {
		if e.Pass {
			n++
		}
	}
	return n
}
