// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Grade generated questions against their source papers",
	Long: `Evaluate reads output/generated_questions.json, rebuilds each community's
paper text, and asks the LLM to grade every question for relevance,
multi-document dependence, answerability, and clarity. Grades are
checkpointed to output/evaluated_questions.json after every community.`,
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	p, err := e.newPipeline(contextOf(cmd))
	if err != nil {
		return err
	}

	fmt.Println("Starting quality evaluation...")
	summary, err := p.Evaluate(contextOf(cmd))
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d community(ies) failed evaluation; rerun to retry", summary.Failed)
	}
	fmt.Println("Quality evaluation completed!")
	return nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
