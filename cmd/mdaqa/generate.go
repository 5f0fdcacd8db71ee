// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate multi-document questions for each community",
	Long: `Generate loads the community file and semantic mapping, assembles each
community's paper text from the content store, and asks the LLM for
questions that need at least two papers to answer. Communities with fewer
than two usable papers or with too much text are rejected. Results are
checkpointed to output/generated_questions.json after every community;
already generated communities are skipped.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	p, err := e.newPipeline(contextOf(cmd))
	if err != nil {
		return err
	}

	fmt.Println("Starting question generation...")
	summary, err := p.Generate(contextOf(cmd))
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d community(ies) failed generation; rerun to retry", summary.Failed)
	}
	fmt.Println("Question generation completed!")
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
