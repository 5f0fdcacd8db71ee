// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run generate, evaluate, and final in order",
	Long: `Full runs the whole pipeline. Communities that fail in one stage are
reported at the end; later stages still run over whatever earlier stages
produced, so a rerun only retries the failures.`,
	RunE: runFull,
}

func runFull(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := contextOf(cmd)
	p, err := e.newPipeline(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Starting full pipeline...")

	fmt.Println("Step 1: Question generation...")
	gen, err := p.Generate(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Step 2: Quality evaluation...")
	eval, err := p.Evaluate(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Step 3: Generating final dataset...")
	if err := runFinalStage(cmd, e, p); err != nil {
		return err
	}

	if failed := gen.Failed + eval.Failed; failed > 0 {
		return fmt.Errorf("%d community(ies) failed (generate: %d, evaluate: %d); rerun to retry",
			failed, gen.Failed, eval.Failed)
	}
	fmt.Println("Full pipeline completed!")
	return nil
}

func init() {
	addFinalFlags(fullCmd)
	rootCmd.AddCommand(fullCmd)
}
