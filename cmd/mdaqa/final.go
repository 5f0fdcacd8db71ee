// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mdaqa/internal/pipeline"
	"github.com/pdiddy/mdaqa/internal/store"
)

var finalCmd = &cobra.Command{
	Use:   "final",
	Short: "Assemble the final dataset from graded questions",
	Long: `Final keeps every question whose evaluation passed with an overall score
of at least processing.min_quality_score, assigns each a stable id, and
writes output/mdaqa_dataset.json. With --yaml a YAML copy is written too.
The dataset is also indexed into output/mdaqa.db for the search command
unless --no-index is given.`,
	RunE: runFinal,
}

func runFinal(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	// Final makes no LLM calls.
	p := pipeline.New(e.cfg, nil, afero.NewOsFs(), e.log, os.Stdout)

	fmt.Println("Generating final dataset format...")
	if err := runFinalStage(cmd, e, p); err != nil {
		return err
	}
	fmt.Println("Final dataset generation completed!")
	return nil
}

// runFinalStage runs Final with the options given on cmd, opening the
// dataset index unless --no-index is set.
func runFinalStage(cmd *cobra.Command, e *env, p *pipeline.Pipeline) error {
	asYAML, _ := cmd.Flags().GetBool("yaml")
	noIndex, _ := cmd.Flags().GetBool("no-index")

	opts := pipeline.FinalOptions{YAML: asYAML}
	if !noIndex {
		st, err := store.Open(datasetDB(e))
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Index = st
	}

	_, err := p.Final(contextOf(cmd), opts)
	return err
}

func datasetDB(e *env) string {
	return filepath.Join(e.cfg.Output.Dir, e.cfg.Output.DatasetDB)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func addFinalFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("yaml", false, "also write the dataset as YAML")
	cmd.Flags().Bool("no-index", false, "skip indexing the dataset into SQLite")
}

func init() {
	addFinalFlags(finalCmd)
	rootCmd.AddCommand(finalCmd)
}
