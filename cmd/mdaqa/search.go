// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mdaqa/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the final dataset index",
	Long: `Search runs an FTS5 full-text query over the questions and answers in
output/mdaqa.db, optionally narrowed by community, paper, or minimum score.
Filters can be used without a query. Run final first to build the index.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	opts := store.QueryOptions{Query: strings.Join(args, " ")}
	opts.CommunityID, _ = cmd.Flags().GetString("community")
	opts.ArxivID, _ = cmd.Flags().GetString("paper")
	opts.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --community, --paper, or --min-score")
	}

	path := datasetDB(e)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("dataset index %s not found: run final first", path)
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Search(contextOf(cmd), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(os.Stdout, results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []store.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-10s  %-5s  %s\n", "Rank", "ID", "Community", "Score", "Question")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-12s  %-10s  %-5.2f  %s\n",
			i+1, r.ID, truncate(string(r.CommunityID), 10), r.Score, truncate(r.Question, 60))
	}
	fmt.Fprintf(w, "\n%d result(s)\n", len(results))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	searchCmd.Flags().String("community", "", "filter by community id")
	searchCmd.Flags().String("paper", "", "filter by arXiv id of a source paper")
	searchCmd.Flags().Float64("min-score", 0, "minimum overall score")
	searchCmd.Flags().Int("max-results", store.DefaultMaxResults, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
