package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/prism/model"
)

var (
	flagSearchK       int
	flagSearchDeep    bool
	flagSearchPersona string
	flagSearchTask    string
	flagSearchDocs    []string
	flagSearchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the sections most related to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "Number of hits (0 uses the configured default)")
	searchCmd.Flags().BoolVar(&flagSearchDeep, "deep", false, "Apply domain reweighting")
	searchCmd.Flags().StringVar(&flagSearchPersona, "persona", "", "Persona used to reweight hits")
	searchCmd.Flags().StringVar(&flagSearchTask, "task", "", "Task used to reweight hits")
	searchCmd.Flags().StringSliceVar(&flagSearchDocs, "doc", nil, "Restrict results to these document ids")
	searchCmd.Flags().BoolVar(&flagSearchJSON, "json", false, "Print the raw JSON result")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	k := flagSearchK
	if k == 0 {
		k = eng.Config().Search.DefaultK
	}
	res, err := eng.Search(cmd.Context(), model.SearchQuery{
		Query:     strings.Join(args, " "),
		K:         k,
		DocFilter: flagSearchDocs,
		Persona:   flagSearchPersona,
		Task:      flagSearchTask,
		Deep:      flagSearchDeep,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagSearchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if len(res.Hits) == 0 {
		fmt.Fprintln(out, "No related sections found.")
		return nil
	}
	for i, h := range res.Hits {
		fmt.Fprintf(out, "%d. %s  (%s, p.%d, score %.3f)\n", i+1, h.SectionTitle, h.DocTitle, h.Page, h.Score)
		if h.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", h.Snippet)
		}
	}
	return nil
}
