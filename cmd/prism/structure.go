package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	flagStructureOut     string
	flagStructureWorkers int
)

var structureCmd = &cobra.Command{
	Use:   "structure <glob>...",
	Short: "Write a {stem}.json outline for every matching PDF",
	Long: `Extracts the title and heading outline of each PDF matched by the glob
patterns (doublestar syntax, e.g. "input/**/*.pdf") and writes it as
{stem}.json into the output directory. Nothing is indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStructure,
}

func init() {
	structureCmd.Flags().StringVarP(&flagStructureOut, "out", "o", "output", "Output directory for outline JSON files")
	structureCmd.Flags().IntVarP(&flagStructureWorkers, "workers", "w", runtime.NumCPU(), "Number of PDFs processed in parallel")
	rootCmd.AddCommand(structureCmd)
}

func runStructure(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	outcomes, err := eng.StructureFiles(cmd.Context(), args, flagStructureOut, flagStructureWorkers)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no PDF matched %v", args)
	}

	failed := 0
	out := cmd.OutOrStdout()
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", o.Input, o.Err)
			continue
		}
		fmt.Fprintf(out, "OK    %s -> %s (%d headings)\n", o.Input, o.Output, len(o.Outline.Outline))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}
