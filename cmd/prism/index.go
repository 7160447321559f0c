package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/prism/internal/indexing"
)

var (
	flagIndexWorkers     int
	flagIndexStopOnError bool
)

var indexCmd = &cobra.Command{
	Use:   "index <glob>...",
	Short: "Ingest and index local PDFs synchronously",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().IntVarP(&flagIndexWorkers, "workers", "w", runtime.NumCPU(), "Number of documents indexed in parallel")
	indexCmd.Flags().BoolVar(&flagIndexStopOnError, "stop-on-error", false, "Abort on the first failing document")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	eng, log, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	cfg := indexing.DefaultBulkIndexingConfig()
	cfg.WorkerCount = flagIndexWorkers
	cfg.StopOnError = flagIndexStopOnError
	cfg.ProgressCallback = func(processed, total int, message string) {
		log.Info("Indexing", "processed", processed, "total", total, "last", message)
	}

	results, err := eng.IndexFiles(cmd.Context(), args, cfg)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no PDF matched %v", args)
	}

	failed := 0
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "DOC ID\tFILE\tSECTIONS\tSENTENCES\tSTATUS")
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t%v\n", r.Request.DocID, r.Request.OrigName, r.Err)
			continue
		}
		status := "ok"
		if r.Result.Fallback {
			status = "ok (page fallback)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Request.DocID, r.Request.OrigName, r.Result.Sections, r.Result.Sentences, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}
