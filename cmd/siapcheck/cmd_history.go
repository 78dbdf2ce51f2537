package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siapcheck/internal/format"
	"siapcheck/internal/store"
	"siapcheck/internal/verdict"
)

var historyFlags struct {
	runID      string
	documentID string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored runs and results",
	Long: `Without flags, list stored runs. --run lists the results of one run;
--document prints the latest stored result of one document with its trace.

Reads the configured store, or ` + store.DefaultDBPath + ` when none is set.`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.runID, "run", "", "Run id")
	f.StringVar(&historyFlags.documentID, "document", "", "Document id")
	historyCmd.MarkFlagsMutuallyExclusive("run", "document")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultDBPath
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	mode := format.ASCII
	if !jsonOutput() {
		if mode, err = outputMode(); err != nil {
			return err
		}
	}

	switch {
	case historyFlags.documentID != "":
		rec, err := st.LatestResult(historyFlags.documentID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no stored result for document %q", historyFlags.documentID)
		}
		if jsonOutput() {
			return writeJSON(out, rec)
		}
		fmt.Fprint(out, format.Trace(mode, rec.Result))
	case historyFlags.runID != "":
		recs, err := st.ListResults(historyFlags.runID)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(out, recs)
		}
		results := make([]verdict.Result, len(recs))
		for i, r := range recs {
			results[i] = r.Result
		}
		fmt.Fprint(out, format.Results(mode, results))
	default:
		runs, err := st.ListRuns()
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(out, runs)
		}
		fmt.Fprint(out, format.Runs(mode, runs))
	}
	return nil
}
