package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"siapcheck/internal/document"
	"siapcheck/internal/engine"
	"siapcheck/internal/format"
	"siapcheck/internal/store"
	"siapcheck/internal/verdict"
)

var evaluateFlags struct {
	scenario   string
	documentID string
	trace      bool
	failOnHit  bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file...]",
	Short: "Evaluate documents one after another",
	Long: `Evaluate each file (or stdin when no file or "-" is given) and print
the verdict table. Documents are routed to a scenario by keyword unless
--scenario pins one.

Examples:
  siapcheck evaluate memo.txt
  siapcheck evaluate --scenario cannabis_business --trace memo.md
  cat memo.txt | siapcheck evaluate --id client-42 -o json`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.scenario, "scenario", "s", "", "Scenario id; skips routing")
	f.StringVar(&evaluateFlags.documentID, "id", "stdin", "Document id for stdin input")
	f.BoolVar(&evaluateFlags.trace, "trace", false, "Print the question trace of every document")
	f.BoolVar(&evaluateFlags.failOnHit, "fail-on-hit", false, "Exit non-zero when any document is a HIT")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ev, err := newEvaluator(nil)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	eval := ev.BatchFunc(evaluateFlags.scenario)
	results := make([]verdict.Result, 0, len(docs))
	for _, d := range docs {
		res, err := eval(cmd.Context(), d)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", d.ID, err)
		}
		results = append(results, res)
	}

	if st != nil {
		if err := saveRun(st, "evaluate", results); err != nil {
			return err
		}
	}
	if err := printResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	return hitError(results)
}

func readDocuments(stdin io.Reader, args []string) ([]engine.Document, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		d, err := document.Read(stdin, evaluateFlags.documentID)
		if err != nil {
			return nil, err
		}
		return []engine.Document{d}, nil
	}
	return document.Load(args...)
}

func saveRun(st store.Store, label string, results []verdict.Result) error {
	run, err := st.CreateRun(label, len(results))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	for _, r := range results {
		if _, err := st.SaveResult(run.ID, r); err != nil {
			return fmt.Errorf("save result %s: %w", r.DocumentID, err)
		}
	}
	return nil
}

func printResults(w io.Writer, results []verdict.Result) error {
	if jsonOutput() {
		return writeJSON(w, results)
	}
	mode, err := outputMode()
	if err != nil {
		return err
	}
	fmt.Fprint(w, format.Results(mode, results))
	if evaluateFlags.trace {
		for _, r := range results {
			fmt.Fprintln(w)
			fmt.Fprint(w, format.Trace(mode, r))
		}
	}
	return nil
}

func hitError(results []verdict.Result) error {
	if !evaluateFlags.failOnHit {
		return nil
	}
	n := 0
	for _, r := range results {
		if r.Verdict == verdict.Hit {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d documents hit a red flag", n, len(results))
	}
	return nil
}
