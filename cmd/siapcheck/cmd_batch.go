package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"siapcheck/internal/batch"
	"siapcheck/internal/document"
	"siapcheck/internal/format"
	"siapcheck/internal/logging"
	"siapcheck/internal/metrics"
	"siapcheck/internal/store"
)

var batchFlags struct {
	scenario string
	workers  int
	label    string
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir|file>...",
	Short: "Evaluate many documents concurrently",
	Long: `Evaluate every .txt and .md document under the given paths with a
bounded worker pool. A failing document is reported in its own row and
never stops the others. Interrupting the run abandons documents that have
not finished; completed results are still printed and stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.scenario, "scenario", "s", "", "Scenario id for every document; skips routing")
	f.IntVarP(&batchFlags.workers, "workers", "w", 0, "Concurrent evaluations (default: batch.workers from config)")
	f.StringVar(&batchFlags.label, "label", "batch", "Run label recorded in the result store")
}

func runBatch(cmd *cobra.Command, args []string) error {
	docs, err := document.Load(args...)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %v", args)
	}

	m := metrics.New()
	ev, err := newEvaluator(m)
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
	stopMetrics := serveMetrics(cfg.Metrics.Addr, m)
	defer stopMetrics()

	workers := batchFlags.workers
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	runner := batch.New(ev.BatchFunc(batchFlags.scenario), workers)
	onEntry, err := entrySink(st, m, len(docs))
	if err != nil {
		return err
	}
	runner.OnEntry = onEntry

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, runErr := runner.Run(ctx, docs)
	m.ObserveAbandoned(len(rep.Abandoned))

	if err := printBatch(cmd, rep); err != nil {
		return err
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		return fmt.Errorf("batch interrupted: %d documents abandoned", len(rep.Abandoned))
	case runErr != nil:
		return runErr
	case rep.Failed() > 0:
		return fmt.Errorf("%d of %d documents failed", rep.Failed(), len(docs))
	}
	return nil
}

// entrySink records each finished entry in metrics and, when a store is
// configured, persists successful results under one run.
func entrySink(st store.Store, m *metrics.Metrics, n int) (func(batch.Entry), error) {
	if st == nil {
		return m.ObserveEntry, nil
	}
	run, err := st.CreateRun(batchFlags.label, n)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	logger := logging.New("batch")
	logger.Info("recording results", "run", run.ID)
	return func(e batch.Entry) {
		m.ObserveEntry(e)
		if e.Failed() {
			return
		}
		if _, err := st.SaveResult(run.ID, *e.Result); err != nil {
			logger.Error("result not persisted", "run", run.ID, "document", e.DocumentID, "error", err)
		}
	}, nil
}

func printBatch(cmd *cobra.Command, rep batch.Report) error {
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, rep)
	}
	mode, err := outputMode()
	if err != nil {
		return err
	}
	fmt.Fprint(out, format.Batch(mode, rep))
	return nil
}
