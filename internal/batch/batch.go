// Package batch evaluates many documents on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/verdict"
)

// ErrPanic marks an entry whose evaluation panicked.
var ErrPanic = errors.New("batch: evaluation panicked")

// EvalFunc evaluates one document.
type EvalFunc func(ctx context.Context, doc engine.Document) (verdict.Result, error)

// Entry is the outcome for one document: a result or a failure.
type Entry struct {
	DocumentID string          `json:"document_id"`
	Result     *verdict.Result `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Elapsed    time.Duration   `json:"elapsed_ns"`

	err error
}

// Failed reports whether the evaluation failed.
func (e Entry) Failed() bool { return e.Result == nil }

// Err returns the evaluation error, if any.
func (e Entry) Err() error { return e.err }

// Report collects a batch. Entries are in completion order. Abandoned lists,
// in input order, documents cancelled before they produced an entry.
type Report struct {
	Entries   []Entry  `json:"entries"`
	Abandoned []string `json:"abandoned,omitempty"`
}

// Failed counts failed entries.
func (r Report) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Failed() {
			n++
		}
	}
	return n
}

// ByDocument indexes entries by document id.
func (r Report) ByDocument() map[string]Entry {
	out := make(map[string]Entry, len(r.Entries))
	for _, e := range r.Entries {
		out[e.DocumentID] = e
	}
	return out
}

// Runner fans documents out to Eval. Workers bounds concurrency; zero
// means GOMAXPROCS. OnEntry, when set, is called serially as each entry
// completes.
type Runner struct {
	Eval    EvalFunc
	Workers int
	OnEntry func(Entry)
	Logger  *slog.Logger
}

// New returns a runner with the given concurrency.
func New(eval EvalFunc, workers int) *Runner {
	return &Runner{Eval: eval, Workers: workers, Logger: logging.New("batch")}
}

// Run evaluates docs. A failing or panicking document becomes a failed
// entry without affecting its siblings. When ctx ends, documents without an
// entry are listed as abandoned and ctx.Err() is returned with the partial
// report.
func (r *Runner) Run(ctx context.Context, docs []engine.Document) (Report, error) {
	if r.Eval == nil {
		return Report{}, errors.New("batch: no evaluator configured")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu        sync.Mutex
		report    Report
		abandoned = make([]bool, len(docs))
	)
	record := func(e Entry) {
		mu.Lock()
		defer mu.Unlock()
		report.Entries = append(report.Entries, e)
		if r.OnEntry != nil {
			r.OnEntry(e)
		}
	}

	logger.Info("batch started", "documents", len(docs), "workers", workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		if gctx.Err() != nil {
			abandoned[i] = true
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				abandoned[i] = true
				return nil
			}
			t0 := time.Now()
			res, err := r.evalOne(gctx, doc)
			if err != nil && gctx.Err() != nil {
				abandoned[i] = true
				return nil
			}
			e := Entry{DocumentID: doc.ID, Elapsed: time.Since(t0)}
			if err != nil {
				e.err, e.Error = err, err.Error()
				logger.Warn("document failed", "document", doc.ID, "error", err)
			} else {
				e.Result = &res
			}
			record(e)
			return nil
		})
	}
	_ = g.Wait() // failures are captured per entry

	for i, a := range abandoned {
		if a {
			report.Abandoned = append(report.Abandoned, docs[i].ID)
		}
	}
	logger.Info("batch finished",
		"entries", len(report.Entries), "failed", report.Failed(),
		"abandoned", len(report.Abandoned), "elapsed", time.Since(start))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) evalOne(ctx context.Context, doc engine.Document) (res verdict.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: document %q: %v", ErrPanic, doc.ID, p)
		}
	}()
	return r.Eval(ctx, doc)
}
