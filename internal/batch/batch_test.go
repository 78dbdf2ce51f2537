package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/verdict"
)

func docs(n int) []engine.Document {
	out := make([]engine.Document, n)
	for i := range out {
		out[i] = engine.Document{ID: fmt.Sprintf("doc-%02d", i)}
	}
	return out
}

func quiet(eval EvalFunc, workers int) *Runner {
	r := New(eval, workers)
	r.Logger = logging.Discard()
	return r
}

func ok(_ context.Context, d engine.Document) (verdict.Result, error) {
	return verdict.Result{DocumentID: d.ID, Verdict: verdict.NoHit}, nil
}

func TestRun_AllDocuments(t *testing.T) {
	var streamed []string
	r := quiet(ok, 3)
	r.OnEntry = func(e Entry) { streamed = append(streamed, e.DocumentID) }

	rep, err := r.Run(context.Background(), docs(10))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Entries) != 10 || rep.Failed() != 0 || len(rep.Abandoned) != 0 {
		t.Fatalf("entries=%d failed=%d abandoned=%d", len(rep.Entries), rep.Failed(), len(rep.Abandoned))
	}
	by := rep.ByDocument()
	for _, d := range docs(10) {
		if e, ok := by[d.ID]; !ok || e.Result.DocumentID != d.ID {
			t.Errorf("missing or mismatched entry for %s", d.ID)
		}
	}
	if len(streamed) != 10 {
		t.Errorf("OnEntry called %d times, want 10", len(streamed))
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var cur, peak int32
	eval := func(ctx context.Context, d engine.Document) (verdict.Result, error) {
		n := atomic.AddInt32(&cur, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&cur, -1)
		return ok(ctx, d)
	}
	if _, err := quiet(eval, 2).Run(context.Background(), docs(8)); err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	boom := errors.New("corrupt document")
	eval := func(ctx context.Context, d engine.Document) (verdict.Result, error) {
		switch d.ID {
		case "doc-01":
			panic("nil map write")
		case "doc-02":
			return verdict.Result{}, boom
		}
		return ok(ctx, d)
	}
	rep, err := quiet(eval, 4).Run(context.Background(), docs(6))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Entries) != 6 || rep.Failed() != 2 {
		t.Fatalf("entries=%d failed=%d, want 6 and 2", len(rep.Entries), rep.Failed())
	}
	by := rep.ByDocument()
	if !errors.Is(by["doc-01"].Err(), ErrPanic) {
		t.Errorf("doc-01 err = %v, want ErrPanic", by["doc-01"].Err())
	}
	if !errors.Is(by["doc-02"].Err(), boom) || by["doc-02"].Error != "corrupt document" {
		t.Errorf("doc-02 entry = %+v", by["doc-02"])
	}
	for _, id := range []string{"doc-00", "doc-03", "doc-04", "doc-05"} {
		if by[id].Failed() {
			t.Errorf("%s should have succeeded", id)
		}
	}
}

func TestRun_CancelAbandons(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	started := 0
	eval := func(ctx context.Context, d engine.Document) (verdict.Result, error) {
		mu.Lock()
		started++
		first := started == 1
		mu.Unlock()
		if first {
			return ok(ctx, d)
		}
		cancel()
		<-ctx.Done()
		return verdict.Result{}, ctx.Err()
	}

	rep, err := quiet(eval, 1).Run(ctx, docs(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.Entries) != 1 || rep.Entries[0].DocumentID != "doc-00" {
		t.Fatalf("entries = %+v, want only doc-00", rep.Entries)
	}
	got := append([]string(nil), rep.Abandoned...)
	sort.Strings(got)
	if diff := cmp.Diff([]string{"doc-01", "doc-02", "doc-03", "doc-04"}, got); diff != "" {
		t.Errorf("abandoned mismatch:\n%s", diff)
	}
	for _, e := range rep.Entries {
		if e.Failed() {
			t.Errorf("cancelled documents must not be reported as failures: %+v", e)
		}
	}
}

func TestRun_NoEvaluator(t *testing.T) {
	if _, err := (&Runner{}).Run(context.Background(), docs(1)); err == nil {
		t.Fatal("expected error")
	}
}
