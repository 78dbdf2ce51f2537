package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"siapcheck/internal/logging"
)

func TestScript_OrderAndOverrides(t *testing.T) {
	s := NewScript(Reply(Yes, 0.9, "a"), Reply(No, 0.8, "b"))
	s.On("fixed?", Reply(Yes, 0.55, "pinned"))

	ctx := context.Background()
	p1, _ := s.Resolve(ctx, "first?", "")
	p2, _ := s.Resolve(ctx, "fixed?", "")
	p3, _ := s.Resolve(ctx, "second?", "")
	_, err := s.Resolve(ctx, "third?", "")

	if p1.Evidence != "a" || p2.Evidence != "pinned" || p3.Evidence != "b" {
		t.Errorf("unexpected order: %q %q %q", p1.Evidence, p2.Evidence, p3.Evidence)
	}
	if !errors.Is(err, ErrScriptExhausted) {
		t.Errorf("err = %v, want ErrScriptExhausted", err)
	}
	if diff := cmp.Diff([]string{"first?", "fixed?", "second?", "third?"}, s.Calls()); diff != "" {
		t.Errorf("Calls mismatch:\n%s", diff)
	}
}

func TestKeyword_Coverage(t *testing.T) {
	k := NewKeyword()
	doc := "Greenleaf LLC cultivates cannabis and runs a licensed dispensary in Oregon."
	ctx := context.Background()

	p, err := k.Resolve(ctx, "Does the client cultivate cannabis?", doc)
	if err != nil {
		t.Fatal(err)
	}
	if p.Answer != Yes || p.Confidence < 0.75 {
		t.Errorf("got %s %.2f, want confident YES", p.Answer, p.Confidence)
	}
	if !strings.Contains(p.Evidence, "cannabis") {
		t.Errorf("evidence should quote the document: %q", p.Evidence)
	}

	p, _ = k.Resolve(ctx, "Does the client trade crude oil futures?", doc)
	if p.Answer != No || p.Confidence >= 0.5 {
		t.Errorf("got %s %.2f, want NO below MEDIUM", p.Answer, p.Confidence)
	}
}

func TestKeyword_ShortDocument(t *testing.T) {
	k := NewKeyword()
	p, err := k.Resolve(context.Background(), "Does the company hold a cannabis license?",
		"The company holds a cannabis license issued by the state of Colorado.")
	if err != nil {
		t.Fatal(err)
	}
	if p.Answer != Yes || p.Confidence < 0.75 {
		t.Errorf("got %s %.2f, want confident YES", p.Answer, p.Confidence)
	}
}

func TestKeyword_Threshold(t *testing.T) {
	k := NewKeyword()
	ctx := context.Background()

	p, _ := k.Resolve(ctx, "Does cannabis revenue exceed 25% of income?", "Cannabis revenue is 40% of total income.")
	if p.Answer != Yes || p.Confidence != 0.9 {
		t.Errorf("got %s %.2f, want YES 0.9", p.Answer, p.Confidence)
	}
	if !strings.Contains(p.Evidence, "40 > 25 = true") {
		t.Errorf("evidence should include the threshold check: %q", p.Evidence)
	}

	p, _ = k.Resolve(ctx, "Does cannabis revenue exceed 25% of income?", "Cannabis revenue is 5% of total income.")
	if p.Answer != No || p.Confidence != 0.8 {
		t.Errorf("got %s %.2f, want NO 0.8", p.Answer, p.Confidence)
	}
}

func TestKeyword_TransactionSignals(t *testing.T) {
	k := NewKeyword()
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		doc      string
		answer   Answer
		evidence []string
	}{
		{
			name:     "structuring",
			question: "Are deposits structured just under the reporting threshold?",
			doc:      "The customer made deposits of $9,800 and $9,900 on consecutive days.",
			answer:   Yes,
			evidence: []string{"possible structuring", "amounts: $9,800, $9,900"},
		},
		{
			name:     "ownership",
			question: "Is ownership held through offshore entities?",
			doc:      "Shares are held by Harbor Capital, a shell company registered in Panama.",
			answer:   Yes,
			evidence: []string{"complex ownership", "companies: Harbor Capital", "locations: Panama"},
		},
		{
			name:     "pattern absent",
			question: "Are deposits structured just under the reporting threshold?",
			doc:      "Payroll of $48,000 is paid by bank transfer.",
			answer:   No,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := k.Resolve(ctx, tc.question, tc.doc)
			if err != nil {
				t.Fatal(err)
			}
			if p.Answer != tc.answer {
				t.Errorf("Answer = %s, want %s", p.Answer, tc.answer)
			}
			if tc.answer == Yes && p.Confidence != 0.8 {
				t.Errorf("Confidence = %.2f, want 0.8", p.Confidence)
			}
			for _, e := range tc.evidence {
				if !strings.Contains(p.Evidence, e) {
					t.Errorf("evidence %q missing %q", p.Evidence, e)
				}
			}
		})
	}
}

func TestFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(FileConfig{Dir: dir, PollInterval: 5 * time.Millisecond, Logger: logging.Discard()})
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			data, err := os.ReadFile(f.RequestPath())
			if err == nil {
				var req FileRequest
				if json.Unmarshal(data, &req) == nil && req.Status == "waiting" {
					// A stale answer first, then the real one.
					_ = writeJSON(f.AnswerPath(), FileAnswer{DispatchID: req.DispatchID + 7, Answer: "NO", Confidence: 1})
					time.Sleep(20 * time.Millisecond)
					_ = writeJSON(f.AnswerPath(), FileAnswer{DispatchID: req.DispatchID, Answer: "yes", Confidence: 0.8, Evidence: "page 3"})
					return
				}
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	p, err := f.Resolve(ctx, "Is the client an art dealer?", "document text")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Proposal{Answer: Yes, Confidence: 0.8, Evidence: "page 3"}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("proposal mismatch:\n%s", diff)
	}

	data, _ := os.ReadFile(f.RequestPath())
	var req FileRequest
	_ = json.Unmarshal(data, &req)
	if req.Status != "done" {
		t.Errorf("request status = %q, want done", req.Status)
	}
}

func TestFile_ContextTimeout(t *testing.T) {
	f, err := NewFile(FileConfig{Dir: t.TempDir(), PollInterval: 5 * time.Millisecond, Logger: logging.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := f.Resolve(ctx, "q", "d"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewFile_RequiresDir(t *testing.T) {
	if _, err := NewFile(FileConfig{}); err == nil {
		t.Fatal("expected error without dir")
	}
}
