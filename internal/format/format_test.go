package format_test

import (
	"strings"
	"testing"
	"time"

	"siapcheck/internal/batch"
	"siapcheck/internal/engine"
	"siapcheck/internal/format"
	"siapcheck/internal/resolve"
	"siapcheck/internal/verdict"
	"siapcheck/pkg/tree"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Document", "Verdict", "Risk")
	tb.Row("doc-1", "HIT", 0.5)
	out := tb.String()

	// Headers are upper-cased in ASCII mode.
	for _, want := range []string{"DOCUMENT", "doc-1", "0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_BasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Node", "Answer")
	tb.Row("Q1", "YES")
	out := tb.String()
	if !strings.Contains(out, "| Node") || !strings.Contains(out, "---") {
		t.Errorf("expected markdown table:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]format.Mode{"": format.ASCII, "table": format.ASCII, "md": format.Markdown, "Markdown": format.Markdown} {
		got, err := format.ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := format.ParseMode("html"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func sample() verdict.Result {
	return verdict.Result{
		DocumentID:   "greenleaf",
		ScenarioID:   "cannabis_business",
		ScenarioName: "Cannabis Business",
		Verdict:      verdict.MissingInfo,
		Reason:       `insufficient information to answer Q3: "income?"`,
		Trace: []engine.AnswerRecord{
			{NodeID: "Q1", Question: "Is the client in cannabis?", Answer: resolve.Yes, Confidence: 0.9, Tier: resolve.High, Evidence: "cannabis dispensary"},
			{NodeID: "Q3", Question: "income?", Answer: resolve.Unknown, Tier: resolve.Low, Error: "resolver timed out"},
		},
		MissingNodeIDs:    []string{"Q3"},
		RecommendedAction: "request income statements, tax returns",
		Digest:            "bafkreiexample",
	}
}

func TestResultsAndTrace(t *testing.T) {
	r := sample()
	out := format.Results(format.ASCII, []verdict.Result{r})
	for _, want := range []string{"greenleaf", "MISSING_INFO", "0 HIT / 1 MISSING"} {
		if !strings.Contains(out, want) {
			t.Errorf("Results missing %q:\n%s", want, out)
		}
	}

	out = format.Trace(format.Markdown, r)
	for _, want := range []string{"| Q1", "error: resolver timed out", "Action:   request income statements", "Digest:   bafkreiexample", "Verdict:  Missing Information (MISSING_INFO)", "Path:     Q1 → Q3", "Insufficient"} {
		if !strings.Contains(out, want) {
			t.Errorf("Trace missing %q:\n%s", want, out)
		}
	}
}

func TestBatch(t *testing.T) {
	r := sample()
	rep := batch.Report{
		Entries: []batch.Entry{
			{DocumentID: "greenleaf", Result: &r, Elapsed: 1500 * time.Millisecond},
			{DocumentID: "broken", Error: "batch: evaluation panicked"},
		},
		Abandoned: []string{"late"},
	}
	out := format.Batch(format.ASCII, rep)
	for _, want := range []string{"FAILED", "ABANDONED", "3 DOCUMENTS", "1 FAILED", "1s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Batch missing %q:\n%s", want, out)
		}
	}
}

func TestScenario(t *testing.T) {
	w := 0.5
	g, err := tree.Build("s", tree.Definition{Name: "Sample", Start: "Q1", Questions: map[string]tree.QuestionDefinition{
		"Q1": {Text: "first?", NextIfYes: tree.Ref("Q2")},
		"Q2": {Text: "second?", IsRedFlag: true, Weight: &w},
	}})
	if err != nil {
		t.Fatal(err)
	}
	out := format.Scenario(format.ASCII, g)
	for _, want := range []string{"Q1 *", "second?", "0.50", "✓"} {
		if !strings.Contains(out, want) {
			t.Errorf("Scenario missing %q:\n%s", want, out)
		}
	}
	reg, _ := tree.NewRegistry(g)
	if out := format.Scenarios(format.ASCII, reg); !strings.Contains(out, "Sample") {
		t.Errorf("Scenarios missing name:\n%s", out)
	}
}

func TestHelpers(t *testing.T) {
	if got := format.FmtDuration(90 * time.Second); got != "1m 30s" {
		t.Errorf("FmtDuration = %q", got)
	}
	if got := format.FmtDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("FmtDuration = %q", got)
	}
	if got := format.Truncate("héllo world", 8); got != "héllo..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := format.FmtScore(0.456); got != "0.46" {
		t.Errorf("FmtScore = %q", got)
	}
	if format.BoolMark(true) != "✓" || format.BoolMark(false) != "✗" {
		t.Error("BoolMark")
	}
}
