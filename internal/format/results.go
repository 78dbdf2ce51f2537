package format

import (
	"fmt"
	"strings"

	"siapcheck/internal/batch"
	"siapcheck/internal/display"
	"siapcheck/internal/store"
	"siapcheck/internal/verdict"
	"siapcheck/pkg/tree"
)

// Results renders one row per result.
func Results(m Mode, results []verdict.Result) string {
	tb := NewTable(m)
	tb.Header("Document", "Scenario", "Verdict", "Risk", "Questions", "Reason")
	counts := map[verdict.Verdict]int{}
	for _, r := range results {
		scenario := r.ScenarioID
		if r.Unrouted {
			scenario = "-"
		}
		counts[r.Verdict]++
		tb.Row(r.DocumentID, scenario, r.Verdict, FmtScore(r.RiskScore), len(r.Trace), Truncate(r.Reason, 70))
	}
	tb.Footer("", "", fmt.Sprintf("%d HIT / %d MISSING", counts[verdict.Hit], counts[verdict.MissingInfo]), "", "", "")
	tb.Columns(
		ColumnConfig{Number: 4, Align: AlignRight},
		ColumnConfig{Number: 5, Align: AlignRight},
		ColumnConfig{Number: 6, MaxWidth: 70},
	)
	return tb.String()
}

// Trace renders the answered questions of one result followed by its
// verdict, reason and recommended action.
func Trace(m Mode, r verdict.Result) string {
	tb := NewTable(m)
	tb.Title(fmt.Sprintf("%s: %s (risk %s)", r.DocumentID, r.Verdict, FmtScore(r.RiskScore)))
	tb.Header("#", "Node", "Question", "Answer", "Confidence", "Tier", "Evidence")
	for i, rec := range r.Trace {
		ev := rec.Evidence
		if rec.Error != "" {
			ev = "error: " + rec.Error
		}
		tb.Row(i+1, rec.NodeID, Truncate(rec.Question, 60), rec.Answer, FmtScore(rec.Confidence), display.Tier(string(rec.Tier)), Truncate(ev, 60))
	}
	tb.Columns(
		ColumnConfig{Number: 3, MaxWidth: 60},
		ColumnConfig{Number: 5, Align: AlignRight},
		ColumnConfig{Number: 7, MaxWidth: 60},
	)

	var b strings.Builder
	b.WriteString(tb.String())
	b.WriteString("\n")
	path := make([]string, len(r.Trace))
	for i, rec := range r.Trace {
		path[i] = rec.NodeID
	}
	fmt.Fprintf(&b, "Verdict:  %s\n", display.VerdictWithCode(string(r.Verdict)))
	fmt.Fprintf(&b, "Scenario: %s\n", orDash(r.ScenarioName, display.Scenario(r.ScenarioID)))
	fmt.Fprintf(&b, "Path:     %s\n", display.Path(path))
	fmt.Fprintf(&b, "Reason:   %s\n", r.Reason)
	fmt.Fprintf(&b, "Action:   %s\n", r.RecommendedAction)
	if r.Digest != "" {
		fmt.Fprintf(&b, "Digest:   %s\n", r.Digest)
	}
	return b.String()
}

// Batch renders a batch report including failed and abandoned documents.
func Batch(m Mode, rep batch.Report) string {
	tb := NewTable(m)
	tb.Header("Document", "Verdict", "Risk", "Elapsed", "Detail")
	for _, e := range rep.Entries {
		if e.Failed() {
			tb.Row(e.DocumentID, "FAILED", "", FmtDuration(e.Elapsed), Truncate(e.Error, 70))
			continue
		}
		tb.Row(e.DocumentID, e.Result.Verdict, FmtScore(e.Result.RiskScore), FmtDuration(e.Elapsed), Truncate(e.Result.Reason, 70))
	}
	for _, id := range rep.Abandoned {
		tb.Row(id, "ABANDONED", "", "", "cancelled before completion")
	}
	tb.Footer(fmt.Sprintf("%d documents", len(rep.Entries)+len(rep.Abandoned)), fmt.Sprintf("%d failed", rep.Failed()), "", "", "")
	tb.Columns(ColumnConfig{Number: 3, Align: AlignRight}, ColumnConfig{Number: 4, Align: AlignRight})
	return tb.String()
}

// Scenarios lists the registry.
func Scenarios(m Mode, reg *tree.Registry) string {
	tb := NewTable(m)
	tb.Header("ID", "Name", "Questions", "Red flags", "Entry")
	for _, g := range reg.Graphs() {
		tb.Row(g.ID(), g.Name(), g.Len(), len(g.RedFlagWeights()), g.EntryID())
	}
	tb.Columns(ColumnConfig{Number: 3, Align: AlignRight}, ColumnConfig{Number: 4, Align: AlignRight})
	return tb.String()
}

// Scenario renders every question of one graph.
func Scenario(m Mode, g *tree.Graph) string {
	tb := NewTable(m)
	tb.Title(fmt.Sprintf("%s (%s)", g.Name(), g.ID()))
	tb.Header("Node", "Question", "Yes", "No", "Red flag", "Weight")
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		weight := ""
		if n.IsRedFlag {
			weight = FmtScore(n.Weight)
		}
		node := id
		if id == g.EntryID() {
			node += " *"
		}
		tb.Row(node, n.Text, orDash(n.NextIfYes), orDash(n.NextIfNo), BoolMark(n.IsRedFlag), weight)
	}
	tb.Columns(ColumnConfig{Number: 2, MaxWidth: 70}, ColumnConfig{Number: 6, Align: AlignRight})
	return tb.String()
}

// Runs lists stored runs.
func Runs(m Mode, runs []store.Run) string {
	tb := NewTable(m)
	tb.Header("Run", "Label", "Documents", "Started")
	for _, r := range runs {
		tb.Row(r.ID, r.Label, r.Documents, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return tb.String()
}

func orDash(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return "-"
}
