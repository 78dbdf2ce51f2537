package scenarios

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"siapcheck/pkg/tree"
)

func TestLoadEmbedded(t *testing.T) {
	scs, err := LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"art_dealing", "cannabis_business", "commodity_trading"}
	var got []string
	for _, s := range scs {
		got = append(got, s.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(want, EmbeddedIDs()); diff != "" {
		t.Errorf("EmbeddedIDs mismatch:\n%s", diff)
	}
}

func TestBuild_Embedded(t *testing.T) {
	reg, err := LoadRegistry("", tree.DefaultRedFlagKeywords)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}
	g, _ := reg.Get("cannabis_business")
	if g.Name() != "Cannabis Business" || g.EntryID() != "Q1" {
		t.Errorf("unexpected cannabis graph %s/%s", g.Name(), g.EntryID())
	}
	if w := g.RedFlagWeights()["Q5"]; w != 0.6 {
		t.Errorf("Q5 weight = %v, want 0.6", w)
	}

	// Red flags are inferred from the question text when none are declared.
	c, _ := reg.Get("commodity_trading")
	if diff := cmp.Diff(map[string]float64{"Q2": 0.3, "Q3": 0.3}, c.RedFlagWeights()); diff != "" {
		t.Errorf("inferred red flags mismatch:\n%s", diff)
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"name":"B","start":"Q1","questions":{"Q1":{"text":"b?","next_if_yes":null,"next_if_no":null,"is_red_flag":true,"weight":0.7}}}`)
	writeFile(t, dir, "a.yml", "name: A\nstart: Q1\nquestions:\n  Q1:\n    text: a?\n")
	writeFile(t, dir, "notes.txt", "ignored")

	scs, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(scs) != 2 || scs[0].ID != "a" || scs[1].ID != "b" {
		t.Fatalf("unexpected scenarios %+v", scs)
	}
	reg, err := Build(scs, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := reg.Get("b")
	if !b.IsRedFlag("Q1") || b.RedFlagWeights()["Q1"] != 0.7 {
		t.Errorf("JSON red flag lost: %v", b.RedFlagWeights())
	}
}

func TestLoadDir_Errors(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("empty dir must fail")
	}

	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "name: X\nstart: Q1\nquestionz: {}\n")
	if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "typo") {
		t.Errorf("unknown field must fail naming the scenario, got %v", err)
	}
}

func TestBuild_ReportsEveryBadScenario(t *testing.T) {
	scs := []Scenario{
		{ID: "dangling", Source: "dangling.yaml", Definition: tree.Definition{Start: "Q1", Questions: map[string]tree.QuestionDefinition{
			"Q1": {Text: "q?", NextIfYes: tree.Ref("Q9")},
		}}},
		{ID: "noentry", Source: "noentry.yaml", Definition: tree.Definition{Start: "Q7", Questions: map[string]tree.QuestionDefinition{
			"Q1": {Text: "q?"},
		}}},
		{ID: "fine", Source: "fine.yaml", Definition: tree.Definition{Start: "Q1", Questions: map[string]tree.QuestionDefinition{
			"Q1": {Text: "q?"},
		}}},
	}
	_, err := Build(scs, nil)
	if !errors.Is(err, tree.ErrDanglingReference) || !errors.Is(err, tree.ErrMissingEntry) {
		t.Fatalf("err = %v, want both graph errors", err)
	}
	var ge *tree.GraphError
	if !errors.As(err, &ge) {
		t.Error("errors must unwrap to *tree.GraphError")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse("x", nil); err == nil {
		t.Error("empty input must fail")
	}
}
