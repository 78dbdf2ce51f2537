// Package route picks the compliance scenario a document should be
// evaluated against.
package route

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"siapcheck/pkg/tree"
)

// Route is a classification outcome. An empty ScenarioID means the document
// matched no scenario.
type Route struct {
	ScenarioID   string   `json:"scenario_id"`
	ScenarioName string   `json:"scenario_name,omitempty"`
	Confidence   float64  `json:"confidence"`
	Matched      []string `json:"matched_keywords"`
}

// Routed reports whether a scenario was selected.
func (r Route) Routed() bool { return r.ScenarioID != "" }

// Classifier maps document text to a scenario.
type Classifier interface {
	Classify(ctx context.Context, text string) (Route, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (Route, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Route, error) {
	return f(ctx, text)
}

// patterns groups the routing vocabulary recognised in scenario names and
// descriptions when a scenario declares no keywords of its own.
var patterns = [][]string{
	{"cannabis", "marijuana", "hemp", "thc", "cbd", "dispensary"},
	{"art", "antique", "antiquity", "auction", "gallery", "fine art", "artefact"},
	{"commodity", "trading", "energy", "metals", "agricultural", "oil", "gas"},
}

// fullConfidence is the keyword count at which a route is certain.
const fullConfidence = 3

// ScenarioKeywords returns the routing keywords of g: the declared ones, or
// vocabulary found in its name and description plus name words longer than
// three characters.
func ScenarioKeywords(g *tree.Graph) []string {
	if kw := g.Keywords(); len(kw) > 0 {
		return dedupe(kw)
	}
	fold := cases.Fold()
	text := fold.String(g.Name() + " " + g.Description())
	var kw []string
	for _, group := range patterns {
		for _, p := range group {
			if containsWord(text, p) {
				kw = append(kw, p)
			}
		}
	}
	for _, w := range strings.Fields(fold.String(g.Name())) {
		if utf8.RuneCountInString(w) > 3 {
			kw = append(kw, w)
		}
	}
	return dedupe(kw)
}

type entry struct {
	id, name string
	keywords []string
	// folded holds keywords case-folded, index-aligned with keywords.
	folded []string
}

// Keyword scores each scenario by the number of its keywords present in the
// document. The highest score wins; ties go to the smallest scenario id.
type Keyword struct {
	entries []entry
}

// NewKeyword indexes every scenario in reg.
func NewKeyword(reg *tree.Registry) *Keyword {
	k := &Keyword{}
	fold := cases.Fold()
	for _, g := range reg.Graphs() {
		e := entry{id: g.ID(), name: g.Name(), keywords: ScenarioKeywords(g)}
		for _, kw := range e.keywords {
			e.folded = append(e.folded, fold.String(kw))
		}
		k.entries = append(k.entries, e)
	}
	sort.Slice(k.entries, func(i, j int) bool { return k.entries[i].id < k.entries[j].id })
	return k
}

func (k *Keyword) Classify(ctx context.Context, text string) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}
	folded := cases.Fold().String(text)

	var best Route
	for _, e := range k.entries {
		var matched []string
		for i, kw := range e.keywords {
			if containsWord(folded, e.folded[i]) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > len(best.Matched) {
			best = Route{ScenarioID: e.id, ScenarioName: e.name, Matched: matched}
		}
	}
	if !best.Routed() {
		return Route{Matched: []string{}}, nil
	}
	best.Confidence = math.Round(math.Min(float64(len(best.Matched))/fullConfidence, 1)*100) / 100
	return best, nil
}

// Fixed routes every document to one scenario with full confidence.
func Fixed(reg *tree.Registry, id string) (Classifier, error) {
	g, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("route: unknown scenario %q", id)
	}
	r := Route{ScenarioID: g.ID(), ScenarioName: g.Name(), Confidence: 1, Matched: []string{}}
	return ClassifierFunc(func(ctx context.Context, _ string) (Route, error) {
		return r, ctx.Err()
	}), nil
}

// containsWord reports whether word occurs in text starting at a word
// boundary, so "art" matches "artwork" but not "party".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i <= len(text)-len(word); {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 {
			return true
		}
		r, _ := utf8.DecodeLastRuneInString(text[:at])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
		i = at + 1
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
