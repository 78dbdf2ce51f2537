package resolve

import (
	"context"
	"fmt"
	"strings"

	"siapcheck/internal/evidence"
)

// Keyword is a rule-backed resolver built on the evidence tools. It answers
// from term coverage and, for questions phrasing a percentage threshold,
// from the percentages found in the matched snippets. Questions about
// structuring, cash, fund movement or ownership also consult the
// document's transaction signals.
type Keyword struct {
	ContextChars int
	// SnippetLen truncates each evidence snippet in the returned Evidence.
	SnippetLen int
}

// NewKeyword returns a Keyword resolver with default snippet sizes.
func NewKeyword() *Keyword {
	return &Keyword{ContextChars: evidence.DefaultContextChars, SnippetLen: 300}
}

func (k *Keyword) Resolve(ctx context.Context, question, document string) (Proposal, error) {
	if err := ctx.Err(); err != nil {
		return Proposal{}, err
	}
	ext := evidence.Extract(question, document, k.ContextChars)
	summary := ext.Summary(k.SnippetLen)

	if limit, cmp, ok := evidence.QuestionThreshold(question); ok && ext.Found {
		if p, decided := k.threshold(ext, limit, cmp, summary); decided {
			return p, nil
		}
	}

	if p, ok := k.signals(question, document, summary); ok {
		return p, nil
	}

	switch {
	case ext.Found && ext.Confidence >= 0.5:
		return Proposal{Answer: Yes, Confidence: 0.5 + ext.Confidence*0.4, Evidence: summary}, nil
	case ext.Found:
		// A few stray terms are weak evidence of absence.
		return Proposal{Answer: No, Confidence: 0.6, Evidence: summary}, nil
	default:
		return Proposal{Answer: No, Confidence: 0.4}, nil
	}
}

func (k *Keyword) threshold(ext evidence.Extraction, limit float64, cmp evidence.Comparison, summary string) (Proposal, bool) {
	var values []float64
	for _, s := range ext.Snippets {
		values = append(values, evidence.Percentages(s)...)
	}
	if len(values) == 0 {
		return Proposal{}, false
	}
	var checks []string
	for _, v := range values {
		th, err := evidence.CheckThreshold(v, limit, cmp)
		if err != nil {
			return Proposal{}, false
		}
		checks = append(checks, th.Explanation)
		if th.Exceeds {
			return Proposal{
				Answer:     Yes,
				Confidence: 0.9,
				Evidence:   fmt.Sprintf("%s\nthreshold: %s", summary, th.Explanation),
			}, true
		}
	}
	return Proposal{
		Answer:     No,
		Confidence: 0.8,
		Evidence:   fmt.Sprintf("%s\nthreshold: %s", summary, strings.Join(checks, "; ")),
	}, true
}

var signalTopics = []struct {
	words  []string
	raised func(evidence.Signals) bool
	// entities are appended to the evidence when the topic answers YES.
	entities []evidence.EntityKind
}{
	{
		words:    []string{"structur", "just under", "10,000"},
		raised:   func(s evidence.Signals) bool { return s.Structuring },
		entities: []evidence.EntityKind{evidence.Amounts},
	},
	{
		words:    []string{"cash"},
		raised:   func(s evidence.Signals) bool { return s.LargeCash || s.CashIntensive() },
		entities: []evidence.EntityKind{evidence.Amounts},
	},
	{
		words:  []string{"rapid", "layering", "quickly"},
		raised: func(s evidence.Signals) bool { return s.RapidMovement },
	},
	{
		words:    []string{"shell", "offshore", "intermediar", "front compan", "nominee", "ownership"},
		raised:   func(s evidence.Signals) bool { return s.ComplexOwnership },
		entities: []evidence.EntityKind{evidence.Companies, evidence.Locations},
	},
}

// signals answers YES when the question names a transaction pattern the
// document raises. A pattern the document does not raise leaves the
// question to term coverage.
func (k *Keyword) signals(question, document, summary string) (Proposal, bool) {
	q := strings.ToLower(question)
	var sig *evidence.Signals
	for _, topic := range signalTopics {
		if !containsAny(q, topic.words) {
			continue
		}
		if sig == nil {
			s := evidence.TransactionSignals(document)
			sig = &s
		}
		if !topic.raised(*sig) {
			continue
		}
		lines := []string{"signals: " + strings.Join(sig.Flags(), "; ")}
		for _, kind := range topic.entities {
			if found := evidence.Entities(kind, document); len(found) > 0 {
				lines = append(lines, fmt.Sprintf("%s: %s", kind, strings.Join(found, ", ")))
			}
		}
		if summary != "" {
			lines = append([]string{summary}, lines...)
		}
		return Proposal{Answer: Yes, Confidence: 0.8, Evidence: strings.Join(lines, "\n")}, true
	}
	return Proposal{}, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
