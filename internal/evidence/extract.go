// Package evidence holds the deterministic text tools a resolver may consult:
// keyword evidence extraction, numeric threshold checks, entity extraction
// and transaction pattern signals.
package evidence

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultContextChars is the amount of text kept on each side of a match.
const DefaultContextChars = 300

// MaxSnippets caps the snippets returned by Extract.
const MaxSnippets = 5

var stopWords = map[string]bool{
	"is": true, "the": true, "a": true, "an": true, "does": true, "are": true,
	"there": true, "any": true, "have": true, "has": true, "been": true, "to": true,
	"of": true, "in": true, "for": true, "with": true, "this": true, "that": true,
	"client": true, "involved": true, "activity": true, "business": true,
}

var wordRe = regexp.MustCompile(`\w+`)

// Extraction is the result of searching a document for a query.
type Extraction struct {
	Found        bool     `json:"found"`
	Query        string   `json:"query"`
	Snippets     []string `json:"snippets,omitempty"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	// Confidence is the share of query terms found in the text, in [0,1].
	Confidence float64 `json:"confidence"`
}

// Terms returns the significant, case-folded terms of a query in order of
// first appearance.
func Terms(query string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	var terms []string
	for _, w := range wordRe.FindAllString(fold.String(query), -1) {
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// Extract finds the query's terms in text and returns up to MaxSnippets
// surrounding snippets. contextChars <= 0 uses DefaultContextChars.
func Extract(query, text string, contextChars int) Extraction {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}
	out := Extraction{Query: query}
	terms := Terms(query)
	if len(terms) == 0 || text == "" {
		return out
	}

	// Case folding can change byte lengths for some scripts; match against a
	// folded copy only when offsets stay aligned.
	folded := cases.Fold().String(text)
	if len(folded) != len(text) {
		folded = strings.ToLower(text)
		if len(folded) != len(text) {
			folded = text
		}
	}

	matched := make(map[string]bool)
	seen := make(map[string]bool)
	for _, term := range terms {
		offset := 0
		for {
			idx := strings.Index(folded[offset:], term)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(term)
			offset = end
			matched[term] = true
			// Overlapping windows collapse to one snippet; coverage still
			// counts every term.
			snippet := snippetAround(text, start, end, contextChars)
			if snippet == "" || seen[snippet] {
				continue
			}
			seen[snippet] = true
			out.Snippets = append(out.Snippets, snippet)
		}
	}

	for _, term := range terms {
		if matched[term] {
			out.MatchedTerms = append(out.MatchedTerms, term)
		}
	}
	out.Found = len(out.Snippets) > 0
	if len(out.Snippets) > MaxSnippets {
		out.Snippets = out.Snippets[:MaxSnippets]
	}
	out.Confidence = math.Round(float64(len(out.MatchedTerms))/float64(len(terms))*100) / 100
	return out
}

func snippetAround(text string, start, end, contextChars int) string {
	lo := start - contextChars
	if lo < 0 {
		lo = 0
	}
	hi := end + contextChars
	if hi > len(text) {
		hi = len(text)
	}
	s := strings.TrimSpace(text[lo:hi])
	if lo > 0 {
		if sp := strings.Index(s, " "); sp > 0 {
			s = "..." + s[sp+1:]
		}
	}
	if hi < len(text) {
		if sp := strings.LastIndex(s, " "); sp > 0 {
			s = s[:sp] + "..."
		}
	}
	return strings.ToValidUTF8(s, "")
}

// Summary joins snippets into a single evidence string, each line prefixed
// with "- " and truncated to maxLen bytes.
func (e Extraction) Summary(maxLen int) string {
	var b strings.Builder
	for i, s := range e.Snippets {
		if i > 0 {
			b.WriteByte('\n')
		}
		if maxLen > 0 && len(s) > maxLen {
			s = strings.ToValidUTF8(s[:maxLen], "")
		}
		b.WriteString("- ")
		b.WriteString(s)
	}
	return b.String()
}
