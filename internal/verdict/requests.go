package verdict

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// RequestRule maps a keyword found in an unanswerable question to the
// documents an analyst should ask the client for.
type RequestRule struct {
	Keyword   string `yaml:"keyword" json:"keyword"`
	Documents string `yaml:"documents" json:"documents"`
}

// Vocabulary is an ordered list of request rules. Earlier rules are listed
// first in the recommended action.
type Vocabulary []RequestRule

// DefaultVocabulary covers the vocabulary of the bundled scenarios.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Keyword: "income", Documents: "income statements, tax returns"},
		{Keyword: "revenue", Documents: "audited financial statements, revenue breakdown"},
		{Keyword: "executive", Documents: "corporate filings, org charts"},
		{Keyword: "board", Documents: "board minutes, director register"},
		{Keyword: "ownership", Documents: "shareholder register, beneficial ownership declaration"},
		{Keyword: "owner", Documents: "shareholder register, beneficial ownership declaration"},
		{Keyword: "license", Documents: "state licenses, regulator correspondence"},
		{Keyword: "licence", Documents: "state licenses, regulator correspondence"},
		{Keyword: "auction", Documents: "auction records, provenance certificates"},
		{Keyword: "trading", Documents: "trade confirmations, counterparty list"},
		{Keyword: "storage", Documents: "warehouse receipts, storage agreements"},
		{Keyword: "cannabis", Documents: "business registration, product descriptions"},
	}
}

// Request returns the document requests for one question. A question that
// matches no rule gets the generic fallback.
func (v Vocabulary) Request(question string) []string {
	fold := cases.Fold()
	folded := fold.String(question)
	var out []string
	seen := make(map[string]bool)
	for _, r := range v {
		if r.Keyword == "" || !strings.Contains(folded, fold.String(r.Keyword)) {
			continue
		}
		if !seen[r.Documents] {
			seen[r.Documents] = true
			out = append(out, r.Documents)
		}
	}
	if len(out) == 0 {
		return []string{fmt.Sprintf("provide supporting documentation for: %s", question)}
	}
	return out
}

// Validate rejects rules without a keyword or documents.
func (v Vocabulary) Validate() error {
	for i, r := range v {
		if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(r.Documents) == "" {
			return fmt.Errorf("request rule %d: keyword and documents are required", i)
		}
	}
	return nil
}
