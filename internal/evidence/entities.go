package evidence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// EntityKind selects what Entities pulls out of a document.
type EntityKind string

const (
	Amounts   EntityKind = "amounts"
	Companies EntityKind = "companies"
	Locations EntityKind = "locations"
	People    EntityKind = "people"
)

// ParseEntityKind accepts the kind names used by tool callers, including
// the "countries" and "persons" aliases.
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amounts", "amount":
		return Amounts, nil
	case "companies", "company":
		return Companies, nil
	case "locations", "location", "countries", "country":
		return Locations, nil
	case "people", "persons", "person":
		return People, nil
	}
	return "", fmt.Errorf("unknown entity kind: %q", s)
}

var (
	amountRe = regexp.MustCompile(`\$(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?(?:[KM]\b|\s?(?:thousand|million|billion)\b)?`)

	companyRe = regexp.MustCompile(`\b(?:(?:[A-Z][\w'-]*|&)\s+)+(?:(?:LLC|Inc|Corp|Ltd|Co)\b\.?|(?:Corporation|Group|International|Holdings|Partners|Trust|Investments|Capital|Services|Solutions)\b)`)

	personRe = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)
)

// Watched locations in reporting order. Sanctioned jurisdictions first,
// then offshore centres, then the licensed cannabis states.
var watchedLocations = []string{
	"Iran", "North Korea", "Russia", "Syria", "Cuba", "Venezuela",
	"Cayman Islands", "Panama", "Cyprus", "British Virgin Islands",
	"Switzerland", "Luxembourg", "offshore", "overseas",
	"Colorado", "California", "Oregon", "Washington",
}

var leadingArticles = []string{"The ", "A ", "An "}

// Entities returns the distinct entities of the given kind in text, in
// order of first appearance.
func Entities(kind EntityKind, text string) []string {
	var found []string
	switch kind {
	case Amounts:
		found = amountRe.FindAllString(text, -1)
	case Companies:
		for _, m := range companyRe.FindAllString(text, -1) {
			for _, a := range leadingArticles {
				m = strings.TrimPrefix(m, a)
			}
			found = append(found, strings.Join(strings.Fields(m), " "))
		}
	case Locations:
		fold := cases.Fold()
		folded := fold.String(text)
		for _, loc := range watchedLocations {
			if containsWord(folded, fold.String(loc)) {
				found = append(found, loc)
			}
		}
	case People:
		for _, m := range personRe.FindAllString(text, -1) {
			if isPlaceOrCompany(m) {
				continue
			}
			found = append(found, m)
		}
	}
	return dedupe(found)
}

func isPlaceOrCompany(name string) bool {
	for _, loc := range watchedLocations {
		if strings.Contains(name, loc) {
			return true
		}
	}
	if companyRe.MatchString(name + " ") {
		return true
	}
	for _, a := range leadingArticles {
		if strings.HasPrefix(name, a) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for offset := 0; ; {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = end
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// AmountValue parses an amount returned by Entities(Amounts) into dollars.
func AmountValue(amount string) (float64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(amount), "$")
	mult := 1.0
	for _, u := range []struct {
		suffix string
		mult   float64
	}{
		{"thousand", 1e3}, {"million", 1e6}, {"billion", 1e9}, {"K", 1e3}, {"M", 1e6},
	} {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			mult = u.mult
			break
		}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return v * mult, nil
}

// ReportingThreshold is the cash amount that triggers a currency
// transaction report.
const ReportingThreshold = 10000

// CashIntensiveMentions is the number of "cash" mentions above which a
// document describes a cash-intensive business.
const CashIntensiveMentions = 5

var (
	rapidMovementWords = []string{"rapid", "quick", "immediately", "same day", "within days", "layering"}
	ownershipWords     = []string{"shell", "offshore", "intermediary", "front company", "nominee"}
)

// Signals are the transaction patterns found in a document.
type Signals struct {
	// Structuring is set when an amount sits just under the reporting
	// threshold.
	Structuring bool `json:"structuring"`
	// LargeCash is set when cash is mentioned alongside an amount at or
	// above the reporting threshold.
	LargeCash        bool     `json:"large_cash"`
	RapidMovement    bool     `json:"rapid_movement"`
	ComplexOwnership bool     `json:"complex_ownership"`
	CashMentions     int      `json:"cash_mentions"`
	Amounts          []string `json:"amounts,omitempty"`
}

// CashIntensive reports whether cash is mentioned more than
// CashIntensiveMentions times.
func (s Signals) CashIntensive() bool { return s.CashMentions > CashIntensiveMentions }

// Flags lists the raised signals as short descriptions.
func (s Signals) Flags() []string {
	var out []string
	if s.Structuring {
		out = append(out, "possible structuring just under $10,000")
	}
	if s.LargeCash {
		out = append(out, "large cash transactions")
	}
	if s.RapidMovement {
		out = append(out, "rapid fund movement")
	}
	if s.ComplexOwnership {
		out = append(out, "complex ownership or intermediary structures")
	}
	if s.CashIntensive() {
		out = append(out, fmt.Sprintf("cash-intensive business (%d mentions of cash)", s.CashMentions))
	}
	return out
}

// TransactionSignals scans text for transaction patterns associated with
// money laundering.
func TransactionSignals(text string) Signals {
	folded := cases.Fold().String(text)
	s := Signals{
		Amounts:      Entities(Amounts, text),
		CashMentions: strings.Count(folded, "cash"),
	}
	for _, a := range s.Amounts {
		v, err := AmountValue(a)
		if err != nil {
			continue
		}
		if v >= ReportingThreshold*0.9 && v < ReportingThreshold {
			s.Structuring = true
		}
		if v >= ReportingThreshold && s.CashMentions > 0 {
			s.LargeCash = true
		}
	}
	s.RapidMovement = containsAny(folded, rapidMovementWords)
	s.ComplexOwnership = containsAny(folded, ownershipWords)
	return s
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
