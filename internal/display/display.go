// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and markdown reports.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import "strings"

// --- Verdicts ---

var verdicts = map[string]string{
	"HIT":          "Red Flag Hit",
	"NO_HIT":       "No Risk Identified",
	"MISSING_INFO": "Missing Information",
}

// Verdict returns the human-readable name for a verdict code.
// Unknown codes are returned as-is.
func Verdict(code string) string {
	if name, ok := verdicts[code]; ok {
		return name
	}
	return code
}

// VerdictWithCode returns "Red Flag Hit (HIT)" format.
func VerdictWithCode(code string) string {
	if name, ok := verdicts[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Confidence Tiers ---

var tiers = map[string]string{
	"HIGH":   "Confident",
	"MEDIUM": "Uncertain",
	"LOW":    "Insufficient",
}

// Tier returns the human-readable name for a confidence tier.
func Tier(code string) string {
	if name, ok := tiers[code]; ok {
		return name
	}
	return code
}

// --- Traversal ---

// Path joins visited node ids into a readable walk.
// ["Q1", "Q2", "Q5"] -> "Q1 → Q2 → Q5"
func Path(nodes []string) string {
	if len(nodes) == 0 {
		return "-"
	}
	return strings.Join(nodes, " → ")
}

// Scenario humanizes a snake_case scenario id when no name is declared.
// "commodity_trading" -> "Commodity Trading"
func Scenario(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
