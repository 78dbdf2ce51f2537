package evidence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Comparison names a threshold operator.
type Comparison string

const (
	GreaterThan    Comparison = "greater_than"
	LessThan       Comparison = "less_than"
	GreaterOrEqual Comparison = "greater_or_equal"
	LessOrEqual    Comparison = "less_or_equal"
)

var comparisons = map[Comparison]struct {
	fn     func(v, l float64) bool
	symbol string
}{
	GreaterThan:    {func(v, l float64) bool { return v > l }, ">"},
	LessThan:       {func(v, l float64) bool { return v < l }, "<"},
	GreaterOrEqual: {func(v, l float64) bool { return v >= l }, ">="},
	LessOrEqual:    {func(v, l float64) bool { return v <= l }, "<="},
}

// Threshold is the outcome of a numeric check.
type Threshold struct {
	Value       float64    `json:"value"`
	Limit       float64    `json:"limit"`
	Comparison  Comparison `json:"comparison"`
	Exceeds     bool       `json:"exceeds_threshold"`
	Explanation string     `json:"explanation"`
}

// CheckThreshold compares value against limit without involving the
// resolver's own arithmetic.
func CheckThreshold(value, limit float64, cmp Comparison) (Threshold, error) {
	c, ok := comparisons[cmp]
	if !ok {
		return Threshold{}, fmt.Errorf("invalid comparison: %q", cmp)
	}
	exceeds := c.fn(value, limit)
	return Threshold{
		Value:       value,
		Limit:       limit,
		Comparison:  cmp,
		Exceeds:     exceeds,
		Explanation: fmt.Sprintf("%g %s %g = %t", value, c.symbol, limit, exceeds),
	}, nil
}

var percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b|per cent\b)`)

// Percentages returns every percentage value mentioned in text, in order.
func Percentages(text string) []float64 {
	var out []float64
	for _, m := range percentRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

var limitRe = regexp.MustCompile(`(?i)(more than|over|exceed(?:s|ing)?|at least|less than|under|below|at most)\s+(\d+(?:\.\d+)?)\s*(?:%|percent\b)`)

// QuestionThreshold detects a percentage threshold phrased in a question,
// e.g. "more than 25%", and returns the limit and the comparison it implies.
func QuestionThreshold(question string) (float64, Comparison, bool) {
	m := limitRe.FindStringSubmatch(question)
	if m == nil {
		return 0, "", false
	}
	limit, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, "", false
	}
	switch op := normalizeOp(m[1]); op {
	case "more than", "over", "exceed":
		return limit, GreaterThan, true
	case "at least":
		return limit, GreaterOrEqual, true
	case "less than", "under", "below":
		return limit, LessThan, true
	default:
		return limit, LessOrEqual, true
	}
}

func normalizeOp(op string) string {
	op = strings.ToLower(op)
	if strings.HasPrefix(op, "exceed") {
		return "exceed"
	}
	return op
}
