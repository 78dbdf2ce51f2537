package tree

import "strings"

// DefaultWeight is the risk weight of a red-flag question that does not set one.
const DefaultWeight = 0.3

// DefaultRedFlagKeywords mark a question as a red flag when a scenario does not
// declare any red flags itself.
var DefaultRedFlagKeywords = []string{
	"illegal",
	"more than 10%",
	"more than 25%",
	"executive",
	"board of directors",
	"direct",
}

// Definition is the externally authored form of a scenario, as read from
// YAML or JSON. It is validated and frozen by Build.
type Definition struct {
	Name        string                        `yaml:"name" json:"name"`
	Description string                        `yaml:"description" json:"description"`
	Start       string                        `yaml:"start" json:"start"`
	Keywords    []string                      `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Questions   map[string]QuestionDefinition `yaml:"questions" json:"questions"`
}

// QuestionDefinition is one question of a Definition. A nil pointer means the
// branch is terminal. A nil Weight falls back to DefaultWeight.
type QuestionDefinition struct {
	Text      string   `yaml:"text" json:"text"`
	NextIfYes *string  `yaml:"next_if_yes" json:"next_if_yes"`
	NextIfNo  *string  `yaml:"next_if_no" json:"next_if_no"`
	IsRedFlag bool     `yaml:"is_red_flag,omitempty" json:"is_red_flag,omitempty"`
	Weight    *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// HasRedFlags reports whether any question is explicitly marked as a red flag.
func (d Definition) HasRedFlags() bool {
	for _, q := range d.Questions {
		if q.IsRedFlag {
			return true
		}
	}
	return false
}

// InferRedFlags returns a copy of d where every question whose text contains
// one of keywords is marked as a red flag. Definitions that already declare
// red flags are returned unchanged.
func (d Definition) InferRedFlags(keywords []string) Definition {
	if d.HasRedFlags() || len(keywords) == 0 {
		return d
	}
	out := d
	out.Questions = make(map[string]QuestionDefinition, len(d.Questions))
	for id, q := range d.Questions {
		lower := strings.ToLower(q.Text)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				q.IsRedFlag = true
				break
			}
		}
		out.Questions[id] = q
	}
	return out
}

// Ref is a convenience for building definitions in code.
func Ref(id string) *string { return &id }
