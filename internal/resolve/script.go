package resolve

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by Script when it has no proposal left.
var ErrScriptExhausted = errors.New("resolve: script exhausted")

// Step is one scripted resolver reply. A non-nil Err is returned instead of
// the proposal.
type Step struct {
	Proposal
	Err error
}

// Script is a deterministic resolver for tests and dry runs. Replies keyed
// by question text take precedence; otherwise steps are consumed in order.
// Safe for concurrent use.
type Script struct {
	mu         sync.Mutex
	steps      []Step
	byQuestion map[string]Step
	calls      []string
}

// NewScript returns a Script that replays steps in order.
func NewScript(steps ...Step) *Script {
	return &Script{steps: steps, byQuestion: make(map[string]Step)}
}

// On registers a fixed reply for a question, independent of call order.
func (s *Script) On(question string, step Step) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byQuestion[question] = step
	return s
}

// Reply is shorthand for a successful Step.
func Reply(a Answer, confidence float64, evidence string) Step {
	return Step{Proposal: Proposal{Answer: a, Confidence: confidence, Evidence: evidence}}
}

// Fail is shorthand for a failing Step.
func Fail(err error) Step { return Step{Err: err} }

func (s *Script) Resolve(ctx context.Context, question, _ string) (Proposal, error) {
	if err := ctx.Err(); err != nil {
		return Proposal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, question)

	step, ok := s.byQuestion[question]
	if !ok {
		if len(s.steps) == 0 {
			return Proposal{}, ErrScriptExhausted
		}
		step = s.steps[0]
		s.steps = s.steps[1:]
	}
	if step.Err != nil {
		return Proposal{}, step.Err
	}
	return step.Proposal, nil
}

// Calls returns the questions asked so far, in order.
func (s *Script) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
