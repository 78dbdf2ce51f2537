// Package resolve wraps the external answer resolver. The Adapter turns
// whatever a Resolver proposes (or fails to propose) into a tri-state
// answer with a confidence tier, and never returns an error to the caller.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Answer is the tri-state outcome of one question.
type Answer string

const (
	Yes     Answer = "YES"
	No      Answer = "NO"
	Unknown Answer = "UNKNOWN"
)

// ParseAnswer accepts YES/NO in any case, plus true/false.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "Y", "TRUE":
		return Yes, nil
	case "NO", "N", "FALSE":
		return No, nil
	case "UNKNOWN":
		return Unknown, nil
	}
	return "", fmt.Errorf("%w: answer %q", ErrMalformed, s)
}

// Proposal is what a resolver returns for one question.
type Proposal struct {
	Answer     Answer  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// Resolver is the external reasoning collaborator: an LLM, a rules engine,
// a human. Implementations may block and must honour ctx.
type Resolver interface {
	Resolve(ctx context.Context, question, document string) (Proposal, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, question, document string) (Proposal, error)

func (f ResolverFunc) Resolve(ctx context.Context, question, document string) (Proposal, error) {
	return f(ctx, question, document)
}

var (
	// ErrMalformed marks a proposal that is not a YES/NO answer with a
	// confidence in [0,1].
	ErrMalformed = errors.New("resolve: malformed resolver output")

	// ErrTimeout marks a resolver call that exceeded the per-question deadline.
	ErrTimeout = errors.New("resolve: resolver timed out")

	// ErrPanic marks a resolver that panicked.
	ErrPanic = errors.New("resolve: resolver panicked")
)

// validate checks that p is a usable YES/NO proposal.
func (p Proposal) validate() error {
	if p.Answer != Yes && p.Answer != No {
		return fmt.Errorf("%w: answer %q", ErrMalformed, p.Answer)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v", ErrMalformed, p.Confidence)
	}
	return nil
}
