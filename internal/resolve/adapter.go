package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"siapcheck/internal/logging"
)

// Resolution is the normalized answer to one question. Err carries the text
// of a recovered resolver failure; it is informational only.
type Resolution struct {
	Answer     Answer        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Tier       Tier          `json:"tier"`
	Evidence   string        `json:"evidence,omitempty"`
	Err        string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// Adapter shields the traversal engine from resolver error modes.
type Adapter struct {
	Resolver Resolver
	Policy   TierPolicy
	// Timeout bounds a single Resolve call. Zero means no per-question deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewAdapter returns an adapter with the default tier policy.
func NewAdapter(r Resolver, timeout time.Duration) *Adapter {
	return &Adapter{
		Resolver: r,
		Policy:   DefaultTierPolicy(),
		Timeout:  timeout,
		Logger:   logging.New("resolve"),
	}
}

type callResult struct {
	p   Proposal
	err error
}

// Resolve asks the resolver one question. It never fails: errors, timeouts,
// panics and malformed output become UNKNOWN at LOW tier, and a LOW tier
// answer is always UNKNOWN whatever the resolver proposed.
func (a *Adapter) Resolve(ctx context.Context, question, document string) Resolution {
	start := time.Now()
	p, err := a.call(ctx, question, document)
	elapsed := time.Since(start)

	if err == nil {
		err = p.validate()
	}
	if err != nil {
		a.logger().Warn("resolver failed, answer degraded to UNKNOWN",
			"question", truncate(question, 80), "error", err, "elapsed", elapsed)
		return Resolution{
			Answer:   Unknown,
			Tier:     Low,
			Evidence: p.Evidence,
			Err:      err.Error(),
			Elapsed:  elapsed,
		}
	}

	tier := a.policy().Classify(p.Confidence)
	res := Resolution{
		Answer:     p.Answer,
		Confidence: p.Confidence,
		Tier:       tier,
		Evidence:   p.Evidence,
		Elapsed:    elapsed,
	}
	if tier == Low {
		res.Answer = Unknown
	}
	return res
}

// call runs the resolver on its own goroutine so a resolver that ignores
// ctx still cannot hold the caller past the deadline.
func (a *Adapter) call(ctx context.Context, question, document string) (Proposal, error) {
	if a.Resolver == nil {
		return Proposal{}, errors.New("resolve: no resolver configured")
	}
	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		p, err := a.Resolver.Resolve(callCtx, question, document)
		done <- callResult{p: p, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return r.p, fmt.Errorf("%w after %s", ErrTimeout, a.Timeout)
		}
		return r.p, r.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return Proposal{}, ctx.Err()
		}
		return Proposal{}, fmt.Errorf("%w after %s", ErrTimeout, a.Timeout)
	}
}

func (a *Adapter) policy() TierPolicy {
	if a.Policy == (TierPolicy{}) {
		return DefaultTierPolicy()
	}
	return a.Policy
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
