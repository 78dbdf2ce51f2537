// Package verdict reduces a finished traversal to a compliance result.
//
// Rules apply in a fixed priority order: missing information first, then
// red flags, then a clean result. Uncertain answers annotate the reason and
// recommended action but never change the verdict.
package verdict

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"siapcheck/internal/audit"
	"siapcheck/internal/engine"
	"siapcheck/internal/resolve"
	"siapcheck/pkg/tree"
)

// Verdict is the outcome category of one document.
type Verdict string

const (
	Hit         Verdict = "HIT"
	NoHit       Verdict = "NO_HIT"
	MissingInfo Verdict = "MISSING_INFO"
)

const (
	reasonClean    = "no compliance risks identified"
	reasonUnrouted = "no matching compliance scenario identified"
	actionNone     = "no action required"
)

// ErrNotStopped is returned when aggregating a traversal that has not
// reached STOPPED.
var ErrNotStopped = errors.New("verdict: traversal not stopped")

// Result is the per-document record handed to persistence and output.
type Result struct {
	DocumentID        string                `json:"document_id"`
	ScenarioID        string                `json:"scenario_id"`
	ScenarioName      string                `json:"scenario_name,omitempty"`
	Verdict           Verdict               `json:"verdict"`
	RiskScore         float64               `json:"risk_score"`
	Reason            string                `json:"reason"`
	Trace             []engine.AnswerRecord `json:"trace"`
	MissingNodeIDs    []string              `json:"missing_node_ids"`
	UncertainNodeIDs  []string              `json:"uncertain_node_ids"`
	RecommendedAction string                `json:"recommended_action"`
	EarlyTerminated   bool                  `json:"early_terminated"`
	Unrouted          bool                  `json:"unrouted"`
	EvaluatedAt       time.Time             `json:"evaluated_at"`
	Digest            string                `json:"digest,omitempty"`
}

// Aggregate computes the result for st, which must be STOPPED. g is the
// graph st was walked against and may be nil only for unrouted documents.
// EvaluatedAt and Digest are left for the caller to stamp.
func Aggregate(st *engine.State, g *tree.Graph, vocab Vocabulary) (Result, error) {
	if st == nil {
		return Result{}, errors.New("verdict: nil state")
	}
	if st.Phase != engine.PhaseStopped {
		return Result{}, fmt.Errorf("%w: document %q is %s", ErrNotStopped, st.DocumentID, st.Phase)
	}

	r := Result{
		DocumentID:       st.DocumentID,
		ScenarioID:       st.ScenarioID,
		ScenarioName:     st.ScenarioName,
		Trace:            st.Trace(),
		MissingNodeIDs:   nonNil(st.MissingNodeIDs()),
		UncertainNodeIDs: nonNil(st.UncertainNodeIDs()),
		EarlyTerminated:  st.EarlyTerminated,
		Unrouted:         st.Unrouted,
	}
	if r.Trace == nil {
		r.Trace = []engine.AnswerRecord{}
	}

	if st.Unrouted {
		r.Verdict, r.Reason, r.RecommendedAction = NoHit, reasonUnrouted, actionNone
		return r, nil
	}
	if g == nil || g.ID() != st.ScenarioID {
		return Result{}, fmt.Errorf("verdict: graph does not match scenario %q of document %q", st.ScenarioID, st.DocumentID)
	}

	switch {
	case len(r.MissingNodeIDs) > 0:
		missingInfo(&r, vocab)
	default:
		if !redFlags(&r, g) {
			r.Verdict, r.Reason, r.RecommendedAction = NoHit, reasonClean, actionNone
		}
	}

	if n := len(r.UncertainNodeIDs); n > 0 {
		ids := strings.Join(r.UncertainNodeIDs, ", ")
		r.Reason += fmt.Sprintf("; %d uncertain answer(s): %s", n, ids)
		review := "review flagged questions: " + ids
		if r.RecommendedAction == actionNone {
			r.RecommendedAction = review
		} else {
			r.RecommendedAction += "; " + review
		}
	}
	return r, nil
}

func missingInfo(r *Result, vocab Vocabulary) {
	questions := make(map[string]string, len(r.Trace))
	for _, rec := range r.Trace {
		questions[rec.NodeID] = rec.Question
	}

	first := r.MissingNodeIDs[0]
	r.Verdict = MissingInfo
	r.Reason = fmt.Sprintf("insufficient information to answer %s: %q", first, questions[first])

	var requests []string
	seen := make(map[string]bool)
	for _, id := range r.MissingNodeIDs {
		for _, req := range vocab.Request(questions[id]) {
			if !seen[req] {
				seen[req] = true
				requests = append(requests, req)
			}
		}
	}
	r.RecommendedAction = "request " + strings.Join(requests, "; ")
}

// redFlags fills a HIT result and reports whether any red flag was answered
// YES. Each red-flag node contributes its weight once.
func redFlags(r *Result, g *tree.Graph) bool {
	weights := g.RedFlagWeights()
	var (
		triggered []string
		seen      = make(map[string]bool)
		sum       float64
	)
	for _, rec := range r.Trace {
		w, ok := weights[rec.NodeID]
		if !ok || rec.Answer != resolve.Yes || seen[rec.NodeID] {
			continue
		}
		if len(triggered) == 0 {
			r.Reason = fmt.Sprintf("red flag %s answered YES: %q", rec.NodeID, rec.Question)
		}
		seen[rec.NodeID] = true
		triggered = append(triggered, rec.NodeID)
		sum += w
	}
	if len(triggered) == 0 {
		return false
	}
	if len(triggered) > 1 {
		r.Reason += fmt.Sprintf(" (%d red flags triggered)", len(triggered))
	}
	r.Verdict = Hit
	r.RiskScore = clamp(sum)
	r.RecommendedAction = "escalate to compliance review: " + strings.Join(triggered, ", ")
	return true
}

func clamp(v float64) float64 {
	v = math.Round(v*1e4) / 1e4
	return math.Max(0, math.Min(1, v))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ComputeDigest returns the content id of r. The digest and evaluation
// time are excluded so re-evaluating a document reproduces the digest.
func (r Result) ComputeDigest() (string, error) {
	r.Digest = ""
	r.EvaluatedAt = time.Time{}
	return audit.Digest(r)
}

// Seal stamps the evaluation time and digest.
func (r *Result) Seal(at time.Time) error {
	d, err := r.ComputeDigest()
	if err != nil {
		return err
	}
	r.EvaluatedAt = at.UTC()
	r.Digest = d
	return nil
}
