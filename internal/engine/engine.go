// Package engine walks a scenario decision tree for one document, asking
// one question at a time and branching on the tiered answer.
package engine

import (
	"context"
	"fmt"

	"siapcheck/internal/resolve"
	"siapcheck/pkg/tree"
)

// Answerer is the normalized resolver the engine depends on. It must not
// fail; *resolve.Adapter satisfies it.
type Answerer interface {
	Resolve(ctx context.Context, question, document string) resolve.Resolution
}

// Engine runs traversals. It holds no per-document state and may be shared
// across goroutines as long as its Answerer and Observer are.
type Engine struct {
	Answerer Answerer
	// MaxQuestions caps questions per document. Zero means twice the node
	// count of the graph being walked.
	MaxQuestions int
	Observer     Observer
}

// New returns an engine using the given answerer.
func New(a Answerer, maxQuestions int, obs Observer) *Engine {
	return &Engine{Answerer: a, MaxQuestions: maxQuestions, Observer: obs}
}

// Run evaluates doc against g and returns the STOPPED state. A nil graph
// means routing found no scenario; the state is returned unrouted with an
// empty trace and no resolver calls.
//
// Run returns an error only for a broken graph (traversal limit, unknown
// node) or when ctx ends, in which case the document is abandoned and no
// state is returned.
func (e *Engine) Run(ctx context.Context, doc Document, g *tree.Graph) (*State, error) {
	st := newState(doc)
	if g == nil {
		st.Unrouted = true
		st.Phase = PhaseStopped
		emit(e.Observer, Event{Type: EventComplete, DocumentID: doc.ID})
		return st, nil
	}
	if e.Answerer == nil {
		return nil, fmt.Errorf("engine: no answerer configured")
	}

	st.ScenarioID = g.ID()
	st.ScenarioName = g.Name()
	st.CurrentNode = g.EntryID()
	st.Phase = PhaseQuestioning
	limit := e.limit(g)

	base := Event{DocumentID: doc.ID, ScenarioID: g.ID()}
	fail := func(err error) (*State, error) {
		ev := base
		ev.Type, ev.Node, ev.Error = EventError, st.CurrentNode, err
		emit(e.Observer, ev)
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if st.Steps >= limit {
			return fail(&tree.GraphError{
				Scenario: g.ID(),
				Node:     st.CurrentNode,
				Detail:   fmt.Sprintf("more than %d questions for document %q", limit, doc.ID),
				Err:      tree.ErrTraversalLimit,
			})
		}

		node, err := g.Node(st.CurrentNode)
		if err != nil {
			return fail(fmt.Errorf("traversal: %w", err))
		}

		ev := base
		ev.Type, ev.Node = EventQuestion, node.ID
		emit(e.Observer, ev)

		res := e.Answerer.Resolve(ctx, node.Text, st.DocumentText)
		if err := ctx.Err(); err != nil {
			// The answer may be a cancellation artefact; never record it.
			return fail(err)
		}

		st.appendRecord(AnswerRecord{
			NodeID:     node.ID,
			Question:   node.Text,
			Answer:     res.Answer,
			Evidence:   res.Evidence,
			Confidence: res.Confidence,
			Tier:       res.Tier,
			Error:      res.Err,
		})
		ev = base
		ev.Type, ev.Node, ev.Answer, ev.Tier, ev.Elapsed = EventAnswer, node.ID, res.Answer, res.Tier, res.Elapsed
		emit(e.Observer, ev)

		switch res.Tier {
		case resolve.Low:
			st.markMissing(node.ID)
			st.EarlyTerminated = true
			st.Phase = PhaseStopped
			ev = base
			ev.Type, ev.Node = EventEarlyStop, node.ID
			emit(e.Observer, ev)
			e.complete(base, st)
			return st, nil
		case resolve.Medium:
			st.markUncertain(node.ID)
		}

		next := node.Next(res.Answer == resolve.Yes)
		if next == "" {
			st.Phase = PhaseStopped
			e.complete(base, st)
			return st, nil
		}

		ev = base
		ev.Type, ev.Node, ev.Next = EventTransition, node.ID, next
		emit(e.Observer, ev)
		st.CurrentNode = next
	}
}

func (e *Engine) complete(base Event, st *State) {
	base.Type, base.Node = EventComplete, st.CurrentNode
	emit(e.Observer, base)
}

func (e *Engine) limit(g *tree.Graph) int {
	if e.MaxQuestions > 0 {
		return e.MaxQuestions
	}
	return 2 * g.Len()
}
