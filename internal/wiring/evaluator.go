// Package wiring assembles the evaluation pipeline:
// classify → scenario lookup → traversal → aggregation → digest.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"siapcheck/internal/batch"
	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/route"
	"siapcheck/internal/verdict"
	"siapcheck/pkg/tree"
)

// Evaluator runs single documents end to end. All fields are read-only
// after construction, so one Evaluator serves a whole batch.
type Evaluator struct {
	Registry   *tree.Registry
	Classifier route.Classifier
	Engine     *engine.Engine
	Requests   verdict.Vocabulary
	Clock      func() time.Time
	Logger     *slog.Logger
}

// New builds an evaluator routing with the keyword classifier. When
// maxQuestions is zero the loop guard is twice the largest scenario.
func New(reg *tree.Registry, a engine.Answerer, maxQuestions int, obs engine.Observer) *Evaluator {
	if maxQuestions <= 0 {
		maxQuestions = 2 * reg.MaxNodes()
	}
	return &Evaluator{
		Registry:   reg,
		Classifier: route.NewKeyword(reg),
		Engine:     engine.New(a, maxQuestions, obs),
		Requests:   verdict.DefaultVocabulary(),
		Clock:      time.Now,
		Logger:     logging.New("evaluate"),
	}
}

// Evaluate classifies doc and evaluates it against the chosen scenario.
// A document matching no scenario yields an unrouted NO_HIT result.
func (e *Evaluator) Evaluate(ctx context.Context, doc engine.Document) (verdict.Result, error) {
	rt, err := e.Classifier.Classify(ctx, doc.Text)
	if err != nil {
		return verdict.Result{}, fmt.Errorf("classify %q: %w", doc.ID, err)
	}
	var g *tree.Graph
	if rt.Routed() {
		var ok bool
		if g, ok = e.Registry.Get(rt.ScenarioID); !ok {
			return verdict.Result{}, fmt.Errorf("classify %q: unknown scenario %q", doc.ID, rt.ScenarioID)
		}
	}
	e.logger().Debug("document routed",
		"document", doc.ID, "scenario", rt.ScenarioID, "confidence", rt.Confidence, "matched", rt.Matched)
	return e.run(ctx, doc, g)
}

// EvaluateScenario skips routing and walks the named scenario.
func (e *Evaluator) EvaluateScenario(ctx context.Context, doc engine.Document, scenarioID string) (verdict.Result, error) {
	g, ok := e.Registry.Get(scenarioID)
	if !ok {
		return verdict.Result{}, fmt.Errorf("unknown scenario %q", scenarioID)
	}
	return e.run(ctx, doc, g)
}

func (e *Evaluator) run(ctx context.Context, doc engine.Document, g *tree.Graph) (verdict.Result, error) {
	st, err := e.Engine.Run(ctx, doc, g)
	if err != nil {
		return verdict.Result{}, err
	}
	res, err := verdict.Aggregate(st, g, e.Requests)
	if err != nil {
		return verdict.Result{}, err
	}
	if err := res.Seal(e.now()); err != nil {
		return verdict.Result{}, err
	}
	e.logger().Info("document evaluated",
		"document", res.DocumentID, "scenario", res.ScenarioID,
		"verdict", res.Verdict, "risk", res.RiskScore, "questions", len(res.Trace))
	return res, nil
}

// BatchFunc adapts Evaluate for the batch runner. A non-empty scenarioID
// pins every document to that scenario.
func (e *Evaluator) BatchFunc(scenarioID string) batch.EvalFunc {
	if scenarioID == "" {
		return e.Evaluate
	}
	return func(ctx context.Context, doc engine.Document) (verdict.Result, error) {
		return e.EvaluateScenario(ctx, doc, scenarioID)
	}
}

func (e *Evaluator) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
