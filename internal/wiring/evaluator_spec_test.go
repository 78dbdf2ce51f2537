package wiring

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"siapcheck/internal/batch"
	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/resolve"
	"siapcheck/internal/scenarios"
	"siapcheck/internal/verdict"
	"siapcheck/pkg/tree"
)

const greenleaf = "Greenleaf Holdings LLC operates a licensed cannabis dispensary and cultivation facility in Oregon."

var fixedTime = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func scriptedEvaluator(steps ...resolve.Step) (*Evaluator, *resolve.Script) {
	reg, err := scenarios.LoadRegistry("", tree.DefaultRedFlagKeywords)
	gomega.Expect(err).To(gomega.Succeed())
	s := resolve.NewScript(steps...)
	a := resolve.NewAdapter(s, time.Second)
	a.Logger = logging.Discard()
	ev := New(reg, a, 0, nil)
	ev.Logger = logging.Discard()
	ev.Clock = func() time.Time { return fixedTime }
	return ev, s
}

var _ = ginkgo.Describe("Evaluator", func() {
	ctx := context.Background()
	doc := engine.Document{ID: "greenleaf", Text: greenleaf}

	ginkgo.It("routes a cannabis document and sums every triggered red flag", func() {
		ev, _ := scriptedEvaluator(
			resolve.Reply(resolve.Yes, 0.9, "cannabis dispensary"),
			resolve.Reply(resolve.Yes, 0.9, "licensed"),
			resolve.Reply(resolve.Yes, 0.85, "most income"),
			resolve.Reply(resolve.Yes, 0.8, "CEO"),
		)
		res, err := ev.Evaluate(ctx, doc)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.ScenarioID).To(gomega.Equal("cannabis_business"))
		gomega.Expect(res.Verdict).To(gomega.Equal(verdict.Hit))
		gomega.Expect(res.RiskScore).To(gomega.BeNumerically("~", 0.7, 1e-9))
		gomega.Expect(res.Trace).To(gomega.HaveLen(4))
		gomega.Expect(res.Reason).To(gomega.HavePrefix("red flag Q3"))
		gomega.Expect(res.EvaluatedAt).To(gomega.Equal(fixedTime))
		gomega.Expect(res.Digest).To(gomega.HavePrefix("bafkrei"))
	})

	ginkgo.It("follows the NO branch to the illegality question", func() {
		ev, _ := scriptedEvaluator(
			resolve.Reply(resolve.Yes, 0.9, ""),
			resolve.Reply(resolve.No, 0.9, ""),
			resolve.Reply(resolve.Yes, 0.95, ""),
		)
		res, err := ev.Evaluate(ctx, doc)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.Verdict).To(gomega.Equal(verdict.Hit))
		gomega.Expect(res.RiskScore).To(gomega.Equal(0.6))
		gomega.Expect(res.Trace[2].NodeID).To(gomega.Equal("Q5"))
	})

	ginkgo.It("stops at the first unanswerable question and asks for documents", func() {
		ev, s := scriptedEvaluator(
			resolve.Reply(resolve.Yes, 0.9, ""),
			resolve.Reply(resolve.Yes, 0.3, ""),
			resolve.Reply(resolve.Yes, 0.9, ""),
		)
		res, err := ev.Evaluate(ctx, doc)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.Verdict).To(gomega.Equal(verdict.MissingInfo))
		gomega.Expect(res.MissingNodeIDs).To(gomega.Equal([]string{"Q2"}))
		gomega.Expect(res.EarlyTerminated).To(gomega.BeTrue())
		gomega.Expect(res.RecommendedAction).To(gomega.ContainSubstring("state licenses, regulator correspondence"))
		gomega.Expect(s.Calls()).To(gomega.HaveLen(2))
	})

	ginkgo.It("returns an unrouted clean result without asking anything", func() {
		ev, s := scriptedEvaluator()
		res, err := ev.Evaluate(ctx, engine.Document{ID: "weather", Text: "Quarterly weather summary for the coastal region."})
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.Unrouted).To(gomega.BeTrue())
		gomega.Expect(res.Verdict).To(gomega.Equal(verdict.NoHit))
		gomega.Expect(res.Reason).To(gomega.Equal("no matching compliance scenario identified"))
		gomega.Expect(s.Calls()).To(gomega.BeEmpty())
	})

	ginkgo.It("pins a scenario and rejects unknown ones", func() {
		ev, _ := scriptedEvaluator(resolve.Reply(resolve.No, 0.9, ""))
		res, err := ev.EvaluateScenario(ctx, doc, "art_dealing")
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.ScenarioID).To(gomega.Equal("art_dealing"))
		gomega.Expect(res.Verdict).To(gomega.Equal(verdict.NoHit))

		_, err = ev.EvaluateScenario(ctx, doc, "crypto")
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("evaluates a batch with the keyword resolver", func() {
		reg, err := scenarios.LoadRegistry("", tree.DefaultRedFlagKeywords)
		gomega.Expect(err).To(gomega.Succeed())
		a := resolve.NewAdapter(resolve.NewKeyword(), time.Second)
		a.Logger = logging.Discard()
		ev := New(reg, a, 0, nil)
		ev.Logger = logging.Discard()

		docs := []engine.Document{
			doc,
			{ID: "gallery", Text: "An art gallery in Geneva sells antique sculptures at auction."},
			{ID: "weather", Text: "Sunny with light winds."},
		}
		r := batch.New(ev.BatchFunc(""), 2)
		r.Logger = logging.Discard()
		rep, err := r.Run(ctx, docs)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(rep.Entries).To(gomega.HaveLen(3))
		gomega.Expect(rep.Failed()).To(gomega.BeZero())

		by := rep.ByDocument()
		gomega.Expect(by["greenleaf"].Result.ScenarioID).To(gomega.Equal("cannabis_business"))
		gomega.Expect(by["gallery"].Result.ScenarioID).To(gomega.Equal("art_dealing"))
		gomega.Expect(by["weather"].Result.Unrouted).To(gomega.BeTrue())
		for _, e := range rep.Entries {
			gomega.Expect(e.Result.Trace).NotTo(gomega.BeNil())
			gomega.Expect(e.Result.Digest).NotTo(gomega.BeEmpty())
		}
	})
})
