package engine

import (
	"siapcheck/internal/resolve"
)

// Phase is the traversal state machine position.
type Phase string

const (
	PhaseRouted      Phase = "ROUTED"
	PhaseQuestioning Phase = "QUESTIONING"
	PhaseStopped     Phase = "STOPPED"
)

// Document is one unit of input text.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Path string `json:"path,omitempty"`
}

// AnswerRecord is one answered question. Records are appended in traversal
// order and never modified afterwards.
type AnswerRecord struct {
	NodeID     string         `json:"node_id"`
	Question   string         `json:"question_text"`
	Answer     resolve.Answer `json:"answer"`
	Evidence   string         `json:"evidence"`
	Confidence float64        `json:"confidence"`
	Tier       resolve.Tier   `json:"tier"`
	Error      string         `json:"error,omitempty"`
}

// State is the working record of one document's evaluation. It is owned by
// a single Run and read by the aggregator once Phase is STOPPED.
type State struct {
	DocumentID      string
	DocumentText    string
	ScenarioID      string
	ScenarioName    string
	CurrentNode     string
	Phase           Phase
	Unrouted        bool
	EarlyTerminated bool
	Steps           int

	trace     []AnswerRecord
	uncertain map[string]bool
	missing   map[string]bool
}

func newState(doc Document) *State {
	return &State{
		DocumentID:   doc.ID,
		DocumentText: doc.Text,
		Phase:        PhaseRouted,
		uncertain:    make(map[string]bool),
		missing:      make(map[string]bool),
	}
}

func (s *State) appendRecord(r AnswerRecord) {
	s.trace = append(s.trace, r)
	s.Steps++
}

func (s *State) markUncertain(id string) { s.uncertain[id] = true }
func (s *State) markMissing(id string)   { s.missing[id] = true }

// Trace returns a copy of the answer records in traversal order.
func (s *State) Trace() []AnswerRecord {
	return append([]AnswerRecord(nil), s.trace...)
}

// MissingNodeIDs lists unanswerable nodes in trace order.
func (s *State) MissingNodeIDs() []string { return s.inTraceOrder(s.missing) }

// UncertainNodeIDs lists MEDIUM-tier nodes in trace order.
func (s *State) UncertainNodeIDs() []string { return s.inTraceOrder(s.uncertain) }

func (s *State) inTraceOrder(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, r := range s.trace {
		if set[r.NodeID] && !seen[r.NodeID] {
			seen[r.NodeID] = true
			out = append(out, r.NodeID)
		}
	}
	return out
}
