package tree

import (
	"fmt"
	"sort"
	"strings"
)

// QuestionNode is one validated yes/no question. An empty NextIfYes or
// NextIfNo is a terminal branch.
type QuestionNode struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	NextIfYes string  `json:"next_if_yes,omitempty"`
	NextIfNo  string  `json:"next_if_no,omitempty"`
	IsRedFlag bool    `json:"is_red_flag"`
	Weight    float64 `json:"weight"`
}

// IsLeaf reports whether both branches are terminal.
func (n QuestionNode) IsLeaf() bool { return n.NextIfYes == "" && n.NextIfNo == "" }

// Next returns the branch taken for the given answer; empty means terminal.
func (n QuestionNode) Next(yes bool) string {
	if yes {
		return n.NextIfYes
	}
	return n.NextIfNo
}

// Graph is an immutable, validated scenario decision tree. Nodes are stored
// in a map keyed by id and referenced by id only. A Graph has no mutating
// methods and is safe for concurrent use.
type Graph struct {
	id          string
	name        string
	description string
	entry       string
	keywords    []string
	nodes       map[string]QuestionNode
}

// Build validates def and returns the frozen graph. Validation checks that
// the entry exists, ids are non-empty, and every non-terminal pointer
// resolves within the same scenario. Any failure is a *GraphError.
func Build(id string, def Definition) (*Graph, error) {
	if len(def.Questions) == 0 {
		return nil, &GraphError{Scenario: id, Err: ErrEmptyGraph}
	}
	nodes := make([]QuestionNode, 0, len(def.Questions))
	for qid, q := range def.Questions {
		weight := DefaultWeight
		if q.Weight != nil {
			weight = *q.Weight
		}
		nodes = append(nodes, QuestionNode{
			ID:        qid,
			Text:      q.Text,
			NextIfYes: deref(q.NextIfYes),
			NextIfNo:  deref(q.NextIfNo),
			IsRedFlag: q.IsRedFlag,
			Weight:    weight,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	g, err := New(id, def.Start, nodes)
	if err != nil {
		return nil, err
	}
	if def.Name != "" {
		g.name = def.Name
	}
	g.description = def.Description
	g.keywords = append([]string(nil), def.Keywords...)
	return g, nil
}

// New assembles a graph from question nodes. Unlike a Definition map, a slice
// can carry duplicate ids, which New rejects with ErrDuplicateNode.
func New(id, entry string, nodes []QuestionNode) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, &GraphError{Scenario: id, Err: ErrEmptyGraph}
	}
	g := &Graph{
		id:    id,
		name:  id,
		entry: entry,
		nodes: make(map[string]QuestionNode, len(nodes)),
	}
	for _, n := range nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			return nil, graphErr(id, "", ErrInvalidNode, "question with empty id")
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, graphErr(id, n.ID, ErrDuplicateNode, "defined more than once")
		}
		if n.Weight < 0 {
			return nil, graphErr(id, n.ID, ErrInvalidNode, "negative weight %v", n.Weight)
		}
		g.nodes[n.ID] = n
	}

	if entry == "" {
		return nil, graphErr(id, "", ErrMissingEntry, "start is empty")
	}
	if _, ok := g.nodes[entry]; !ok {
		return nil, graphErr(id, entry, ErrMissingEntry, "start references unknown question")
	}

	for _, nid := range g.NodeIDs() {
		n := g.nodes[nid]
		for _, ref := range []struct{ field, to string }{
			{"next_if_yes", n.NextIfYes},
			{"next_if_no", n.NextIfNo},
		} {
			if ref.to == "" {
				continue
			}
			if _, ok := g.nodes[ref.to]; !ok {
				return nil, graphErr(id, nid, ErrDanglingReference, "%s references %q", ref.field, ref.to)
			}
		}
	}
	return g, nil
}

func (g *Graph) ID() string          { return g.id }
func (g *Graph) Name() string        { return g.name }
func (g *Graph) Description() string { return g.description }
func (g *Graph) EntryID() string     { return g.entry }
func (g *Graph) Len() int            { return len(g.nodes) }

// Keywords returns a copy of the routing keywords declared by the scenario.
func (g *Graph) Keywords() []string { return append([]string(nil), g.keywords...) }

// Node returns the question with the given id.
func (g *Graph) Node(id string) (QuestionNode, error) {
	n, ok := g.nodes[id]
	if !ok {
		return QuestionNode{}, fmt.Errorf("%w: %q in scenario %q", ErrNodeNotFound, id, g.id)
	}
	return n, nil
}

// NodeIDs returns all question ids, sorted.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RedFlagWeights is the scenario's weighting table: red-flag node id -> weight.
func (g *Graph) RedFlagWeights() map[string]float64 {
	out := make(map[string]float64)
	for id, n := range g.nodes {
		if n.IsRedFlag {
			out[id] = n.Weight
		}
	}
	return out
}

// IsRedFlag reports whether the node exists and is a red flag.
func (g *Graph) IsRedFlag(id string) bool {
	n, ok := g.nodes[id]
	return ok && n.IsRedFlag
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
