package tree

import (
	"fmt"
	"sort"
)

// Registry is the immutable set of scenarios available to evaluations. It is
// constructed once at startup and passed by reference; there is no package
// level registry.
type Registry struct {
	graphs map[string]*Graph
	ids    []string
}

// NewRegistry indexes graphs by id. Duplicate ids are rejected.
func NewRegistry(graphs ...*Graph) (*Registry, error) {
	r := &Registry{graphs: make(map[string]*Graph, len(graphs))}
	for _, g := range graphs {
		if g == nil {
			continue
		}
		if _, dup := r.graphs[g.ID()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateScenario, g.ID())
		}
		r.graphs[g.ID()] = g
		r.ids = append(r.ids, g.ID())
	}
	sort.Strings(r.ids)
	return r, nil
}

// Get returns the scenario graph with the given id.
func (r *Registry) Get(id string) (*Graph, bool) {
	g, ok := r.graphs[id]
	return g, ok
}

// IDs returns scenario ids in sorted order.
func (r *Registry) IDs() []string { return append([]string(nil), r.ids...) }

// Graphs returns all graphs ordered by id.
func (r *Registry) Graphs() []*Graph {
	out := make([]*Graph, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.graphs[id])
	}
	return out
}

// Len is the number of scenarios.
func (r *Registry) Len() int { return len(r.ids) }

// MaxNodes is the node count of the largest scenario. The traversal engine
// derives its default question cap from it.
func (r *Registry) MaxNodes() int {
	max := 0
	for _, g := range r.graphs {
		if g.Len() > max {
			max = g.Len()
		}
	}
	return max
}
