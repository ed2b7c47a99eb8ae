package pipeline

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// ValidateOrder checks that the step list is executable as declared:
// names are unique, every Requires entry names a known step, each
// requirement appears earlier in the list, and the dependency graph is
// acyclic. The engine runs steps strictly in list order; the graph is a
// consistency check on that order, not a scheduler.
func ValidateOrder(steps []Step) error {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if _, dup := index[s.Name]; dup {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		index[s.Name] = i
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, s := range steps {
		if err := g.AddVertex(s.Name); err != nil {
			return fmt.Errorf("step graph: add %q: %w", s.Name, err)
		}
	}
	for i, s := range steps {
		for _, req := range s.Requires {
			j, ok := index[req]
			if !ok {
				return fmt.Errorf("step %q requires unknown step %q", s.Name, req)
			}
			if j >= i {
				return fmt.Errorf("step %q requires %q which runs later", s.Name, req)
			}
			if err := g.AddEdge(req, s.Name); err != nil {
				return fmt.Errorf("step graph: edge %q -> %q: %w", req, s.Name, err)
			}
		}
	}

	if _, err := graph.TopologicalSort(g); err != nil {
		return fmt.Errorf("step graph: %w", err)
	}
	return nil
}
