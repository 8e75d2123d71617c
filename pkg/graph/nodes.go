package graph

import (
	"sort"

	"github.com/aretw0/lookout/pkg/domain"
)

// Nodes returns a static description of the graph, including the virtual
// Start and End nodes, in registration order.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(g.order)+2)
	out = append(out, domain.Node{
		ID:          Start,
		Type:        domain.NodeTypeStart,
		Transitions: g.transitions(Start),
	})
	for _, id := range g.order {
		out = append(out, domain.Node{
			ID:          id,
			Type:        g.nodes[id].typ,
			Transitions: g.transitions(id),
		})
	}
	out = append(out, domain.Node{ID: End, Type: domain.NodeTypeEnd})
	return out
}

func (g *Graph) transitions(from string) []domain.Transition {
	r, ok := g.routes[from]
	if !ok {
		return nil
	}
	if r.cond == nil {
		return []domain.Transition{{ToNodeID: r.to}}
	}

	labels := make([]string, 0, len(r.targets))
	for label := range r.targets {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]domain.Transition, 0, len(labels))
	for _, label := range labels {
		out = append(out, domain.Transition{ToNodeID: r.targets[label], Condition: label})
	}
	return out
}
