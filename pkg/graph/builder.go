package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/lookout/pkg/domain"
)

const (
	// Start is the virtual entry node. It only carries an outgoing edge.
	Start = "__start__"
	// End is the virtual sink. Reaching it finishes an invocation.
	End = "__end__"
)

// NodeFunc is the body of a node. It receives a private copy of the state and
// returns the messages to append to the conversation.
type NodeFunc func(ctx context.Context, state *domain.State) ([]domain.Message, error)

// RouteFunc selects the label of the next edge after a node has run.
type RouteFunc func(ctx context.Context, state *domain.State) (string, error)

// NodeOption configures a node at registration time.
type NodeOption func(*node)

// WithNodeType tags a node for introspection (see domain.NodeType* constants).
func WithNodeType(t string) NodeOption {
	return func(n *node) {
		n.typ = t
	}
}

type node struct {
	id  string
	typ string
	fn  NodeFunc
}

// route is the single outgoing edge of a node.
type route struct {
	to      string            // fixed edge
	cond    RouteFunc         // conditional edge
	targets map[string]string // label -> node id
}

// Builder manages the graph construction.
// Errors are collected and reported by Compile.
type Builder struct {
	nodes  map[string]*node
	order  []string
	routes map[string]route
	errs   []error
}

// NewBuilder creates a new graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:  make(map[string]*node),
		routes: make(map[string]route),
	}
}

// AddNode registers a node. Node ids must be unique and cannot use the
// reserved Start/End names.
func (b *Builder) AddNode(id string, fn NodeFunc, opts ...NodeOption) *Builder {
	switch {
	case id == "":
		b.errs = append(b.errs, errors.New("node id cannot be empty"))
		return b
	case id == Start || id == End:
		b.errs = append(b.errs, fmt.Errorf("node id %q is reserved", id))
		return b
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("node %q has no function", id))
		return b
	}
	if _, exists := b.nodes[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already exists", id))
		return b
	}

	n := &node{id: id, fn: fn}
	for _, opt := range opts {
		opt(n)
	}
	b.nodes[id] = n
	b.order = append(b.order, id)
	return b
}

// AddEdge adds a fixed edge from -> to.
func (b *Builder) AddEdge(from, to string) *Builder {
	return b.setRoute(from, route{to: to})
}

// AddConditionalEdges routes from a node using cond. The label returned by
// cond is looked up in targets. A nil targets map means the label is the
// node id itself.
func (b *Builder) AddConditionalEdges(from string, cond RouteFunc, targets map[string]string) *Builder {
	if cond == nil {
		b.errs = append(b.errs, fmt.Errorf("conditional edge from %q has no condition", from))
		return b
	}
	return b.setRoute(from, route{cond: cond, targets: targets})
}

func (b *Builder) setRoute(from string, r route) *Builder {
	if from == End {
		b.errs = append(b.errs, errors.New("end node cannot have outgoing edges"))
		return b
	}
	if _, exists := b.routes[from]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	b.routes[from] = r
	return b
}

// Compile validates the graph and returns a runnable Graph.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	nodes := make(map[string]*node, len(b.nodes))
	for id, n := range b.nodes {
		nodes[id] = n
	}
	routes := make(map[string]route, len(b.routes))
	for from, r := range b.routes {
		routes[from] = r
	}
	order := make([]string, len(b.order))
	copy(order, b.order)

	return newGraph(nodes, order, routes, opts...), nil
}

func (b *Builder) validate() error {
	errs := append([]error(nil), b.errs...)

	if _, ok := b.routes[Start]; !ok {
		errs = append(errs, errors.New("graph has no entry edge from start"))
	}

	exists := func(id string) bool {
		if id == End {
			return true
		}
		_, ok := b.nodes[id]
		return ok
	}

	froms := make([]string, 0, len(b.routes))
	for from := range b.routes {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	for _, from := range froms {
		r := b.routes[from]
		if from != Start && !exists(from) {
			errs = append(errs, fmt.Errorf("edge from unknown node %q", from))
		}
		if r.cond == nil {
			if r.to == Start || !exists(r.to) {
				errs = append(errs, fmt.Errorf("edge %q -> %q targets unknown node", from, r.to))
			}
			continue
		}
		for label, to := range r.targets {
			if to == Start || !exists(to) {
				errs = append(errs, fmt.Errorf("edge %q -[%s]-> %q targets unknown node", from, label, to))
			}
		}
	}

	for _, id := range b.order {
		if _, ok := b.routes[id]; !ok {
			errs = append(errs, fmt.Errorf("node %q has no outgoing edge", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}
	return nil
}
