package mermaid_test

import (
	"strings"
	"testing"

	"github.com/aretw0/lookout/internal/presentation/mermaid"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []domain.Node
		overlay  *mermaid.Overlay
		contains []string
	}{
		{
			name: "Virtual Nodes",
			nodes: []domain.Node{
				{ID: "__start__", Type: domain.NodeTypeStart, Transitions: []domain.Transition{{ToNodeID: "agent"}}},
				{ID: "__end__", Type: domain.NodeTypeEnd},
			},
			contains: []string{
				"start((\"__start__\"))",
				"end((\"__end__\"))",
				"start --> agent",
			},
		},
		{
			name: "Node Shapes",
			nodes: []domain.Node{
				{ID: "tools", Type: domain.NodeTypeTool},
				{ID: "agent", Type: domain.NodeTypeModel},
				{ID: "plain"},
			},
			contains: []string{
				"tools[[\"tools\"]]",
				"agent([\"agent\"])",
				"plain[\"plain\"]",
			},
		},
		{
			name: "Conditional Edges",
			nodes: []domain.Node{
				{ID: "agent", Type: domain.NodeTypeModel, Transitions: []domain.Transition{
					{ToNodeID: "tools", Condition: "tool_calls"},
					{ToNodeID: "__end__", Condition: "say \"done\""},
				}},
			},
			contains: []string{
				"agent -. \"tool_calls\" .-> tools",
				"agent -. \"say 'done'\" .-> end",
			},
		},
		{
			name:  "Overlay",
			nodes: []domain.Node{{ID: "agent"}, {ID: "tools"}},
			overlay: &mermaid.Overlay{
				VisitedNodes: []string{"agent", "tools", "agent"},
				CurrentNode:  "agent",
			},
			contains: []string{
				"class agent visited;",
				"class tools visited;",
				"class agent current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mermaid.Generate(tt.nodes, tt.overlay)
			assert.True(t, strings.HasPrefix(out, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestGenerate_OverlayDeduplicates(t *testing.T) {
	out := mermaid.Generate(nil, &mermaid.Overlay{VisitedNodes: []string{"agent", "agent"}})
	assert.Equal(t, 1, strings.Count(out, "class agent visited;"))
}
