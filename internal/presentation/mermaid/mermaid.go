package mermaid

import (
	"fmt"
	"strings"

	"github.com/aretw0/lookout/pkg/domain"
)

// Overlay contains thread data to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// Generate produces a Mermaid flowchart from a list of nodes.
// It applies semantic styling:
// - Start/End: ((Circle))
// - Tool: [[Subroutine]]
// - Model: ([Stadium])
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func Generate(nodes []domain.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeStart, domain.NodeTypeEnd:
			opener, closer = "((", "))"
		case domain.NodeTypeTool:
			opener, closer = "[[", "]]"
		case domain.NodeTypeModel:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer)

		for _, t := range node.Transitions {
			arrow := "-->"
			if t.Condition != "" {
				// Escape double quotes in condition for Mermaid label
				cond := strings.ReplaceAll(t.Condition, "\"", "'")
				arrow = fmt.Sprintf("-. \"%s\" .->", cond)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeID(t.ToNodeID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// sanitizeID maps node ids to Mermaid-safe identifiers. Leading and trailing
// underscores are trimmed so the virtual "__start__" becomes "start".
func sanitizeID(id string) string {
	s := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
	if trimmed := strings.Trim(s, "_"); trimmed != "" {
		return trimmed
	}
	return s
}
