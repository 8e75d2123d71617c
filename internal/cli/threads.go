package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/lookout/internal/presentation/mermaid"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
)

// PrintThreads lists the stored thread ids, one per line.
func PrintThreads(ctx context.Context, w io.Writer, backend *Backend) error {
	ids, err := backend.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list threads: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No stored threads.")
		return nil
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// PrintHistory writes the messages of a thread as a transcript, or the raw
// checkpoint when asJSON is set.
func PrintHistory(ctx context.Context, w io.Writer, backend *Backend, threadID string, asJSON bool) error {
	state, err := backend.Sessions.Load(ctx, threadID)
	if err != nil {
		return fmt.Errorf("load thread %q: %w", threadID, err)
	}

	if asJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	for _, msg := range state.Messages {
		fmt.Fprintln(w, formatMessage(msg))
	}
	return nil
}

func formatMessage(msg domain.Message) string {
	switch msg.Role {
	case domain.RoleAssistant:
		if msg.HasToolCalls() {
			names := make([]string, 0, len(msg.ToolCalls))
			for _, c := range msg.ToolCalls {
				args, _ := json.Marshal(c.Args)
				names = append(names, fmt.Sprintf("%s(%s)", c.Name, args))
			}
			return "Agent -> " + strings.Join(names, ", ")
		}
		return "Agent: " + msg.Content
	case domain.RoleTool:
		return fmt.Sprintf("Tool[%s]: %s", msg.Name, truncate(msg.Content, 200))
	case domain.RoleSystem:
		return "System: " + msg.Content
	default:
		return "you: " + msg.Content
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// PrintGraph writes the mermaid flowchart of g, highlighting the path taken by
// threadID when it is not empty.
func PrintGraph(ctx context.Context, w io.Writer, g *graph.Graph, threadID string) error {
	var overlay *mermaid.Overlay
	if threadID != "" {
		state, err := g.GetState(ctx, threadID)
		if err != nil {
			return fmt.Errorf("load thread %q: %w", threadID, err)
		}
		overlay = &mermaid.Overlay{VisitedNodes: state.History, CurrentNode: state.CurrentNodeID}
	}
	_, err := io.WriteString(w, mermaid.Generate(g.Nodes(), overlay))
	return err
}
