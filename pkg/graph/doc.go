/*
Package graph provides a small, checkpointed state-graph engine.

A graph is a set of named nodes connected by edges. Each node receives the
current conversation state and returns the messages it wants appended. After
a node runs, its outgoing edge (either fixed or conditional) selects the next
node, until the virtual End node is reached.

Every node execution is checkpointed to a ports.StateStore keyed by thread id,
so a later Invoke on the same thread continues from the persisted
conversation. Checkpoints are append-only: a node cannot rewrite messages that
were already stored.

Example usage:

	b := graph.NewBuilder()
	b.AddNode("echo", func(ctx context.Context, s *domain.State) ([]domain.Message, error) {
		last, _ := s.LastMessage()
		return []domain.Message{domain.NewAssistantMessage(last.Content)}, nil
	})
	b.AddEdge(graph.Start, "echo")
	b.AddEdge("echo", graph.End)

	g, err := b.Compile(graph.WithStore(memory.NewStore()))
	if err != nil {
		return err
	}
	state, err := g.Invoke(ctx, "1", domain.NewUserMessage("hello"))
*/
package graph
