package domain

// NodeType constants describe the role of a node in the graph.
const (
	// NodeTypeStart is the virtual entry point.
	NodeTypeStart = "start"
	// NodeTypeEnd is the virtual sink.
	NodeTypeEnd = "end"
	// NodeTypeModel calls the language model.
	NodeTypeModel = "model"
	// NodeTypeTool executes side-effects requested by the model.
	NodeTypeTool = "tool"
)

// Node is a static description of a graph node used for introspection.
type Node struct {
	ID          string       `json:"id" yaml:"id"`
	Type        string       `json:"type" yaml:"type"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
}

// Transition defines an edge from one node to another.
type Transition struct {
	ToNodeID string `json:"to_node_id" yaml:"to,omitempty"`

	// Condition labels conditional edges (e.g. "tool_calls").
	// If empty, it's an "always" transition.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}
