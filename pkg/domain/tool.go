package domain

// ToolCall represents a request from the model to the host to perform a side-effect.
// Compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID      string         `json:"id" yaml:"id" mapstructure:"id"`                         // Unique ID for this specific call (from the LLM or generated)
	Name    string         `json:"name" yaml:"name" mapstructure:"name"`                   // Function name to call
	Args    map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"` // Decoded arguments
	RawArgs string         `json:"raw_args,omitempty" yaml:"raw_args,omitempty" mapstructure:"raw_args"`
}

// ToolResult represents the output of a side-effect returned by the Host.
type ToolResult struct {
	ID       string `json:"id"` // Must match the ToolCall.ID
	Name     string `json:"name,omitempty"`
	Result   any    `json:"result,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
	IsDenied bool   `json:"is_denied,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Tool defines metadata about a tool available to the model.
// Parameters is a JSON Schema object.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}
