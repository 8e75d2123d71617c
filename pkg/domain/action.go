package domain

// ActionRequest represents a side-effect that the loop requests the host IO to perform.
type ActionRequest struct {
	Type    string // e.g., "RENDER_CONTENT"
	Payload any    // The data needed to perform the action
}

// Standard Action Types
const (
	// ActionRenderContent requests the host to display the agent reply.
	// Payload: string (the content)
	ActionRenderContent = "RENDER_CONTENT"

	// ActionRequestInput requests the host to collect input from the operator.
	// Payload: InputRequest
	ActionRequestInput = "REQUEST_INPUT"

	// ActionSystemMessage represents a meta-message from the system (log, status, etc).
	// Payload: string (the message)
	ActionSystemMessage = "SYSTEM_MESSAGE"
)

// InputRequest describes the prompt shown when input is needed.
type InputRequest struct {
	Prompt string `json:"prompt"`
}
