/*
Package domain contains the core domain models of the lookout chat agent.

It defines the conversation entities the graph engine operates on, such as Messages,
Tool Calls and the checkpointed State. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Message: One entry of a conversation (user, assistant, tool or system).
  - ToolCall: A structured request from the model to execute a named tool.
  - State: The checkpoint of a thread (Messages, current node, visited path).
  - Node: A static description of a graph node, used for introspection.
  - ActionRequest: A structural representation of what the host should render.
*/
package domain
