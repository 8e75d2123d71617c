/*
Package ports defines the driven ports (interfaces) for the lookout agent.

These interfaces decouple the graph engine from external implementations, allowing
the agent to work with various model providers and checkpoint backends.

# Key Interfaces

  - ChatModel: Produces the next assistant message for a conversation.
  - StateStore: Persists and replays thread checkpoints.
  - DistributedLocker: Provides distributed locking for concurrent thread access.
*/
package ports
