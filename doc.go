/*
Package lookout is a terminal chat agent that can search the web.

Each line typed by the operator is appended to a conversation thread and run
through a two-node graph: an "agent" node that calls an OpenAI-compatible chat
model (Groq by default), and a "tools" node that executes the tool calls the
model requests, currently a Tavily web search. The graph loops between the two
until the model answers without asking for tools. Every step is checkpointed,
so a thread keeps its full history across turns and, with a durable store,
across restarts.

# Packages

  - pkg/graph: the compiled state graph with conditional edges and checkpoints.
  - pkg/agent: the agent/tools graph built on top of pkg/graph.
  - pkg/adapters/openai, pkg/adapters/tavily: the model and search backends.
  - pkg/adapters/memory, pkg/adapters/file, pkg/adapters/redis: checkpoint stores.
  - pkg/runner: the read-respond-print loop and its terminal handlers.
  - pkg/adapters/http, pkg/adapters/mcp: the same agent behind HTTP and MCP.

# Usage

	model, _ := openai.New(openai.Config{APIKey: os.Getenv("GROQ_API_KEY")})
	search := tavily.New(os.Getenv("TAVILY_API_KEY"))

	tools := registry.NewRegistry()
	search.Register(tools)

	a, _ := agent.New(model, tools)
	r := runner.New(a, runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package lookout
