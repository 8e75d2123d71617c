/*
Package runner implements the conversation loop and its I/O.

The loop prompts the operator, forwards every non-empty line to a Responder
(the agent graph) on a fixed thread, and prints the reply. Typing "/bye" or
closing the input ends the loop without contacting the model.

# Key Components

  - Runner: the read-respond-print loop.
  - IOHandler: decouples how lines are read and replies shown (Text, JSON).
  - TextHandler: interactive terminal usage, with a cancellable input pump.
  - ToolInterceptor middlewares: approval policies for tool calls.

# Usage

	r := runner.New(agent,
		runner.WithThreadID("1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
