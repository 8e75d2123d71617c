/*
Package observability turns graph lifecycle events into Prometheus metrics and
structured log lines.

Both are exposed as domain.LifecycleHooks, so they can be merged and passed to
the agent with agent.WithHooks.
*/
package observability
