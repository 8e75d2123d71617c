// Package memory provides the in-process checkpointer used by default.
package memory
