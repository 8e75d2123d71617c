package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithWriter(buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("Calling model", "error", errors.New("boom"), "api_key", "gsk-secret", "Authorization", "Bearer tvly")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "error=")
	assert.NotContains(t, out, "gsk-secret")
	assert.NotContains(t, out, "tvly")
	assert.Contains(t, out, "api_key=[REDACTED]")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { NewNop().Error("dropped") })
}
