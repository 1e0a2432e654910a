package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"model", "gpt", "API_KEY", "sk-123", "db_password", "hunter2", "dangling"})

	assert.Equal(t, []interface{}{
		"model", "gpt",
		"API_KEY", "[REDACTED]",
		"db_password", "[REDACTED]",
		"dangling",
	}, out)
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", 1)
	l.Sync()
}
