package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs_RedactsSensitiveKeys(t *testing.T) {
	kv := []interface{}{"user_id", 7, "password", "hunter22", "session_token", "abc.def.ghi", "SECRET_KEY", "x"}

	out := sanitizeKVs(kv)

	assert.Equal(t, []interface{}{"user_id", 7, "password", "[REDACTED]", "session_token", "[REDACTED]", "SECRET_KEY", "[REDACTED]"}, out)
}

func TestSanitizeKVs_OddLengthKeepsTail(t *testing.T) {
	out := sanitizeKVs([]interface{}{"quiz_id", 3, "dangling"})

	assert.Equal(t, []interface{}{"quiz_id", 3, "dangling"}, out)
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	l := NewNop().Component("test")

	assert.NotPanics(t, func() {
		l.Info("hello", "k", "v")
		l.Warn("warn")
		l.Error("err", "password", "p")
	})
}
