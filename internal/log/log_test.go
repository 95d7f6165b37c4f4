package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "key", "v")
	Error("failed", errors.New("boom"), "date", "2024-05-01")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown key=v")
	assert.Contains(t, out, "[ERROR] failed err=boom date=2024-05-01")
}

func TestValuesWithSpacesAreQuoted(t *testing.T) {
	buf := capture(t)

	Info("task added", "desc", "buy milk", "odd")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, `desc="buy milk"`), line)
}
