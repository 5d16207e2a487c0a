package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/crytic/pathfinder/logging/colors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddWriter ensures duplicate writers are ignored and structured output is valid JSON.
func TestAddWriter(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, nil)

	var buf bytes.Buffer
	logger.AddWriter(&buf, STRUCTURED)
	logger.AddWriter(&buf, STRUCTURED)
	assert.Len(t, logger.writers, 1)

	logger.NewSubLogger("module", "test").Info("hello ", 42, StructuredLogInfo{"key": "value"})

	var event map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	assert.Equal(t, "hello 42", event["message"])
	assert.Equal(t, "test", event["module"])
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, map[string]any{"key": "value"}, event["info"])
}

// TestLevelFiltering ensures events below the configured level are dropped.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.WarnLevel, nil, &buf)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error("kept", errors.New("boom"))
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "boom")
}

// TestConsoleFormatting ensures console output contains the plain message and no module field at info level.
func TestConsoleFormatting(t *testing.T) {
	var console bytes.Buffer
	logger := NewLogger(zerolog.InfoLevel, &console).NewSubLogger("module", "explorer")

	logger.Info("exploring ", colors.Bold, "paths")
	out := console.String()
	assert.Contains(t, out, colors.LEFT_ARROW)
	assert.Contains(t, out, "exploring")
	assert.True(t, strings.Contains(out, "paths"))
	assert.NotContains(t, out, "module=")
}

// TestBuildMsgs ensures colors only affect the console message.
func TestBuildMsgs(t *testing.T) {
	err := errors.New("failure")
	consoleMsg, plainMsg, gotErr, info := buildMsgs("a", colors.Red, "b", err)
	assert.Equal(t, "ab", plainMsg)
	assert.Equal(t, "a"+colors.Red("b"), consoleMsg)
	assert.Equal(t, err, gotErr)
	assert.Nil(t, info)
}
