package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestInit_AttachesSessionID(t *testing.T) {
	var buf bytes.Buffer
	Init("session-abc", &buf)
	defer Init("session-reset", nil)

	Info(context.Background(), "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "session-abc", lines[0]["session_id"])
	assert.Equal(t, "hello", lines[0]["msg"])
}

func TestWithComponent_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init("session-comp", &buf)
	defer Init("session-reset", nil)

	ctx := WithComponent(context.Background(), "race")
	Warn(ctx, "draining")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "race", lines[0]["component"])
	assert.Equal(t, "WARN", lines[0]["level"])
}

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	Init("session-level", &buf)
	defer Init("session-reset", nil)
	defer SetLevel(slog.LevelDebug)

	SetLevel(slog.LevelWarn)
	Info(context.Background(), "should be dropped")
	Warn(context.Background(), "should appear")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "should appear", lines[0]["msg"])
}

func TestLogDuration_AddsDurationAttr(t *testing.T) {
	var buf bytes.Buffer
	Init("session-dur", &buf)
	defer Init("session-reset", nil)

	start := time.Now().Add(-10 * time.Millisecond)
	LogDuration(context.Background(), slog.LevelInfo, "done", start, slog.String("k", "v"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "v", lines[0]["k"])
	durationMs, ok := lines[0]["duration_ms"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, durationMs, float64(0))
}

func TestFrom_FallsBackToBaseLogger(t *testing.T) {
	var buf bytes.Buffer
	Init("session-fallback", &buf)
	defer Init("session-reset", nil)

	logger := From(context.Background())
	require.NotNil(t, logger)
}
