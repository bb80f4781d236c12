package supervisor

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydraai/hydra/internal/adapter"
	"github.com/hydraai/hydra/internal/config"
	"github.com/hydraai/hydra/internal/model"
)

// lineEchoAdapter builds a short shell command and parses lines prefixed
// "MSG:" into MessageEvents; everything else is left unparsed so it surfaces
// as a raw StreamEvent.
type lineEchoAdapter struct {
	script string
}

func (a lineEchoAdapter) Key() string        { return "line-echo" }
func (a lineEchoAdapter) Tier() adapter.Tier { return adapter.Tier1 }
func (a lineEchoAdapter) Probe(ctx context.Context) (adapter.ProbeResult, error) {
	return adapter.ProbeResult{}, nil
}
func (a lineEchoAdapter) BuildCommand(req adapter.SpawnRequest) (adapter.BuiltCommand, error) {
	return adapter.BuiltCommand{Program: "/bin/sh", Args: []string{"-c", a.script}, Cwd: req.WorktreePath}, nil
}
func (a lineEchoAdapter) ParseLine(line string) (adapter.AgentEvent, bool) {
	if strings.HasPrefix(line, "MSG:") {
		return adapter.MessageEventOf(strings.TrimPrefix(line, "MSG:")), true
	}
	return adapter.AgentEvent{}, false
}
func (a lineEchoAdapter) ParseRaw(chunk []byte) []adapter.AgentEvent { return nil }

func collectEvents(h *Handle) []StreamEvent {
	var out []StreamEvent
	for ev := range h.Events {
		out = append(out, ev)
	}
	return out
}

func TestSpawn_ParsesStdoutLinesAndExitsCleanly(t *testing.T) {
	ad := lineEchoAdapter{script: "echo 'MSG:hello'; echo 'plain line'"}
	cfg := config.SupervisorConfig{HardTimeoutSeconds: 10, IdleTimeoutSeconds: 10, OutputBufferBytes: 1 << 20}

	var stdoutLog, stderrLog bytes.Buffer
	h, err := Spawn(context.Background(), adapter.SpawnRequest{WorktreePath: t.TempDir()}, ad, cfg, &stdoutLog, &stderrLog)
	require.NoError(t, err)

	events := collectEvents(h)
	outcome := h.Wait()

	assert.Equal(t, model.AgentCompleted, outcome.Status)
	assert.Equal(t, 0, outcome.ExitCode)

	var sawMessage, sawRaw bool
	for _, ev := range events {
		if ev.Parsed != nil && ev.Parsed.Kind == adapter.KindMessage {
			sawMessage = true
			assert.Equal(t, "hello", ev.Parsed.Message.Content)
		}
		if ev.Raw == "plain line" {
			sawRaw = true
		}
	}
	assert.True(t, sawMessage, "expected a parsed MSG: event")
	assert.True(t, sawRaw, "expected the unparsed line to pass through raw")
	assert.Contains(t, stdoutLog.String(), "hello")
}

func TestSpawn_NonZeroExitIsFailed(t *testing.T) {
	ad := lineEchoAdapter{script: "exit 3"}
	cfg := config.SupervisorConfig{HardTimeoutSeconds: 10, IdleTimeoutSeconds: 10, OutputBufferBytes: 1 << 20}

	h, err := Spawn(context.Background(), adapter.SpawnRequest{WorktreePath: t.TempDir()}, ad, cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	collectEvents(h)
	outcome := h.Wait()

	assert.Equal(t, model.AgentFailed, outcome.Status)
	assert.Equal(t, 3, outcome.ExitCode)
}

func TestSpawn_HardTimeoutKillsChild(t *testing.T) {
	ad := lineEchoAdapter{script: "sleep 30"}
	cfg := config.SupervisorConfig{HardTimeoutSeconds: 1, IdleTimeoutSeconds: 60, OutputBufferBytes: 1 << 20}

	h, err := Spawn(context.Background(), adapter.SpawnRequest{WorktreePath: t.TempDir()}, ad, cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	collectEvents(h)
	outcome := h.Wait()

	assert.Equal(t, model.AgentTimedOut, outcome.Status)
	assert.Equal(t, "timed_out", outcome.Reason)
}

func TestSpawn_BufferOverflowEmitsTruncatedProgressEvent(t *testing.T) {
	ad := lineEchoAdapter{script: "for i in $(seq 1 50); do echo 'plain line of moderate length here'; done"}
	cfg := config.SupervisorConfig{HardTimeoutSeconds: 10, IdleTimeoutSeconds: 10, OutputBufferBytes: 64}

	h, err := Spawn(context.Background(), adapter.SpawnRequest{WorktreePath: t.TempDir()}, ad, cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	events := collectEvents(h)
	h.Wait()

	var sawTruncated bool
	for _, ev := range events {
		if ev.Parsed != nil && ev.Parsed.Kind == adapter.KindProgress && ev.Parsed.Progress.Truncated {
			sawTruncated = true
			assert.Equal(t, "output truncated", ev.Parsed.Progress.Message)
		}
	}
	assert.True(t, sawTruncated, "expected a progress event with Truncated=true once bufferCap is exceeded")
}

func TestCancel_IsIdempotentAndStopsChild(t *testing.T) {
	ad := lineEchoAdapter{script: "sleep 30"}
	cfg := config.SupervisorConfig{HardTimeoutSeconds: 60, IdleTimeoutSeconds: 60, OutputBufferBytes: 1 << 20}

	h, err := Spawn(context.Background(), adapter.SpawnRequest{WorktreePath: t.TempDir()}, ad, cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	h.Cancel()
	h.Cancel() // must not panic or double-close doneCh

	collectEvents(h)
	outcome := h.Wait()
	assert.NotEqual(t, model.AgentCompleted, outcome.Status)
}
