package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydraai/hydra/internal/adapter"
)

func TestParseLine_AgentMessage(t *testing.T) {
	a := New()
	ev, ok := a.ParseLine(`{"type":"agent_message","msg":"hi"}`)
	require.True(t, ok)
	assert.Equal(t, adapter.KindMessage, ev.Kind)
	assert.Equal(t, "hi", ev.Message.Content)
}

func TestParseLine_ExecCommand(t *testing.T) {
	a := New()
	ev, ok := a.ParseLine(`{"type":"exec_command","tool":"shell","input":{"cmd":"ls"}}`)
	require.True(t, ok)
	assert.Equal(t, adapter.KindToolCall, ev.Kind)
	assert.Equal(t, "shell", ev.ToolCall.Tool)
}

func TestParseLine_TaskComplete(t *testing.T) {
	a := New()
	ev, ok := a.ParseLine(`{"type":"task_complete","msg":"done"}`)
	require.True(t, ok)
	assert.Equal(t, adapter.KindCompleted, ev.Kind)
	require.NotNil(t, ev.Completed.Summary)
	assert.Equal(t, "done", *ev.Completed.Summary)
}

func TestParseLine_TokenCount(t *testing.T) {
	a := New()
	ev, ok := a.ParseLine(`{"type":"token_count","usage":{"input_tokens":5,"output_tokens":7}}`)
	require.True(t, ok)
	assert.Equal(t, adapter.KindUsage, ev.Kind)
	assert.Equal(t, uint64(5), ev.Usage.InputTokens)
	assert.Equal(t, uint64(7), ev.Usage.OutputTokens)
}

func TestParseLine_UnknownTypeReturnsNotOK(t *testing.T) {
	a := New()
	_, ok := a.ParseLine(`{"type":"session_start"}`)
	assert.False(t, ok)
}

func TestBuildCommand_FullAutoAndSandbox(t *testing.T) {
	a := New()
	cmd, err := a.BuildCommand(adapter.SpawnRequest{
		TaskPrompt:       "implement feature",
		ForceEdit:        true,
		OutputJSONStream: true,
		SupportedFlags:   []string{"--json", "--full-auto", "--sandbox"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"exec", "implement feature", "--json", "--full-auto", "--sandbox", "workspace-write"}, cmd.Args)
}

func TestBuildCommand_UnsafeModePrefersBypassFlag(t *testing.T) {
	a := New()
	cmd, err := a.BuildCommand(adapter.SpawnRequest{
		TaskPrompt:     "task",
		UnsafeMode:     true,
		SupportedFlags: []string{"--sandbox", "--dangerously-bypass-approvals-and-sandbox"},
	})
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, "--dangerously-bypass-approvals-and-sandbox")
	assert.NotContains(t, cmd.Args, "--sandbox")
}

func TestParseRaw_SkipsBlankAndInvalidLines(t *testing.T) {
	a := New()
	chunk := []byte("{\"type\":\"agent_message\",\"msg\":\"a\"}\n\n{\"type\":\"agent_message\",\"msg\":\"b\"}\n")
	events := a.ParseRaw(chunk)
	require.Len(t, events, 2)
}
