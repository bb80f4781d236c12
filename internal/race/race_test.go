package race

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydraai/hydra/internal/adapter"
	"github.com/hydraai/hydra/internal/config"
	"github.com/hydraai/hydra/internal/model"
)

// scriptedAdapter builds a small shell script per agent so each race test
// controls exactly what the "agent" does without depending on a real CLI.
type scriptedAdapter struct {
	key    string
	script string
}

func (a scriptedAdapter) Key() string        { return a.key }
func (a scriptedAdapter) Tier() adapter.Tier { return adapter.Tier1 }
func (a scriptedAdapter) Probe(ctx context.Context) (adapter.ProbeResult, error) {
	return adapter.ProbeResult{AdapterKey: a.key, Tier: adapter.Tier1}, nil
}
func (a scriptedAdapter) BuildCommand(req adapter.SpawnRequest) (adapter.BuiltCommand, error) {
	return adapter.BuiltCommand{Program: "/bin/sh", Args: []string{"-c", a.script}, Cwd: req.WorktreePath}, nil
}
func (a scriptedAdapter) ParseLine(line string) (adapter.AgentEvent, bool) {
	switch {
	case strings.HasPrefix(line, "MSG:"):
		return adapter.MessageEventOf(strings.TrimPrefix(line, "MSG:")), true
	case strings.HasPrefix(line, "USAGE:"):
		return adapter.UsageEventOf(100, 50, nil), true
	case strings.HasPrefix(line, "FAIL:"):
		return adapter.FailedEventOf(strings.TrimPrefix(line, "FAIL:")), true
	}
	return adapter.AgentEvent{}, false
}
func (a scriptedAdapter) ParseRaw(chunk []byte) []adapter.AgentEvent { return nil }

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(dir+"/README.md", []byte("hello\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func newTestEngine(t *testing.T, repoRoot string) *Engine {
	cfg := config.Default()
	cfg.Worktree.Retain = config.RetentionNone
	cfg.Supervisor.HardTimeoutSeconds = 10
	cfg.Supervisor.IdleTimeoutSeconds = 10
	return NewEngine(repoRoot, cfg)
}

func TestRace_SingleAgentCompletes(t *testing.T) {
	repo := initTestRepo(t)
	adapter.Register("race-ok-agent", func() adapter.Adapter {
		return scriptedAdapter{key: "race-ok-agent", script: "echo 'MSG:working'; echo 'USAGE:x'"}
	})

	e := newTestEngine(t, repo)
	result, err := e.Race(context.Background(), Request{
		RepoRoot:  repo,
		Prompt:    "do the thing",
		AgentKeys: []string{"race-ok-agent"},
	})

	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, result.Status)
	require.Len(t, result.Run.Agents, 1)
	rec := result.Run.Agents[0]
	assert.Equal(t, model.AgentCompleted, rec.Status)
	require.NotNil(t, rec.TokenUsage)
	assert.Equal(t, uint64(100), rec.TokenUsage.InputTokens)
	assert.Equal(t, uint64(50), rec.TokenUsage.OutputTokens)
}

func TestRace_AgentFailureDoesNotFailWholeRaceWhenAnotherSucceeds(t *testing.T) {
	repo := initTestRepo(t)
	adapter.Register("race-good-agent", func() adapter.Adapter {
		return scriptedAdapter{key: "race-good-agent", script: "echo 'MSG:ok'"}
	})
	adapter.Register("race-bad-agent", func() adapter.Adapter {
		return scriptedAdapter{key: "race-bad-agent", script: "exit 1"}
	})

	e := newTestEngine(t, repo)
	result, err := e.Race(context.Background(), Request{
		RepoRoot:  repo,
		Prompt:    "do the thing",
		AgentKeys: []string{"race-good-agent", "race-bad-agent"},
	})

	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, result.Status)
	assert.NotNil(t, result.Errs, "the failing agent's error should still surface diagnostically")
}

func TestRace_AllAgentsFailYieldsFailedRun(t *testing.T) {
	repo := initTestRepo(t)
	adapter.Register("race-always-fails", func() adapter.Adapter {
		return scriptedAdapter{key: "race-always-fails", script: "exit 1"}
	})

	e := newTestEngine(t, repo)
	result, err := e.Race(context.Background(), Request{
		RepoRoot:  repo,
		Prompt:    "do the thing",
		AgentKeys: []string{"race-always-fails"},
	})

	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, result.Status)
}

func TestRace_UnresolvableAgentKeyIsSkipped(t *testing.T) {
	repo := initTestRepo(t)
	adapter.Register("race-known-agent", func() adapter.Adapter {
		return scriptedAdapter{key: "race-known-agent", script: "echo 'MSG:ok'"}
	})

	e := newTestEngine(t, repo)
	result, err := e.Race(context.Background(), Request{
		RepoRoot:  repo,
		Prompt:    "do the thing",
		AgentKeys: []string{"race-known-agent", "race-totally-unknown-key"},
	})

	require.NoError(t, err)
	require.Len(t, result.Run.Agents, 1)
	assert.Equal(t, "race-known-agent", result.Run.Agents[0].AgentKey)
}

func TestRace_NoResolvableAgentsReturnsError(t *testing.T) {
	repo := initTestRepo(t)
	e := newTestEngine(t, repo)
	_, err := e.Race(context.Background(), Request{
		RepoRoot:  repo,
		Prompt:    "do the thing",
		AgentKeys: []string{"race-nope-1", "race-nope-2"},
	})
	require.Error(t, err)
}

func TestRace_TokenBudgetCancelsAgent(t *testing.T) {
	repo := initTestRepo(t)
	adapter.Register("race-budget-agent", func() adapter.Adapter {
		return scriptedAdapter{key: "race-budget-agent", script: "echo 'USAGE:x'; sleep 5; echo 'MSG:late'"}
	})

	e := newTestEngine(t, repo)
	budget := uint64(1)
	result, err := e.Race(context.Background(), Request{
		RepoRoot:       repo,
		Prompt:         "do the thing",
		AgentKeys:      []string{"race-budget-agent"},
		MaxTokensTotal: &budget,
	})

	require.NoError(t, err)
	require.Len(t, result.Run.Agents, 1)
	assert.Equal(t, model.AgentCancelled, result.Run.Agents[0].Status)
}

func TestBus_SlowSubscriberDropsOldestRatherThanBlocking(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe()

	for i := 0; i < BroadcastCapacity+10; i++ {
		b.Publish(model.Event{EventType: model.EventAgentStdout})
	}

	assert.LessOrEqual(t, len(sub), BroadcastCapacity)
}
