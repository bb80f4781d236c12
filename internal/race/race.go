// Package race implements the orchestrator: given a prompt and a set of
// adapters, it allocates worktrees, spawns supervised child processes in
// parallel, forwards their events into the artifact store and a broadcast
// bus, and finalizes the run manifest.
package race

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/hydraai/hydra/internal/adapter"
	"github.com/hydraai/hydra/internal/artifact"
	"github.com/hydraai/hydra/internal/config"
	"github.com/hydraai/hydra/internal/gitexec"
	"github.com/hydraai/hydra/internal/logging"
	"github.com/hydraai/hydra/internal/model"
	"github.com/hydraai/hydra/internal/redact"
	"github.com/hydraai/hydra/internal/scoring"
	"github.com/hydraai/hydra/internal/supervisor"
	"github.com/hydraai/hydra/internal/worktree"
)

// BroadcastCapacity is the bounded ring buffer size for the slow-subscriber
// broadcast bus; the file log never drops, only this bus does.
const BroadcastCapacity = 4096

// Request is the input to Race.
type Request struct {
	RepoRoot           string
	Prompt             string
	AgentKeys          []string
	AllowExperimental  bool
	MaxTokensTotal     *uint64
}

// Result summarizes one completed race.
type Result struct {
	RunID  string
	Status model.RunStatus
	Run    *model.Run
	Errs   error // aggregated per-agent errors, diagnostic only
}

// Bus is a bounded broadcast channel; slow subscribers drop the oldest
// pending item rather than blocking a publish.
type Bus struct {
	mu   sync.Mutex
	subs []chan model.Event
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan model.Event {
	ch := make(chan model.Event, BroadcastCapacity)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *Bus) Publish(ev model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber: drop oldest, then push newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Engine runs races against repoRoot using the given config.
type Engine struct {
	RepoRoot string
	Cfg      config.Config
	Bus      *Bus

	worktrees *worktree.Manager
}

func NewEngine(repoRoot string, cfg config.Config) *Engine {
	return &Engine{
		RepoRoot:  repoRoot,
		Cfg:       cfg,
		Bus:       NewBus(),
		worktrees: worktree.NewManager(repoRoot, cfg.Worktree),
	}
}

// Race executes the full protocol described in the component design: it
// resolves adapters, allocates worktrees, runs supervisors in parallel,
// and finalizes the manifest.
func (e *Engine) Race(ctx context.Context, req Request) (*Result, error) {
	ctx = logging.WithComponent(ctx, "race")
	runID := uuid.NewString()

	resolved := make([]adapter.Adapter, 0, len(req.AgentKeys))
	for _, key := range req.AgentKeys {
		a, err := adapter.Resolve(key, req.AllowExperimental)
		if err != nil {
			logging.Warn(ctx, "dropping unresolvable agent", slog.String("agent_key", key), slog.String("error", err.Error()))
			continue
		}
		resolved = append(resolved, a)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("race: no resolvable agents among %v", req.AgentKeys)
	}

	baseRef, err := currentHead(ctx, req.RepoRoot)
	if err != nil {
		return nil, err
	}

	promptHash := sha256.Sum256([]byte(req.Prompt))
	run := &model.Run{
		RunID:          runID,
		SchemaVersion:  model.SchemaVersion,
		RepoRoot:       req.RepoRoot,
		BaseRef:        baseRef,
		TaskPromptHash: hex.EncodeToString(promptHash[:]),
		StartedAt:      time.Now().UTC(),
		Status:         model.RunRunning,
	}

	dir, err := artifact.Create(req.RepoRoot, runID)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	if err := dir.WriteManifest(run); err != nil {
		return nil, err
	}
	e.appendAndPublish(dir, run, model.Event{
		Timestamp: nowMillis(), RunID: runID, EventType: model.EventRunStarted,
	})

	var agentsMu sync.Mutex
	var combinedErr error
	anySucceeded := false

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range resolved {
		a := a
		g.Go(func() error {
			rec, agentErr := e.runOneAgent(gctx, dir, run, runID, a, req)
			agentsMu.Lock()
			run.Agents = append(run.Agents, rec)
			if rec.Status == model.AgentCompleted {
				anySucceeded = true
			}
			if agentErr != nil {
				combinedErr = multierror.Append(combinedErr, agentErr)
			}
			_ = dir.WriteManifest(run)
			agentsMu.Unlock()
			return nil // per-agent failures never fail the errgroup
		})
	}
	_ = g.Wait()

	finalStatus := model.RunFailed
	if anySucceeded {
		finalStatus = model.RunCompleted
	}
	if ctx.Err() != nil {
		finalStatus = model.RunCancelled
	}

	now := time.Now().UTC()
	run.Status = finalStatus
	run.CompletedAt = &now

	terminalType := model.EventRunCompleted
	if finalStatus != model.RunCompleted {
		terminalType = model.EventRunFailed
	}
	e.appendAndPublish(dir, run, model.Event{
		Timestamp: nowMillis(), RunID: runID, EventType: terminalType,
		Data: map[string]any{"status": string(finalStatus)},
	})

	if err := dir.WriteManifest(run); err != nil {
		return nil, err
	}

	return &Result{RunID: runID, Status: finalStatus, Run: run, Errs: combinedErr}, nil
}

func (e *Engine) runOneAgent(ctx context.Context, dir *artifact.RunDir, run *model.Run, runID string, a adapter.Adapter, req Request) (model.AgentRecord, error) {
	key := a.Key()
	ctx = logging.WithComponent(ctx, "race."+key)

	handle, err := e.worktrees.Allocate(ctx, runID, key, run.BaseRef)
	if err != nil {
		return model.AgentRecord{
			AgentKey: key, Status: model.AgentFailed, StartedAt: time.Now().UTC(),
		}, err
	}

	rec := model.AgentRecord{
		AgentKey:     key,
		WorktreePath: handle.Path,
		Branch:       handle.Branch,
		StartedAt:    time.Now().UTC(),
		Status:       model.AgentRunning,
	}
	e.appendAndPublish(dir, run, model.Event{
		Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: model.EventAgentStarted,
	})

	probeResult, _ := a.Probe(ctx)

	spawnReq := adapter.SpawnRequest{
		TaskPrompt:       req.Prompt,
		WorktreePath:     handle.Path,
		TimeoutSeconds:   e.Cfg.Supervisor.HardTimeoutSeconds,
		ForceEdit:        true,
		OutputJSONStream: probeResult.Capabilities.JSONStream.Supported,
		SupportedFlags:   probeResult.Detect.SupportedFlags,
	}

	stdoutLog, _ := dir.LogWriter(key, "stdout")
	stderrLog, _ := dir.LogWriter(key, "stderr")
	if stdoutLog != nil {
		defer stdoutLog.Close()
	}
	if stderrLog != nil {
		defer stderrLog.Close()
	}

	h, err := supervisor.Spawn(ctx, spawnReq, a, e.Cfg.Supervisor, stdoutLog, stderrLog)
	if err != nil {
		completed := time.Now().UTC()
		rec.CompletedAt = &completed
		rec.Status = model.AgentFailed
		e.appendAndPublish(dir, run, model.Event{
			Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: model.EventAgentFailed,
			Data: map[string]any{"reason": "spawn_failed", "error": err.Error()},
		})
		releaseErr := e.worktrees.Release(ctx, handle)
		if releaseErr != nil {
			logging.Warn(ctx, "worktree release failed", slog.String("error", releaseErr.Error()))
		}
		return rec, err
	}

	var usage scoring.UsageAccumulator
	var budgetStop bool
	for se := range h.Events {
		et, data := classify(se)
		e.appendAndPublish(dir, run, model.Event{
			Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: et, Data: data,
		})
		if se.Parsed != nil && se.Parsed.Kind == adapter.KindUsage {
			usage.Add(model.TokenUsage{
				InputTokens:  se.Parsed.Usage.InputTokens,
				OutputTokens: se.Parsed.Usage.OutputTokens,
			})
			if !budgetStop && usage.CheckTokenBudget(req.MaxTokensTotal) {
				budgetStop = true
				h.Cancel()
			}
		}
	}

	outcome := h.Wait()
	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	totalUsage := usage.Total()
	rec.TokenUsage = &totalUsage

	switch {
	case budgetStop:
		rec.Status = model.AgentCancelled
		e.appendAndPublish(dir, run, model.Event{
			Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: model.EventAgentFailed,
			Data: map[string]any{"reason": "budget_exceeded"},
		})
	case outcome.Status == model.AgentCompleted:
		rec.Status = model.AgentCompleted
		e.appendAndPublish(dir, run, model.Event{
			Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: model.EventAgentCompleted,
		})
	default:
		rec.Status = outcome.Status
		data := map[string]any{}
		if outcome.Reason != "" {
			data["reason"] = outcome.Reason
		}
		e.appendAndPublish(dir, run, model.Event{
			Timestamp: nowMillis(), RunID: runID, AgentKey: key, EventType: model.EventAgentFailed,
			Data: data,
		})
	}

	handle.Succeeded = rec.Status == model.AgentCompleted
	if releaseErr := e.worktrees.Release(ctx, handle); releaseErr != nil {
		logging.Warn(ctx, "worktree release failed", slog.String("error", releaseErr.Error()))
	}

	if rec.Status != model.AgentCompleted {
		return rec, adapter.NewError(adapter.ErrTimedOut, key, string(rec.Status))
	}
	return rec, nil
}

func classify(se supervisor.StreamEvent) (model.EventType, map[string]any) {
	if se.Parsed == nil {
		if se.Source == "stderr" {
			return model.EventAgentStderr, map[string]any{"line": redact.RedactWithGitleaks(se.Raw)}
		}
		return model.EventAgentStdout, map[string]any{"line": redact.RedactWithGitleaks(se.Raw)}
	}

	p := se.Parsed
	switch p.Kind {
	case adapter.KindMessage:
		return model.EventAgentMessage, map[string]any{"content": redact.RedactWithGitleaks(p.Message.Content)}
	case adapter.KindToolCall:
		return model.EventAgentToolCall, map[string]any{"tool": p.ToolCall.Tool, "input": p.ToolCall.Input}
	case adapter.KindToolResult:
		return model.EventAgentToolResult, map[string]any{"tool": p.ToolResult.Tool, "output": p.ToolResult.Output}
	case adapter.KindProgress:
		data := map[string]any{"message": p.Progress.Message, "truncated": p.Progress.Truncated}
		if p.Progress.Percent != nil {
			data["percent"] = *p.Progress.Percent
		}
		return model.EventAgentProgress, data
	case adapter.KindCompleted:
		data := map[string]any{}
		if p.Completed.Summary != nil {
			data["summary"] = redact.RedactWithGitleaks(*p.Completed.Summary)
		}
		return model.EventAgentProgress, data
	case adapter.KindFailed:
		return model.EventAgentStderr, map[string]any{"error": redact.RedactWithGitleaks(p.Failed.Error)}
	case adapter.KindUsage:
		return model.EventAgentUsage, map[string]any{
			"input_tokens":  p.Usage.InputTokens,
			"output_tokens": p.Usage.OutputTokens,
		}
	default:
		return model.EventAgentStdout, map[string]any{"line": se.Raw}
	}
}

func (e *Engine) appendAndPublish(dir *artifact.RunDir, run *model.Run, ev model.Event) {
	if err := dir.AppendEvent(ev); err != nil {
		return
	}
	e.Bus.Publish(ev)
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

func currentHead(ctx context.Context, repoRoot string) (string, error) {
	res, err := gitexec.Run(ctx, repoRoot, gitexec.DefaultTimeout, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return trimNewline(res.Stdout), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
