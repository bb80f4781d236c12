// Package codex implements the adapter.Adapter interface for the Codex CLI.
package codex

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hydraai/hydra/internal/adapter"
)

const key = "codex"

// minVersion is the lowest codex CLI version known to support `exec --json`.
const minVersion = "0.1.0"

func init() {
	adapter.Register(key, New)
}

var knownFlags = []string{
	"exec", "--json", "--full-auto", "--sandbox", "--model", "--dangerously-bypass-approvals-and-sandbox",
}

type Adapter struct {
	binaryOverride *string
}

func New() adapter.Adapter { return &Adapter{} }

func (a *Adapter) Key() string        { return key }
func (a *Adapter) Tier() adapter.Tier { return adapter.Tier1 }

func (a *Adapter) Probe(ctx context.Context) (adapter.ProbeResult, error) {
	binPath, err := adapter.DiscoverBinary(a.binaryOverride, "codex")
	if err != nil {
		msg := err.Error()
		return adapter.ProbeResult{
			AdapterKey: key,
			Tier:       adapter.Tier1,
			Detect: adapter.DetectResult{
				Status:     adapter.StatusMissing,
				Confidence: adapter.ConfidenceVerified,
				Error:      &msg,
			},
		}, nil
	}

	_, version, verErr := adapter.RunVersion(ctx, binPath, "--version")
	if verErr != nil {
		msg := verErr.Error()
		return adapter.ProbeResult{
			AdapterKey: key,
			Tier:       adapter.Tier1,
			Detect: adapter.DetectResult{
				Status:     adapter.StatusBlocked,
				BinaryPath: &binPath,
				Confidence: adapter.ConfidenceObserved,
				Error:      &msg,
			},
		}, nil
	}

	help, _ := adapter.RunHelp(ctx, binPath)
	supported := adapter.MatchFlags(help, knownFlags)

	status := adapter.StatusReady
	var versionErr *string
	if !adapter.MeetsMinVersion(version, minVersion) {
		status = adapter.StatusBlocked
		msg := "codex " + version + " is older than the minimum supported version " + minVersion
		versionErr = &msg
	}

	detect := adapter.DetectResult{
		Status:         status,
		BinaryPath:     &binPath,
		Version:        &version,
		SupportedFlags: supported,
		Confidence:     adapter.ConfidenceVerified,
		Error:          versionErr,
	}

	jsonStream := contains(supported, "--json")
	caps := adapter.CapabilitySet{
		JSONStream:       adapter.VerifiedCapability(jsonStream),
		PlainText:        adapter.VerifiedCapability(true),
		ForceEditMode:    adapter.VerifiedCapability(contains(supported, "--full-auto")),
		SandboxControls:  adapter.VerifiedCapability(contains(supported, "--sandbox")),
		ApprovalControls: adapter.ObservedCapability(contains(supported, "--dangerously-bypass-approvals-and-sandbox")),
		SessionResume:    adapter.UnknownCapability(),
		EmitsUsage:       adapter.ObservedCapability(jsonStream),
	}

	return adapter.ProbeResult{AdapterKey: key, Tier: adapter.Tier1, Detect: detect, Capabilities: caps}, nil
}

// BuildCommand maps the abstract SpawnRequest onto `codex exec`'s flags.
func (a *Adapter) BuildCommand(req adapter.SpawnRequest) (adapter.BuiltCommand, error) {
	args := []string{"exec", req.TaskPrompt}

	if req.OutputJSONStream && contains(req.SupportedFlags, "--json") {
		args = append(args, "--json")
	}
	if req.ForceEdit && contains(req.SupportedFlags, "--full-auto") {
		args = append(args, "--full-auto")
	}
	if req.UnsafeMode && contains(req.SupportedFlags, "--dangerously-bypass-approvals-and-sandbox") {
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	} else if contains(req.SupportedFlags, "--sandbox") {
		args = append(args, "--sandbox", "workspace-write")
	}

	return adapter.BuiltCommand{
		Program: "codex",
		Args:    args,
		Cwd:     req.WorktreePath,
	}, nil
}

type event struct {
	Type  string          `json:"type"`
	Msg   string          `json:"msg,omitempty"`
	Tool  string          `json:"tool,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
	Usage struct {
		InputTokens  uint64 `json:"input_tokens"`
		OutputTokens uint64 `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error string `json:"error,omitempty"`
}

func (a *Adapter) ParseLine(line string) (adapter.AgentEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return adapter.AgentEvent{}, false
	}
	var ev event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return adapter.AgentEvent{}, false
	}

	switch ev.Type {
	case "agent_message", "message":
		return adapter.MessageEventOf(ev.Msg), true
	case "exec_command", "tool_call":
		var input map[string]any
		_ = json.Unmarshal(ev.Input, &input)
		return adapter.AgentEvent{Kind: adapter.KindToolCall, ToolCall: &adapter.ToolCallEvent{Tool: ev.Tool, Input: input}}, true
	case "task_complete", "completed":
		summary := ev.Msg
		return adapter.CompletedEventOf(&summary), true
	case "error":
		return adapter.FailedEventOf(ev.Error), true
	case "token_count", "usage":
		return adapter.UsageEventOf(ev.Usage.InputTokens, ev.Usage.OutputTokens, nil), true
	default:
		return adapter.AgentEvent{}, false
	}
}

func (a *Adapter) ParseRaw(chunk []byte) []adapter.AgentEvent {
	var events []adapter.AgentEvent
	for _, line := range strings.Split(string(chunk), "\n") {
		if ev, ok := a.ParseLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
