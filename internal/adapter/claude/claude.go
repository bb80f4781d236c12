// Package claude implements the adapter.Adapter interface for the Claude
// Code CLI.
package claude

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hydraai/hydra/internal/adapter"
)

const key = "claude"

// minVersion is the lowest claude CLI version known to support the flags
// this adapter depends on (stream-json output, dangerously-skip-permissions).
const minVersion = "1.0.0"

func init() {
	adapter.Register(key, New)
}

var knownFlags = []string{
	"--output-format", "--verbose", "--model", "--max-turns",
	"--allowedTools", "--permission-mode", "--dangerously-skip-permissions",
}

type Adapter struct {
	binaryOverride *string
}

func New() adapter.Adapter { return &Adapter{} }

func (a *Adapter) Key() string      { return key }
func (a *Adapter) Tier() adapter.Tier { return adapter.Tier1 }

func (a *Adapter) Probe(ctx context.Context) (adapter.ProbeResult, error) {
	binPath, err := adapter.DiscoverBinary(a.binaryOverride, "claude")
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

	raw, version, verErr := adapter.RunVersion(ctx, binPath, "--version")
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
	_ = raw

	help, _ := adapter.RunHelp(ctx, binPath)
	supported := adapter.MatchFlags(help, knownFlags)

	status := adapter.StatusReady
	var versionErr *string
	if !adapter.MeetsMinVersion(version, minVersion) {
		status = adapter.StatusBlocked
		msg := "claude " + version + " is older than the minimum supported version " + minVersion
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

	jsonStream := contains(supported, "--output-format")
	caps := adapter.CapabilitySet{
		JSONStream:      adapter.VerifiedCapability(jsonStream),
		PlainText:       adapter.VerifiedCapability(true),
		ForceEditMode:    adapter.VerifiedCapability(contains(supported, "--dangerously-skip-permissions")),
		SandboxControls:  adapter.ObservedCapability(contains(supported, "--permission-mode")),
		ApprovalControls: adapter.ObservedCapability(contains(supported, "--permission-mode")),
		SessionResume:    adapter.UnknownCapability(),
		EmitsUsage:       adapter.ObservedCapability(jsonStream),
	}

	return adapter.ProbeResult{AdapterKey: key, Tier: adapter.Tier1, Detect: detect, Capabilities: caps}, nil
}

// BuildCommand maps the abstract SpawnRequest onto Claude Code's CLI flags,
// following the same args-building shape as a non-interactive headless run:
// `-p <prompt> [--output-format stream-json --verbose]` followed by either
// `--dangerously-skip-permissions` or `--permission-mode acceptEdits`, each
// only when the probe found the flag supported.
func (a *Adapter) BuildCommand(req adapter.SpawnRequest) (adapter.BuiltCommand, error) {
	args := []string{"-p", req.TaskPrompt}

	if req.OutputJSONStream && contains(req.SupportedFlags, "--output-format") {
		args = append(args, "--output-format", "stream-json", "--verbose")
	}
	if req.ForceEdit && contains(req.SupportedFlags, "--dangerously-skip-permissions") {
		args = append(args, "--dangerously-skip-permissions")
	} else if contains(req.SupportedFlags, "--permission-mode") {
		args = append(args, "--permission-mode", "acceptEdits")
	}

	env := []string{}
	return adapter.BuiltCommand{
		Program: "claude",
		Args:    args,
		Env:     env,
		Cwd:     req.WorktreePath,
	}, nil
}

// streamEvent mirrors the subset of Claude Code's stream-json schema this
// adapter understands; unrecognized "type" values parse as no event.
type streamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message struct {
		Content string `json:"content"`
	} `json:"message,omitempty"`
	Tool   string          `json:"tool,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
	Usage  struct {
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
	var ev streamEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return adapter.AgentEvent{}, false
	}

	switch ev.Type {
	case "assistant", "message":
		content := ev.Content
		if content == "" {
			content = ev.Message.Content
		}
		return adapter.MessageEventOf(content), true
	case "tool_use":
		var input map[string]any
		_ = json.Unmarshal(ev.Input, &input)
		return adapter.AgentEvent{Kind: adapter.KindToolCall, ToolCall: &adapter.ToolCallEvent{Tool: ev.Tool, Input: input}}, true
	case "tool_result":
		var output map[string]any
		_ = json.Unmarshal(ev.Output, &output)
		return adapter.AgentEvent{Kind: adapter.KindToolResult, ToolResult: &adapter.ToolResultEvent{Tool: ev.Tool, Output: output}}, true
	case "result", "completed":
		summary := ev.Content
		return adapter.CompletedEventOf(&summary), true
	case "error":
		return adapter.FailedEventOf(ev.Error), true
	case "usage":
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

// IsTransientError reports whether stderr looks like a retryable API
// hiccup rather than a real failure, mirroring known Claude Code API error
// substrings (overloaded, rate limited, connection reset).
func IsTransientError(stderr string) bool {
	needles := []string{"overloaded", "rate limit", "529", "503", "ECONNRESET", "ETIMEDOUT"}
	lower := strings.ToLower(stderr)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
