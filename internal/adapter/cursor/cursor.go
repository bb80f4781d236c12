// Package cursor implements the adapter.Adapter interface for the Cursor
// CLI agent. Cursor is an experimental-tier adapter: it races only when
// allow_experimental is set.
package cursor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hydraai/hydra/internal/adapter"
)

const key = "cursor"

// minVersion is the lowest cursor-agent version this adapter has been
// observed to work with; unlike claude/codex this is an observed rather
// than a vendor-documented floor, matching the rest of this adapter's
// experimental-tier confidence level.
const minVersion = "0.1.0"

func init() {
	adapter.Register(key, New)
}

var knownFlags = []string{"--print", "--output-format", "--force", "--model"}

type Adapter struct {
	binaryOverride *string
}

func New() adapter.Adapter { return &Adapter{} }

func (a *Adapter) Key() string        { return key }
func (a *Adapter) Tier() adapter.Tier { return adapter.Experimental }

func (a *Adapter) Probe(ctx context.Context) (adapter.ProbeResult, error) {
	binPath, err := adapter.DiscoverBinary(a.binaryOverride, "cursor-agent")
	if err != nil {
		msg := err.Error()
		return adapter.ProbeResult{
			AdapterKey: key,
			Tier:       adapter.Experimental,
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
			Tier:       adapter.Experimental,
			Detect: adapter.DetectResult{
				Status:     adapter.StatusExperimentalBlocked,
				BinaryPath: &binPath,
				Confidence: adapter.ConfidenceObserved,
				Error:      &msg,
			},
		}, nil
	}

	help, _ := adapter.RunHelp(ctx, binPath)
	supported := adapter.MatchFlags(help, knownFlags)

	status := adapter.StatusExperimentalReady
	var versionErr *string
	if !adapter.MeetsMinVersion(version, minVersion) {
		status = adapter.StatusExperimentalBlocked
		msg := "cursor-agent " + version + " is older than the minimum observed-working version " + minVersion
		versionErr = &msg
	}

	detect := adapter.DetectResult{
		Status:         status,
		BinaryPath:     &binPath,
		Version:        &version,
		SupportedFlags: supported,
		Confidence:     adapter.ConfidenceObserved,
		Error:          versionErr,
	}

	jsonStream := contains(supported, "--output-format")
	caps := adapter.CapabilitySet{
		JSONStream:       adapter.ObservedCapability(jsonStream),
		PlainText:        adapter.ObservedCapability(true),
		ForceEditMode:    adapter.ObservedCapability(contains(supported, "--force")),
		SandboxControls:  adapter.UnknownCapability(),
		ApprovalControls: adapter.UnknownCapability(),
		SessionResume:    adapter.UnknownCapability(),
		EmitsUsage:       adapter.UnknownCapability(),
	}

	return adapter.ProbeResult{AdapterKey: key, Tier: adapter.Experimental, Detect: detect, Capabilities: caps}, nil
}

// BuildCommand maps the abstract SpawnRequest onto cursor-agent's flags.
// sanitizePrompt strips characters cursor-agent's non-interactive prompt
// mode is known to mishandle.
func (a *Adapter) BuildCommand(req adapter.SpawnRequest) (adapter.BuiltCommand, error) {
	args := []string{"--print", sanitizePrompt(req.TaskPrompt)}

	if req.OutputJSONStream && contains(req.SupportedFlags, "--output-format") {
		args = append(args, "--output-format", "json")
	}
	if req.ForceEdit && contains(req.SupportedFlags, "--force") {
		args = append(args, "--force")
	}

	return adapter.BuiltCommand{
		Program: "cursor-agent",
		Args:    args,
		Cwd:     req.WorktreePath,
	}, nil
}

type event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (a *Adapter) ParseLine(line string) (adapter.AgentEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return adapter.AgentEvent{}, false
	}
	var ev event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		// cursor-agent's plain-text mode emits unstructured lines; treat
		// any non-empty line as a message rather than discarding it.
		return adapter.MessageEventOf(line), true
	}

	switch ev.Type {
	case "message", "assistant":
		return adapter.MessageEventOf(ev.Content), true
	case "done", "completed":
		summary := ev.Content
		return adapter.CompletedEventOf(&summary), true
	case "error":
		return adapter.FailedEventOf(ev.Error), true
	default:
		return adapter.MessageEventOf(line), true
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

func sanitizePrompt(prompt string) string {
	return strings.ReplaceAll(prompt, "\x00", "")
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
