// Package model holds the data types shared across the orchestration
// kernel: runs, agent records, events, and the small value types the
// scoring engine and adapters exchange.
package model

import "time"

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
	RunTimedOut  RunStatus = "timed_out"
)

// AgentStatus is the lifecycle state of a single AgentRecord.
type AgentStatus string

const (
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentFailed    AgentStatus = "failed"
	AgentTimedOut  AgentStatus = "timed_out"
	AgentCancelled AgentStatus = "cancelled"
)

const SchemaVersion = "1"

// TokenUsage accumulates input/output token counts reported by Usage events.
type TokenUsage struct {
	InputTokens  uint64 `json:"input_tokens"`
	OutputTokens uint64 `json:"output_tokens"`
}

func (u TokenUsage) Total() uint64 { return u.InputTokens + u.OutputTokens }

// Add returns the element-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// CostEstimate is the cost-accounting primitive handed to the budget
// enforcer. EstimatedCostUSD is always nil: no pricing table ships with
// this implementation (see internal/scoring/cost.go).
type CostEstimate struct {
	TokenUsage
	TotalTokens      uint64   `json:"total_tokens"`
	EstimatedCostUSD *float64 `json:"estimated_cost_usd,omitempty"`
}

// AgentRecord is the per-agent metadata nested inside a Run.
type AgentRecord struct {
	AgentKey       string      `json:"agent_key"`
	AdapterVersion *string     `json:"adapter_version,omitempty"`
	WorktreePath   string      `json:"worktree_path"`
	Branch         string      `json:"branch"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	Status         AgentStatus `json:"status"`
	TokenUsage     *TokenUsage `json:"token_usage,omitempty"`
	CostEstimateUSD *float64   `json:"cost_estimate_usd,omitempty"`
}

// Run is the full manifest persisted as manifest.json.
type Run struct {
	RunID          string        `json:"run_id"`
	SchemaVersion  string        `json:"schema_version"`
	RepoRoot       string        `json:"repo_root"`
	BaseRef        string        `json:"base_ref"`
	TaskPromptHash string        `json:"task_prompt_hash"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Status         RunStatus     `json:"status"`
	Agents         []AgentRecord `json:"agents"`
}

// EventType is the exhaustive set of JSONL event kinds.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventRunCompleted   EventType = "run_completed"
	EventRunFailed      EventType = "run_failed"
	EventAgentStarted   EventType = "agent_started"
	EventAgentCompleted EventType = "agent_completed"
	EventAgentFailed    EventType = "agent_failed"
	EventAgentStdout    EventType = "agent_stdout"
	EventAgentStderr    EventType = "agent_stderr"
	EventAgentMessage   EventType = "agent_message"
	EventAgentToolCall  EventType = "agent_tool_call"
	EventAgentToolResult EventType = "agent_tool_result"
	EventAgentProgress  EventType = "agent_progress"
	EventAgentUsage     EventType = "agent_usage"
	EventScoreStarted   EventType = "score_started"
	EventScoreFinished  EventType = "score_finished"
	EventMergeReady     EventType = "merge_ready"
	EventMergeSucceeded EventType = "merge_succeeded"
	EventMergeConflict  EventType = "merge_conflict"
)

// Event is one line of events.jsonl.
type Event struct {
	Timestamp int64          `json:"timestamp"`
	RunID     string         `json:"run_id"`
	AgentKey  string         `json:"agent_key,omitempty"`
	EventType EventType      `json:"event_type"`
	Data      map[string]any `json:"data,omitempty"`
}

// CommandResult is the scoring primitive produced by running a build/test/
// lint command.
type CommandResult struct {
	Command    string `json:"command"`
	Success    bool   `json:"success"`
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMs int64  `json:"duration_ms"`
}

// TestResult wraps a CommandResult with parsed pass/fail counts.
type TestResult struct {
	CommandResult
	Passed uint32 `json:"passed"`
	Failed uint32 `json:"failed"`
	Total  uint32 `json:"total"`
}

// LintResult wraps a CommandResult with parsed error/warning counts.
type LintResult struct {
	CommandResult
	Errors   uint32 `json:"errors"`
	Warnings uint32 `json:"warnings"`
}

// DiffScopeResult is the raw input to the diff_scope scoring dimension.
type DiffScopeResult struct {
	FilesChanged          uint32   `json:"files_changed"`
	LinesChurned          uint32   `json:"lines_churned"`
	TouchedProtectedPaths []string `json:"touched_protected_paths"`
}

// DimensionScore is one scored dimension, with JSON evidence for audit.
type DimensionScore struct {
	Name     string         `json:"name"`
	Score    float64        `json:"score"`
	Evidence map[string]any `json:"evidence"`
}
