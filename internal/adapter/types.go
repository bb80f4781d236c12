// Package adapter abstracts heterogeneous agent CLIs behind a uniform
// probe + spawn + parse contract, and holds the registry of known adapters.
package adapter

// Tier classifies how production-ready an adapter is.
type Tier string

const (
	Tier1        Tier = "tier1"
	Experimental Tier = "experimental"
)

func (t Tier) String() string { return string(t) }

// Confidence describes how an adapter learned a capability's support.
type Confidence string

const (
	ConfidenceVerified Confidence = "verified"
	ConfidenceObserved Confidence = "observed"
	ConfidenceUnknown  Confidence = "unknown"
)

// Capability is one entry of a CapabilitySet.
type Capability struct {
	Supported  bool       `json:"supported"`
	Confidence Confidence `json:"confidence"`
}

func VerifiedCapability(supported bool) Capability {
	return Capability{Supported: supported, Confidence: ConfidenceVerified}
}

func ObservedCapability(supported bool) Capability {
	return Capability{Supported: supported, Confidence: ConfidenceObserved}
}

func UnknownCapability() Capability {
	return Capability{Supported: false, Confidence: ConfidenceUnknown}
}

// CapabilitySet records what an adapter's probe discovered about its CLI.
type CapabilitySet struct {
	JSONStream      Capability `json:"json_stream"`
	PlainText       Capability `json:"plain_text"`
	ForceEditMode   Capability `json:"force_edit_mode"`
	SandboxControls Capability `json:"sandbox_controls"`
	ApprovalControls Capability `json:"approval_controls"`
	SessionResume   Capability `json:"session_resume"`
	EmitsUsage      Capability `json:"emits_usage"`
}

// DetectStatus is the outcome of a probe's binary-discovery step.
type DetectStatus string

const (
	StatusReady                DetectStatus = "ready"
	StatusBlocked              DetectStatus = "blocked"
	StatusExperimentalReady    DetectStatus = "experimental_ready"
	StatusExperimentalBlocked  DetectStatus = "experimental_blocked"
	StatusMissing              DetectStatus = "missing"
)

// IsAvailable reports whether the adapter can be raced against at all.
func (s DetectStatus) IsAvailable() bool {
	return s == StatusReady || s == StatusExperimentalReady
}

// DetectResult is the full output of an adapter's probe.
type DetectResult struct {
	Status         DetectStatus `json:"status"`
	BinaryPath     *string      `json:"binary_path,omitempty"`
	Version        *string      `json:"version,omitempty"`
	SupportedFlags []string     `json:"supported_flags"`
	Confidence     Confidence   `json:"confidence"`
	Error          *string      `json:"error,omitempty"`
}

// ProbeResult is one adapter's readiness report.
type ProbeResult struct {
	AdapterKey   string        `json:"adapter_key"`
	Tier         Tier          `json:"tier"`
	Detect       DetectResult  `json:"detect"`
	Capabilities CapabilitySet `json:"capabilities"`
}

// SpawnRequest is what the race engine hands an adapter to build a command.
type SpawnRequest struct {
	TaskPrompt       string
	WorktreePath     string
	TimeoutSeconds   uint64
	AllowNetwork     bool
	ForceEdit        bool
	OutputJSONStream bool
	UnsafeMode       bool
	SupportedFlags   []string
}

// BuiltCommand is the concrete subprocess an adapter wants run.
type BuiltCommand struct {
	Program string
	Args    []string
	Env     []string
	Cwd     string
}

// AgentEventKind tags the normalized event variants an adapter can parse.
type AgentEventKind string

const (
	KindMessage    AgentEventKind = "message"
	KindToolCall   AgentEventKind = "tool_call"
	KindToolResult AgentEventKind = "tool_result"
	KindProgress   AgentEventKind = "progress"
	KindCompleted  AgentEventKind = "completed"
	KindFailed     AgentEventKind = "failed"
	KindUsage      AgentEventKind = "usage"
)

// AgentEvent is the normalized event an adapter's parse_line/parse_raw
// produces. Exactly one of the typed fields is non-nil, selected by Kind.
type AgentEvent struct {
	Kind AgentEventKind

	Message    *MessageEvent
	ToolCall   *ToolCallEvent
	ToolResult *ToolResultEvent
	Progress   *ProgressEvent
	Completed  *CompletedEvent
	Failed     *FailedEvent
	Usage      *UsageEvent
}

type MessageEvent struct{ Content string }

type ToolCallEvent struct {
	Tool  string
	Input map[string]any
}

type ToolResultEvent struct {
	Tool   string
	Output map[string]any
}

type ProgressEvent struct {
	Message   string
	Percent   *float64
	Truncated bool
}

type CompletedEvent struct{ Summary *string }

type FailedEvent struct{ Error string }

type UsageEvent struct {
	InputTokens  uint64
	OutputTokens uint64
	Extra        map[string]any
}

func MessageEventOf(content string) AgentEvent {
	return AgentEvent{Kind: KindMessage, Message: &MessageEvent{Content: content}}
}

func UsageEventOf(input, output uint64, extra map[string]any) AgentEvent {
	return AgentEvent{Kind: KindUsage, Usage: &UsageEvent{InputTokens: input, OutputTokens: output, Extra: extra}}
}

func CompletedEventOf(summary *string) AgentEvent {
	return AgentEvent{Kind: KindCompleted, Completed: &CompletedEvent{Summary: summary}}
}

func FailedEventOf(errMsg string) AgentEvent {
	return AgentEvent{Kind: KindFailed, Failed: &FailedEvent{Error: errMsg}}
}
