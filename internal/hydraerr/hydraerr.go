// Package hydraerr defines the error-kind taxonomy shared across the
// orchestration kernel. A single Error type carries a Kind tag and wraps an
// optional cause, so callers use errors.Is/errors.As the normal way.
package hydraerr

import "fmt"

// Kind identifies which subsystem raised an error, for IpcError mapping and
// for the race engine's per-agent-vs-whole-race failure policy.
type Kind string

const (
	KindConfig   Kind = "config"
	KindAdapter  Kind = "adapter"
	KindWorktree Kind = "worktree"
	KindProcess  Kind = "process"
	KindScoring  Kind = "scoring"
	KindArtifact Kind = "artifact"
	KindGit      Kind = "git"
)

// Error wraps an underlying cause with a Kind and a short message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if he, ok := err.(*Error); ok {
			e = he
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// IpcCode maps a Kind to the small user-visible code set the outer CLI/GUI
// uses to render an IpcError envelope.
func IpcCode(kind Kind) string {
	switch kind {
	case KindConfig:
		return "validation_error"
	case KindAdapter:
		return "adapter_error"
	default:
		return "internal_error"
	}
}

// IpcError is the envelope the race engine's callers see when a run cannot
// even be started (as opposed to an agent_failed event for a mid-race
// failure, which is not an error at all).
type IpcError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *IpcError) Error() string { return e.Message }

// ToIpcError converts any error into the envelope, defaulting to
// internal_error for errors outside the Kind taxonomy.
func ToIpcError(err error) *IpcError {
	if err == nil {
		return nil
	}
	var he *Error
	cur := err
	for cur != nil {
		if h, ok := cur.(*Error); ok {
			he = h
			break
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	if he == nil {
		return &IpcError{Code: "internal_error", Message: err.Error()}
	}
	return &IpcError{Code: IpcCode(he.Kind), Message: he.Error()}
}
