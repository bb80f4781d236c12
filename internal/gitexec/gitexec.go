// Package gitexec runs git subprocesses under a bounded timeout, draining
// stdout/stderr concurrently and reporting timeout/non-zero-exit/IO
// failures as distinct, typed outcomes. There are no retries at this layer.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/hydraai/hydra/internal/hydraerr"
)

// DefaultTimeout is the default bound for a single git invocation.
const DefaultTimeout = 300 * time.Second

// MinVersion is the minimum supported git version.
var MinVersion = version.Must(version.NewVersion("2.20.0"))

// Result is the captured output of a successful git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// TimedOutError is returned when the child did not exit within the timeout.
type TimedOutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("git command timed out after %s: %s", e.Timeout, e.Command)
}

// NonZeroExitError is returned when git exits with a non-zero status.
type NonZeroExitError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *NonZeroExitError) Error() string {
	return fmt.Sprintf("git command failed (exit %d): %s\nstderr: %s", e.ExitCode, e.Command, e.Stderr)
}

// Run executes `git <args...>` in cwd, bounded by timeout. Stdout/stderr are
// drained on their own goroutines while the child runs; on timeout the child
// is killed and both drain goroutines are allowed to finish (and their
// partial output discarded) before TimedOutError is returned.
func Run(ctx context.Context, cwd string, timeout time.Duration, args ...string) (*Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = cwd

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "creating stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "creating stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "starting git", err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	drainDone := make(chan struct{}, 2)
	go func() { stdoutBuf.ReadFrom(stdoutPipe); drainDone <- struct{}{} }()
	go func() { stderrBuf.ReadFrom(stderrPipe); drainDone <- struct{}{} }()

	<-drainDone
	<-drainDone
	waitErr := cmd.Wait()

	rendered := renderCommand(args)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, &TimedOutError{Command: rendered, Timeout: timeout}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			return nil, &NonZeroExitError{
				Command:  rendered,
				ExitCode: code,
				Stdout:   stdoutBuf.String(),
				Stderr:   stderrBuf.String(),
			}
		}
		return nil, hydraerr.Wrap(hydraerr.KindGit, "running "+rendered, waitErr)
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: 0,
	}, nil
}

func renderCommand(args []string) string {
	return "git " + strings.Join(args, " ")
}

// CheckVersion runs `git --version` and confirms it parses to at least
// MinVersion. Nothing in this module calls it yet; Run itself does not check
// the git version.
func CheckVersion(ctx context.Context) (*version.Version, error) {
	res, err := Run(ctx, "", 5*time.Second, "--version")
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "git --version", err)
	}
	v, err := parseGitVersionString(res.Stdout)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "parsing git --version output", err)
	}
	if v.LessThan(MinVersion) {
		return v, hydraerr.New(hydraerr.KindGit,
			fmt.Sprintf("git %s is older than the minimum supported version %s", v, MinVersion))
	}
	return v, nil
}

func parseGitVersionString(out string) (*version.Version, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	for _, f := range fields {
		if v, err := version.NewVersion(f); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no parseable version token in %q", out)
}
