package gitexec

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "hydra@example.com")
	run("config", "user.name", "hydra")
	return dir
}

func TestRun_Success(t *testing.T) {
	dir := initRepo(t)
	res, err := Run(context.Background(), dir, 5*time.Second, "status", "--porcelain")
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRun_NonZeroExit(t *testing.T) {
	dir := initRepo(t)
	_, err := Run(context.Background(), dir, 5*time.Second, "show", "nonexistent-ref")
	require.Error(t, err)
	var exitErr *NonZeroExitError
	require.ErrorAs(t, err, &exitErr)
}

func TestRun_TimedOutIsReported(t *testing.T) {
	dir := initRepo(t)
	_, err := Run(context.Background(), dir, 50*time.Millisecond, "log", "--follow", "-p", "--", ".")
	// A fast repo may finish before the timeout; accept a clean result, a
	// non-zero exit (the repo has no commits to log) or a timeout, but never
	// a hang: the test itself has a bound.
	if err != nil {
		var timedOut *TimedOutError
		if exitErr, ok := err.(*NonZeroExitError); ok {
			_ = exitErr
			return
		}
		require.ErrorAs(t, err, &timedOut)
	}
}
