package doctor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydraai/hydra/internal/probe"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func TestCheckGitRepo_CleanRepoWithCommit(t *testing.T) {
	dir := initRepoWithCommit(t)

	checks := CheckGitRepo(context.Background(), dir)

	assert.True(t, checks.IsRepo)
	assert.True(t, checks.HasCommits)
	assert.True(t, checks.CleanWorkingTree)
	assert.Nil(t, checks.Error)
	require.NotNil(t, checks.CurrentBranch)
}

func TestCheckGitRepo_DirtyWorkingTree(t *testing.T) {
	dir := initRepoWithCommit(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o644))

	checks := CheckGitRepo(context.Background(), dir)

	assert.True(t, checks.IsRepo)
	assert.False(t, checks.CleanWorkingTree)
}

func TestCheckGitRepo_RepoWithoutCommits(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	checks := CheckGitRepo(context.Background(), dir)

	assert.True(t, checks.IsRepo)
	assert.False(t, checks.HasCommits)
}

func TestCheckGitRepo_NotARepo(t *testing.T) {
	dir := t.TempDir()

	checks := CheckGitRepo(context.Background(), dir)

	assert.False(t, checks.IsRepo)
	require.NotNil(t, checks.Error)
}

func TestNewReport_HealthyRequiresTier1AndGit(t *testing.T) {
	allReady := NewReport(probe.Report{AllTier1Ready: true}, GitChecks{IsRepo: true, HasCommits: true})
	assert.True(t, allReady.Healthy())

	notReady := NewReport(probe.Report{AllTier1Ready: false}, GitChecks{IsRepo: true, HasCommits: true})
	assert.False(t, notReady.Healthy())

	noGit := NewReport(probe.Report{AllTier1Ready: true}, GitChecks{IsRepo: false})
	assert.False(t, noGit.Healthy())
}

func TestRun_AggregatesAdaptersAndGit(t *testing.T) {
	dir := initRepoWithCommit(t)

	report := Run(context.Background(), dir)

	assert.True(t, report.Git.IsRepo)
	assert.NotNil(t, report.Adapters.Results)
}
