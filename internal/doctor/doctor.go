// Package doctor assembles the health report shown by `hydra doctor`:
// adapter probe results plus a handful of git repository sanity checks.
package doctor

import (
	"context"
	"os/exec"
	"strings"

	"github.com/hydraai/hydra/internal/adapter"
	"github.com/hydraai/hydra/internal/probe"
)

// GitChecks reports on the repository hydra is being run against.
type GitChecks struct {
	IsRepo           bool    `json:"is_repo"`
	HasCommits       bool    `json:"has_commits"`
	CurrentBranch    *string `json:"current_branch,omitempty"`
	CleanWorkingTree bool    `json:"clean_working_tree"`
	Error            *string `json:"error,omitempty"`
}

// Report is the full doctor output.
type Report struct {
	Adapters      probe.Report `json:"adapters"`
	Git           GitChecks    `json:"git"`
	AllTier1Ready bool         `json:"all_tier1_ready"`
	GitOK         bool         `json:"git_ok"`
}

func NewReport(adapters probe.Report, git GitChecks) Report {
	return Report{
		Adapters:      adapters,
		Git:           git,
		AllTier1Ready: adapters.AllTier1Ready,
		GitOK:         git.IsRepo && git.HasCommits,
	}
}

func (r Report) Healthy() bool {
	return r.AllTier1Ready && r.GitOK
}

// CheckGitRepo runs `git` sanity checks in dir via plain os/exec (not
// gitexec.Run): these are cheap, best-effort boolean probes run outside any
// race, not race-critical subprocess invocations needing the bounded
// drain/timeout contract.
func CheckGitRepo(ctx context.Context, dir string) GitChecks {
	isRepo := runOK(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if !isRepo {
		errMsg := "not inside a git repository"
		return GitChecks{Error: &errMsg}
	}

	hasCommits := runOK(ctx, dir, "rev-parse", "HEAD")

	var currentBranch *string
	if out, ok := runOut(ctx, dir, "branch", "--show-current"); ok {
		branch := strings.TrimSpace(out)
		if branch != "" {
			currentBranch = &branch
		}
	}

	cleanTree := false
	if out, ok := runOut(ctx, dir, "status", "--porcelain"); ok {
		cleanTree = strings.TrimSpace(out) == ""
	}

	return GitChecks{
		IsRepo:           true,
		HasCommits:       hasCommits,
		CurrentBranch:    currentBranch,
		CleanWorkingTree: cleanTree,
	}
}

func runOK(ctx context.Context, dir string, args ...string) bool {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.Run() == nil
}

func runOut(ctx context.Context, dir string, args ...string) (string, bool) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Run probes every known adapter key and checks the repo at dir.
func Run(ctx context.Context, dir string) Report {
	runner := probe.NewRunner()
	keys := adapter.KnownKeys()
	probeReport := runner.Run(ctx, keys)
	git := CheckGitRepo(ctx, dir)
	return NewReport(probeReport, git)
}
