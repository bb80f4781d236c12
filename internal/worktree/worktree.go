// Package worktree allocates and releases per-agent Git worktrees: one
// branch and directory per (run_id, agent_key) pair, cut from a base ref.
package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hydraai/hydra/internal/config"
	"github.com/hydraai/hydra/internal/gitexec"
	"github.com/hydraai/hydra/internal/hydraerr"
)

// Handle identifies one allocated worktree.
type Handle struct {
	RunID    string
	AgentKey string
	Branch   string
	Path     string
	Succeeded bool // set by the caller before Release, drives retention
}

// Manager allocates/releases worktrees under repoRoot according to cfg.
// Allocation is serialized per run_id (one mutex per run) to avoid Git
// index contention when several agents of the same race allocate at once.
type Manager struct {
	repoRoot string
	cfg      config.WorktreeConfig
	timeout  time.Duration

	mu      sync.Mutex
	perRun  map[string]*sync.Mutex
}

func NewManager(repoRoot string, cfg config.WorktreeConfig) *Manager {
	return &Manager{
		repoRoot: repoRoot,
		cfg:      cfg,
		timeout:  gitexec.DefaultTimeout,
		perRun:   make(map[string]*sync.Mutex),
	}
}

func (m *Manager) runLock(runID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.perRun[runID]
	if !ok {
		l = &sync.Mutex{}
		m.perRun[runID] = l
	}
	return l
}

// BranchName returns the branch this manager would use for (runID, agentKey).
func BranchName(runID, agentKey string) string {
	return fmt.Sprintf("hydra/%s/%s", runID, agentKey)
}

func (m *Manager) worktreePath(runID, agentKey string) string {
	return filepath.Join(m.repoRoot, m.cfg.BaseDir, runID, agentKey)
}

// Allocate creates a worktree on a new branch cut from baseRef.
func (m *Manager) Allocate(ctx context.Context, runID, agentKey, baseRef string) (*Handle, error) {
	lock := m.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	branch := BranchName(runID, agentKey)
	path := m.worktreePath(runID, agentKey)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindWorktree, "preparing worktree parent dir", err)
	}

	if _, err := gitexec.Run(ctx, m.repoRoot, m.timeout,
		"worktree", "add", "-b", branch, path, baseRef); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindWorktree,
			fmt.Sprintf("git worktree add %s %s %s", branch, path, baseRef), err)
	}

	return &Handle{RunID: runID, AgentKey: agentKey, Branch: branch, Path: path}, nil
}

// Release removes the worktree per the configured retention policy.
// - none:   always removed.
// - failed: removed unless h.Succeeded.
// - all:    never removed.
func (m *Manager) Release(ctx context.Context, h *Handle) error {
	switch m.cfg.Retain {
	case config.RetentionAll:
		return nil
	case config.RetentionFailed:
		if h.Succeeded {
			return nil
		}
	case config.RetentionNone:
		// fall through to removal
	}

	lock := m.runLock(h.RunID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := gitexec.Run(ctx, m.repoRoot, m.timeout,
		"worktree", "remove", "--force", h.Path); err != nil {
		return hydraerr.Wrap(hydraerr.KindWorktree, "git worktree remove --force "+h.Path, err)
	}
	return nil
}
