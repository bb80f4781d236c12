// Package artifact implements the per-run on-disk directory: an atomically
// rewritten manifest.json, an append-only events.jsonl, and raw
// stdout/stderr capture files.
package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hydraai/hydra/internal/hydraerr"
	"github.com/hydraai/hydra/internal/model"
)

// RunDir owns all filesystem state for one run. Event appends are
// serialized through appendMu, matching the "single owner of the file
// handle" requirement; manifest writes are serialized through manifestMu
// and are always a full atomic rewrite.
type RunDir struct {
	root string // <repo_root>/.hydra/runs/<run_id>

	manifestMu sync.Mutex

	appendMu   sync.Mutex
	eventsFile *os.File
}

func runsRoot(repoRoot string) string {
	return filepath.Join(repoRoot, ".hydra", "runs")
}

// LogsDir returns the directory raw stdout/stderr captures live in.
func (d *RunDir) LogsDir() string { return filepath.Join(d.root, "logs") }

func (d *RunDir) manifestPath() string { return filepath.Join(d.root, "manifest.json") }
func (d *RunDir) eventsPath() string   { return filepath.Join(d.root, "events.jsonl") }

// Root returns the run directory's absolute path.
func (d *RunDir) Root() string { return d.root }

// Create makes a fresh RunDir for runID under repoRoot, creating its
// directory tree (including logs/) and opening events.jsonl for append.
func Create(repoRoot, runID string) (*RunDir, error) {
	root := filepath.Join(runsRoot(repoRoot), runID)
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0o755); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindArtifact, "creating run directory", err)
	}

	d := &RunDir{root: root}
	f, err := os.OpenFile(d.eventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindArtifact, "opening events.jsonl", err)
	}
	d.eventsFile = f
	return d, nil
}

// Open attaches to an existing run directory (for reads only).
func Open(repoRoot, runID string) *RunDir {
	return &RunDir{root: filepath.Join(runsRoot(repoRoot), runID)}
}

// Close releases the events.jsonl file handle.
func (d *RunDir) Close() error {
	d.appendMu.Lock()
	defer d.appendMu.Unlock()
	if d.eventsFile == nil {
		return nil
	}
	err := d.eventsFile.Close()
	d.eventsFile = nil
	return err
}

// WriteManifest atomically rewrites manifest.json: write to a tempfile in
// the same directory, fsync, then rename over the target. Concurrent
// callers are serialized so manifest writes are totally ordered.
func (d *RunDir) WriteManifest(run *model.Run) error {
	d.manifestMu.Lock()
	defer d.manifestMu.Unlock()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return hydraerr.Wrap(hydraerr.KindArtifact, "marshaling manifest", err)
	}

	tmp, err := os.CreateTemp(d.root, "manifest.json.tmp-*")
	if err != nil {
		return hydraerr.Wrap(hydraerr.KindArtifact, "creating manifest tempfile", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return hydraerr.Wrap(hydraerr.KindArtifact, "writing manifest tempfile", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return hydraerr.Wrap(hydraerr.KindArtifact, "fsyncing manifest tempfile", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return hydraerr.Wrap(hydraerr.KindArtifact, "closing manifest tempfile", err)
	}
	if err := os.Rename(tmpPath, d.manifestPath()); err != nil {
		os.Remove(tmpPath)
		return hydraerr.Wrap(hydraerr.KindArtifact, "renaming manifest into place", err)
	}
	return nil
}

// ReadManifest reads and parses manifest.json. A corrupt manifest fails
// loudly, per contract — callers must not treat it as "no manifest yet".
func (d *RunDir) ReadManifest() (*model.Run, error) {
	data, err := os.ReadFile(d.manifestPath())
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindArtifact, "reading manifest.json", err)
	}
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindArtifact, "manifest.json is corrupt", err)
	}
	return &run, nil
}

// AppendEvent serializes event as one JSON line and appends it to
// events.jsonl, flushing before returning. Callers must already have
// redacted event.Data.
func (d *RunDir) AppendEvent(event model.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return hydraerr.Wrap(hydraerr.KindArtifact, "marshaling event", err)
	}
	line = append(line, '\n')

	d.appendMu.Lock()
	defer d.appendMu.Unlock()
	if d.eventsFile == nil {
		return hydraerr.New(hydraerr.KindArtifact, "events.jsonl is not open for append")
	}
	if _, err := d.eventsFile.Write(line); err != nil {
		return hydraerr.Wrap(hydraerr.KindArtifact, "appending event", err)
	}
	return d.eventsFile.Sync()
}

// ReadEvents streams every event in events.jsonl, in file order. Corrupt
// lines are skipped; skipped is the count of such lines.
func (d *RunDir) ReadEvents() (events []model.Event, skipped int, err error) {
	f, err := os.Open(d.eventsPath())
	if err != nil {
		return nil, 0, hydraerr.Wrap(hydraerr.KindArtifact, "opening events.jsonl", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, hydraerr.Wrap(hydraerr.KindArtifact, "scanning events.jsonl", err)
	}
	return events, skipped, nil
}

// LogWriter opens (creating if needed) logs/<agentKey>.<stream> for append,
// for raw post-mortem capture of stdout/stderr.
func (d *RunDir) LogWriter(agentKey, stream string) (*os.File, error) {
	path := filepath.Join(d.LogsDir(), fmt.Sprintf("%s.%s", agentKey, stream))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindArtifact, "opening "+path, err)
	}
	return f, nil
}
