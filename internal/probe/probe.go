// Package probe runs every registered adapter's readiness probe
// concurrently and aggregates the results into a report Doctor and the race
// engine both consume.
package probe

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hydraai/hydra/internal/adapter"
)

// Ceiling is the per-probe time budget; exceeding it yields a blocked
// result with reason probe_timeout rather than hanging the whole report.
const Ceiling = 5 * time.Second

// Report aggregates every adapter's ProbeResult.
type Report struct {
	Results       map[string]adapter.ProbeResult `json:"results"`
	AllTier1Ready bool                           `json:"all_tier1_ready"`
}

// Runner executes probes, with a short-lived cache so repeated Doctor
// invocations within one process don't re-invoke --version/--help on every
// call.
type Runner struct {
	cache *lru.Cache[string, adapter.ProbeResult]
	mu    sync.Mutex
}

func NewRunner() *Runner {
	c, _ := lru.New[string, adapter.ProbeResult](64)
	return &Runner{cache: c}
}

// Run probes every adapter key in keys concurrently.
func (r *Runner) Run(ctx context.Context, keys []string) Report {
	results := make(map[string]adapter.ProbeResult, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			res := r.probeOne(gctx, key)
			mu.Lock()
			results[key] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probeOne never returns an error; failures are encoded in DetectResult

	allTier1Ready := true
	for _, res := range results {
		if res.Tier == adapter.Tier1 && !res.Detect.Status.IsAvailable() {
			allTier1Ready = false
		}
	}

	return Report{Results: results, AllTier1Ready: allTier1Ready}
}

func (r *Runner) probeOne(ctx context.Context, key string) adapter.ProbeResult {
	if cached, ok := r.cachedResult(key); ok {
		return cached
	}

	a, err := adapter.Get(key)
	if err != nil {
		errMsg := err.Error()
		return adapter.ProbeResult{
			AdapterKey: key,
			Detect: adapter.DetectResult{
				Status:     adapter.StatusMissing,
				Confidence: adapter.ConfidenceVerified,
				Error:      &errMsg,
			},
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, Ceiling)
	defer cancel()

	type outcome struct {
		res adapter.ProbeResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := a.Probe(probeCtx)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			errMsg := o.err.Error()
			o.res.Detect.Status = adapter.StatusBlocked
			o.res.Detect.Error = &errMsg
		}
		o.res.AdapterKey = key
		o.res.Tier = a.Tier()
		r.cacheResult(key, o.res)
		return o.res
	case <-probeCtx.Done():
		reason := "probe_timeout"
		return adapter.ProbeResult{
			AdapterKey: key,
			Tier:       a.Tier(),
			Detect: adapter.DetectResult{
				Status:     adapter.StatusBlocked,
				Confidence: adapter.ConfidenceUnknown,
				Error:      &reason,
			},
		}
	}
}

func (r *Runner) cachedResult(key string) (adapter.ProbeResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Get(key)
}

func (r *Runner) cacheResult(key string, res adapter.ProbeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(key, res)
}
