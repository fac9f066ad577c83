// Package reaper sweeps aged files out of the sandbox, independent of job
// state.
package reaper

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tubefetch/api/internal/sandbox"
)

// Reaper periodically deletes sandbox files older than the retention window.
type Reaper struct {
	sandbox   *sandbox.Sandbox
	retention time.Duration
	interval  time.Duration
	backoff   time.Duration
}

// New assembles a reaper. backoff is the shorter sleep applied after a
// pass-level failure.
func New(sb *sandbox.Sandbox, retention, interval, backoff time.Duration) *Reaper {
	return &Reaper{
		sandbox:   sb,
		retention: retention,
		interval:  interval,
		backoff:   backoff,
	}
}

// Run loops until the context is canceled. A failing pass never terminates
// the loop; it is logged and retried after the backoff.
func (r *Reaper) Run(ctx context.Context) {
	for {
		sleep := r.interval
		if err := r.Sweep(); err != nil {
			log.Printf("Sandbox cleanup pass failed: %v", err)
			sleep = r.backoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// Sweep deletes every sandbox file whose last-modified time is older than
// the retention window. Files under an active delivery lease are skipped.
// Per-file errors are logged and do not abort the pass.
func (r *Reaper) Sweep() error {
	entries, err := os.ReadDir(r.sandbox.Root())
	if err != nil {
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.sandbox.Root(), entry.Name())
		if r.sandbox.Leased(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("Error inspecting temp file %s: %v", entry.Name(), err)
			continue
		}
		if now.Sub(info.ModTime()) <= r.retention {
			continue
		}
		if err := r.sandbox.Remove(path); err != nil {
			log.Printf("Error deleting temp file %s: %v", entry.Name(), err)
			continue
		}
		log.Printf("Deleted old temp file: %s", entry.Name())
	}
	return nil
}
