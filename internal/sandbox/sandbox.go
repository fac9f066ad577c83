// Package sandbox owns the scratch directory every artifact lives under.
// All file paths the service touches must resolve inside it.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sandbox confines artifact files to a single directory and tracks delivery
// leases so the reaper never deletes a file that is being streamed.
type Sandbox struct {
	root string

	mu     sync.Mutex
	leases map[string]int
}

// New creates the scratch directory if needed and returns a sandbox rooted at
// its canonical absolute path.
func New(dir string) (*Sandbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Sandbox{
		root:   abs,
		leases: make(map[string]int),
	}, nil
}

// Root returns the sandbox root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve builds a path under the sandbox root for the given name. Any
// directory component in name is discarded.
func (s *Sandbox) Resolve(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Contains reports whether the canonicalized path is the sandbox root or
// strictly nested under it. Symlinks are resolved before the check so a link
// pointing outside the root does not pass.
func (s *Sandbox) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	// Resolve symlinks on the nearest existing ancestor so a dangling target
	// path is still judged by where it would land.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolvedDir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// Remove deletes the file at path if it exists. A missing file is not an
// error; deletion races between cancel, delivery cleanup and the reaper are
// expected. Paths outside the sandbox are rejected.
func (s *Sandbox) Remove(path string) error {
	if !s.Contains(path) {
		return fmt.Errorf("path outside sandbox: %s", filepath.Base(path))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemovePrefix deletes every sandbox file whose name starts with prefix.
// Used by cancellation to sweep partial downloads namespaced by a job id.
// Best-effort: the first error is returned but remaining files are still
// attempted.
func (s *Sandbox) RemovePrefix(prefix string) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := s.Remove(filepath.Join(s.root, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Lease marks a path as in active delivery. The reaper skips leased paths.
// Leases are counted, so overlapping deliveries of the same path are safe.
func (s *Sandbox) Lease(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[path]++
}

// Release drops one lease on the path.
func (s *Sandbox) Release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leases[path] <= 1 {
		delete(s.leases, path)
		return
	}
	s.leases[path]--
}

// Leased reports whether the path currently holds a delivery lease.
func (s *Sandbox) Leased(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leases[path] > 0
}
