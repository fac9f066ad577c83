// Package registry is the shared in-memory map from job id to job state.
// All state is lost on restart; in-flight jobs at restart time are
// unrecoverable.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tubefetch/api/internal/model"
)

var (
	// ErrNotFound means the job id was never issued or the entry was removed.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means a delivery was requested before the job reached Ready.
	ErrNotReady = errors.New("job not ready")
)

// entry pairs one job with its own lock. Operations on different ids never
// contend; the registry lock covers only map insert, lookup and remove.
type entry struct {
	mu        sync.Mutex
	job       model.Job
	delivered bool
}

// Registry provides atomic per-job state transitions and progress updates.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Create registers a new job in the Queued phase and returns its id.
func (r *Registry) Create() string {
	id := uuid.New().String()
	e := &entry{
		job: model.Job{
			ID:        id,
			Phase:     model.PhaseQueued,
			CreatedAt: time.Now(),
		},
	}
	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return id
}

func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// SetDownloading moves a Queued job to the Downloading phase.
func (r *Registry) SetDownloading(id string) bool {
	return r.transition(id, model.PhaseQueued, model.PhaseDownloading)
}

// SetProcessing moves a Downloading job to the Processing (transcoding) phase.
func (r *Registry) SetProcessing(id string) bool {
	return r.transition(id, model.PhaseDownloading, model.PhaseProcessing)
}

func (r *Registry) transition(id string, from, to model.Phase) bool {
	e := r.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Phase != from {
		return false
	}
	e.job.Phase = to
	return true
}

// SetProgress overwrites the job's latest progress snapshot. A late callback
// racing a cancellation or a terminal transition is silently dropped.
func (r *Registry) SetProgress(id string, p model.Progress) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Phase.Terminal() {
		return
	}
	e.job.Progress = p
}

// SetReady records the finished artifact and moves the job to Ready. It
// returns false when the entry is gone (canceled) or already terminal, in
// which case the caller must discard the artifact file.
func (r *Registry) SetReady(id string, artifact model.Artifact) bool {
	e := r.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Phase.Terminal() {
		return false
	}
	e.job.Phase = model.PhaseReady
	e.job.Artifact = &artifact
	return true
}

// SetError records a sanitized failure message and moves the job to Error.
// Dropped when the entry is gone or already terminal.
func (r *Registry) SetError(id string, message string) bool {
	e := r.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Phase.Terminal() {
		return false
	}
	e.job.Phase = model.PhaseError
	e.job.ErrorMessage = message
	return true
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (model.Job, bool) {
	e := r.lookup(id)
	if e == nil {
		return model.Job{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job, true
}

// Exists reports whether the entry is still present. The runner re-checks
// presence before committing results; a removed entry is the cancellation
// signal.
func (r *Registry) Exists(id string) bool {
	return r.lookup(id) != nil
}

// Remove deletes the entry and returns its final snapshot so the caller can
// clean up the artifact file.
func (r *Registry) Remove(id string) (model.Job, bool) {
	r.mu.Lock()
	e := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if e == nil {
		return model.Job{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job, true
}

// ClaimDelivery atomically claims a Ready job for streaming. At most one
// caller ever wins the claim for a given id; later callers get ErrNotFound as
// if the entry were already gone.
func (r *Registry) ClaimDelivery(id string) (model.Job, error) {
	e := r.lookup(id)
	if e == nil {
		return model.Job{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.delivered {
		return model.Job{}, ErrNotFound
	}
	if e.job.Phase != model.PhaseReady {
		return e.job, ErrNotReady
	}
	e.delivered = true
	return e.job, nil
}
