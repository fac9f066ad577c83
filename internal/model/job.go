package model

import "time"

// Phase is a job's current lifecycle state.
type Phase string

const (
	PhaseQueued      Phase = "queued"
	PhaseDownloading Phase = "downloading"
	PhaseProcessing  Phase = "processing"
	PhaseReady       Phase = "ready"
	PhaseError       Phase = "error"
)

// Terminal reports whether no further forward transition is allowed from p.
// Cancellation is not a phase: a canceled job is removed from the registry.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseError
}

// Progress is the latest snapshot reported by the extraction tool. Values are
// pre-sanitized display strings, matching what the tool emits.
type Progress struct {
	Percent string `json:"percent"`
	Speed   string `json:"speed"`
	ETA     string `json:"eta"`
}

// Artifact describes the finished file of a Ready job.
type Artifact struct {
	Path     string      `json:"path"`
	Filename string      `json:"filename"`
	Size     int64       `json:"size"`
	Format   MediaFormat `json:"format"`
}

// Job is one user-initiated acquisition task. Exactly one of Progress,
// Artifact and ErrorMessage is meaningful for a given phase.
type Job struct {
	ID           string    `json:"id"`
	Phase        Phase     `json:"phase"`
	Progress     Progress  `json:"progress"`
	Artifact     *Artifact `json:"artifact,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
