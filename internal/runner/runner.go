// Package runner drives one download job through its lifecycle: probe,
// fetch, optional transcode, registry bookkeeping and cleanup on every
// failure path.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tubefetch/api/internal/extractor"
	"github.com/tubefetch/api/internal/model"
	"github.com/tubefetch/api/internal/registry"
	"github.com/tubefetch/api/internal/sandbox"
	"github.com/tubefetch/api/internal/sanitize"
	"github.com/tubefetch/api/internal/transcoder"
	ws "github.com/tubefetch/api/internal/websocket"
)

// ErrUnsupportedFormat is recorded when a job requests an output kind other
// than mp4 or mp3. The extractor is never invoked for such a job.
var ErrUnsupportedFormat = errors.New("only mp4 and mp3 formats are supported")

const maxTitleLen = 150

// Limits bound every fetch a runner performs.
type Limits struct {
	MaxFileSize         int64
	SocketTimeout       time.Duration
	Retries             int
	FragmentConcurrency int
}

// Runner executes jobs. Each job runs in its own goroutine and shares no
// mutable state with other jobs; the registry is the only cross-job surface.
type Runner struct {
	registry   *registry.Registry
	sandbox    *sandbox.Sandbox
	extractor  extractor.Extractor
	transcoder transcoder.Transcoder
	hub        *ws.Hub
	limits     Limits
}

// New assembles a runner.
func New(reg *registry.Registry, sb *sandbox.Sandbox, ex extractor.Extractor, tc transcoder.Transcoder, hub *ws.Hub, limits Limits) *Runner {
	return &Runner{
		registry:   reg,
		sandbox:    sb,
		extractor:  ex,
		transcoder: tc,
		hub:        hub,
		limits:     limits,
	}
}

// Run executes the job to completion. It never returns an error to the
// caller: outcomes are recorded in the registry and observed by polling.
// Cancellation is cooperative: the registry entry disappearing is the signal
// to discard results and clean up.
func (r *Runner) Run(ctx context.Context, id, url string, format model.MediaFormat, quality model.Quality) {
	if !format.Valid() {
		r.fail(id, ErrUnsupportedFormat)
		return
	}

	if !r.registry.SetDownloading(id) {
		// Entry gone or not queued anymore; nothing to do.
		return
	}

	meta, err := r.extractor.Probe(ctx, url)
	if err != nil {
		r.fail(id, err)
		return
	}
	if meta.IsLive || meta.WasLive {
		r.fail(id, fmt.Errorf("%w: please provide a non-live video URL", extractor.ErrLiveStream))
		return
	}

	base := fmt.Sprintf("%s_%s", id, sanitize.Filename(meta.Title, maxTitleLen))
	containerPath := r.sandbox.Resolve(base + ".mp4")

	err = r.extractor.Fetch(ctx, url, extractor.FetchOptions{
		OutputPath:          containerPath,
		FormatSelector:      extractor.FormatSelector(quality),
		MaxFileSize:         r.limits.MaxFileSize,
		SocketTimeout:       r.limits.SocketTimeout,
		Retries:             r.limits.Retries,
		FragmentConcurrency: r.limits.FragmentConcurrency,
		OnProgress: func(p extractor.Progress) {
			snapshot := model.Progress{Percent: p.Percent, Speed: p.Speed, ETA: p.ETA}
			r.registry.SetProgress(id, snapshot)
			r.hub.BroadcastProgress(id, model.PhaseDownloading, snapshot)
		},
	})
	if err != nil {
		r.fail(id, err, containerPath)
		return
	}

	info, err := os.Stat(containerPath)
	if err != nil {
		r.fail(id, errors.New("download failed: file not created"), containerPath)
		return
	}
	if info.Size() == 0 {
		r.fail(id, errors.New("download failed: file is empty"), containerPath)
		return
	}

	// The fetch may have outlived a cancellation; a missing entry means the
	// result must be discarded, not resurrected.
	if !r.registry.Exists(id) {
		r.discard(id, containerPath)
		return
	}

	finalPath := containerPath
	finalFormat := model.FormatMP4

	if format == model.FormatMP3 {
		r.registry.SetProcessing(id)
		r.hub.BroadcastProgress(id, model.PhaseProcessing, model.Progress{Percent: "100%"})

		audioPath := r.sandbox.Resolve(base + ".mp3")
		if err := r.transcoder.Convert(ctx, containerPath, audioPath); err != nil {
			r.fail(id, err, containerPath, audioPath)
			return
		}
		if err := r.sandbox.Remove(containerPath); err != nil {
			log.Printf("Error removing intermediate file for job %s: %v", id, err)
		}
		finalPath = audioPath
		finalFormat = model.FormatMP3
	}

	info, err = os.Stat(finalPath)
	if err != nil {
		r.fail(id, errors.New("transcode failed: file not created"), finalPath)
		return
	}

	artifact := model.Artifact{
		Path:     finalPath,
		Filename: fmt.Sprintf("%s.%s", sanitize.Filename(meta.Title, maxTitleLen), finalFormat),
		Size:     info.Size(),
		Format:   finalFormat,
	}

	if !r.registry.SetReady(id, artifact) {
		// Canceled while transcoding; the file must not survive.
		r.discard(id, finalPath)
		return
	}

	r.hub.BroadcastComplete(id, artifact)
	log.Printf("Download job %s ready: %s (%d bytes)", id, artifact.Filename, artifact.Size)
}

// fail deletes every file this run created, records a sanitized error and
// notifies subscribers. Cleanup is best-effort and never aborts the job's
// own teardown.
func (r *Runner) fail(id string, cause error, paths ...string) {
	for _, path := range paths {
		if err := r.sandbox.Remove(path); err != nil {
			log.Printf("Error cleaning up file for job %s: %v", id, err)
		}
	}

	msg := sanitize.ErrorMessage(cause.Error())
	log.Printf("Download job %s failed: %s", id, msg)
	if r.registry.SetError(id, msg) {
		r.hub.BroadcastError(id, msg)
	}
}

// discard removes files produced after the job was canceled out from under
// this run.
func (r *Runner) discard(id string, paths ...string) {
	log.Printf("Download job %s canceled, discarding result", id)
	for _, path := range paths {
		if err := r.sandbox.Remove(path); err != nil {
			log.Printf("Error discarding file for job %s: %v", id, err)
		}
	}
}
