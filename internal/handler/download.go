package handler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tubefetch/api/internal/model"
	"github.com/tubefetch/api/internal/registry"
	"github.com/tubefetch/api/internal/runner"
	"github.com/tubefetch/api/internal/sandbox"
	"github.com/tubefetch/api/pkg/response"
)

// DownloadHandler maps the download-job routes onto the registry, runner and
// sandbox.
type DownloadHandler struct {
	registry  *registry.Registry
	sandbox   *sandbox.Sandbox
	runner    *runner.Runner
	validator *validator.Validate
}

func NewDownloadHandler(reg *registry.Registry, sb *sandbox.Sandbox, run *runner.Runner, v *validator.Validate) *DownloadHandler {
	return &DownloadHandler{
		registry:  reg,
		sandbox:   sb,
		runner:    run,
		validator: v,
	}
}

// Start handles POST /start_download. The job is registered before the
// response is written, so an immediate status poll can never miss it; the
// fetch itself runs detached from this request.
func (h *DownloadHandler) Start(c *fiber.Ctx) error {
	var req model.StartDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return response.BadRequest(c, "URL is required")
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.BadRequest(c, "Only MP4 and MP3 formats are supported")
	}

	format := model.MediaFormat(req.Format)
	if req.Format == "" {
		format = model.FormatMP4
	}
	quality := model.Quality(req.Quality)
	if req.Quality == "" {
		quality = model.QualityBest
	}

	id := h.registry.Create()
	go h.runner.Run(context.Background(), id, req.URL, format, quality)

	return response.OK(c, model.StartDownloadResponse{
		Status:     "started",
		DownloadID: id,
	})
}

// Status handles GET /download_status/:id.
func (h *DownloadHandler) Status(c *fiber.Ctx) error {
	job, ok := h.registry.Get(c.Params("id"))
	if !ok {
		return response.NotFound(c)
	}

	switch job.Phase {
	case model.PhaseReady:
		return response.OK(c, model.ReadyStatusResponse{
			Status:   "ready",
			Filename: job.Artifact.Filename,
			Path:     job.Artifact.Path,
			Size:     job.Artifact.Size,
			Format:   string(job.Artifact.Format),
		})
	case model.PhaseError:
		return response.OK(c, response.StatusMessage{
			Status:  "error",
			Message: job.ErrorMessage,
		})
	default:
		return response.OK(c, progressPayload(job))
	}
}

func progressPayload(job model.Job) model.ProgressStatusResponse {
	state := "starting"
	switch job.Phase {
	case model.PhaseDownloading:
		state = "downloading"
	case model.PhaseProcessing:
		state = "processing"
	}
	resp := model.ProgressStatusResponse{
		Status:   "progress",
		Progress: job.Progress.Percent,
		Speed:    job.Progress.Speed,
		ETA:      job.Progress.ETA,
		State:    state,
	}
	if resp.Progress == "" {
		resp.Progress = "0%"
	}
	if resp.Speed == "" {
		resp.Speed = "?"
	}
	if resp.ETA == "" {
		resp.ETA = "?"
	}
	return resp
}

// File handles GET /download_file/:id. The registry entry and the artifact
// file are torn down together once the stream is flushed, whether the client
// read it all or disconnected.
func (h *DownloadHandler) File(c *fiber.Ctx) error {
	id := c.Params("id")

	job, err := h.registry.ClaimDelivery(id)
	if err == registry.ErrNotFound {
		return response.NotFound(c)
	}
	if err == registry.ErrNotReady {
		if job.Phase == model.PhaseError {
			return response.BadRequest(c, job.ErrorMessage)
		}
		return response.BadRequest(c, "File not ready")
	}

	artifact := job.Artifact
	if !h.sandbox.Contains(artifact.Path) {
		// The claim is spent; the entry must not dangle behind a bad path.
		h.registry.Remove(id)
		return response.BadRequest(c, "Invalid file path")
	}

	h.sandbox.Lease(artifact.Path)
	f, err := os.Open(artifact.Path)
	if err != nil {
		h.sandbox.Release(artifact.Path)
		h.registry.Remove(id)
		return response.ServerError(c, "File no longer available")
	}

	sizeMB := float64(artifact.Size) / (1024 * 1024)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Set(fiber.HeaderContentType, artifact.Format.MIMEType())
	c.Set("X-File-Size", fmt.Sprintf("%d", artifact.Size))
	c.Set("X-File-Size-MB", fmt.Sprintf("%.1f", sizeMB))

	return c.SendStream(&deliveryStream{
		file:    f,
		handler: h,
		jobID:   id,
		path:    artifact.Path,
	}, int(artifact.Size))
}

// deliveryStream streams the artifact and tears down the registry entry and
// the file together when the transport closes it.
type deliveryStream struct {
	file    *os.File
	handler *DownloadHandler
	jobID   string
	path    string
	once    sync.Once
}

func (d *deliveryStream) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

func (d *deliveryStream) Close() error {
	d.once.Do(func() {
		d.file.Close()
		if err := d.handler.sandbox.Remove(d.path); err != nil {
			log.Printf("Error cleaning up delivered file: %v", err)
		}
		d.handler.sandbox.Release(d.path)
		d.handler.registry.Remove(d.jobID)
		log.Printf("Delivered and cleaned up job %s", d.jobID)
	})
	return nil
}

// Cancel handles GET /cancel_download/:id. Removing the registry entry is
// the cancellation signal the runner observes; any file already materialized
// under the job's id prefix is swept here.
func (h *DownloadHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")

	job, ok := h.registry.Remove(id)
	if !ok {
		return response.NotFound(c)
	}

	if job.Artifact != nil {
		if err := h.sandbox.Remove(job.Artifact.Path); err != nil {
			log.Printf("Error removing canceled artifact for job %s: %v", id, err)
		}
	}
	if err := h.sandbox.RemovePrefix(id + "_"); err != nil {
		log.Printf("Error sweeping partial files for job %s: %v", id, err)
	}

	return response.Canceled(c)
}
