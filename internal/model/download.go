package model

// MediaFormat is a supported output container.
type MediaFormat string

const (
	FormatMP4 MediaFormat = "mp4"
	FormatMP3 MediaFormat = "mp3"
)

// Valid reports whether the format is one of the two supported output kinds.
func (f MediaFormat) Valid() bool {
	return f == FormatMP4 || f == FormatMP3
}

// MIMEType returns the content type served for the format.
func (f MediaFormat) MIMEType() string {
	switch f {
	case FormatMP4:
		return "video/mp4"
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// Quality selects the maximum resolution of the fetched container.
type Quality string

const (
	QualityBest Quality = "best"
	Quality720p Quality = "720p"
	Quality480p Quality = "480p"
)

// StartDownloadRequest is the body of POST /start_download.
type StartDownloadRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Format  string `json:"format" validate:"omitempty,oneof=mp4 mp3"`
	Quality string `json:"quality" validate:"omitempty,oneof=best 720p 480p"`
}

// StartDownloadResponse acknowledges a dispatched job.
type StartDownloadResponse struct {
	Status     string `json:"status"`
	DownloadID string `json:"download_id"`
}

// ProgressStatusResponse is the polling payload for a job that is still
// queued, downloading or transcoding.
type ProgressStatusResponse struct {
	Status   string `json:"status"`
	Progress string `json:"progress"`
	Speed    string `json:"speed"`
	ETA      string `json:"eta"`
	State    string `json:"state"`
}

// ReadyStatusResponse is the polling payload for a finished job. Path is
// informational metadata only; the file is fetched via /download_file.
type ReadyStatusResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}
