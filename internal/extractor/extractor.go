// Package extractor wraps the external media extraction tool behind a narrow
// interface. Implementations resolve a source URL to metadata and fetch the
// media into a caller-chosen path.
package extractor

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the upstream source does not exist or is unavailable.
	ErrNotFound = errors.New("source not found")
	// ErrLiveStream means the source is a live or previously-live stream,
	// which this service refuses before fetching any bytes.
	ErrLiveStream = errors.New("livestreams are not supported")
	// ErrNetwork covers timeouts and connection failures against upstream.
	ErrNetwork = errors.New("network error")
	// ErrUpstreamRejected means upstream refused the request (geo block,
	// login wall, HTTP 403 and similar).
	ErrUpstreamRejected = errors.New("upstream rejected request")
)

// Metadata is what a probe learns about a source before downloading.
type Metadata struct {
	Title   string
	IsLive  bool
	WasLive bool
}

// Progress is a snapshot emitted during a fetch. Values are display strings
// already stripped of terminal escape sequences.
type Progress struct {
	Percent string
	Speed   string
	ETA     string
}

// FetchOptions bound a single fetch call.
type FetchOptions struct {
	// OutputPath is the exact file the media is written to.
	OutputPath string
	// FormatSelector is the tool-specific stream selection expression.
	FormatSelector string
	// MaxFileSize aborts the fetch when the media exceeds this many bytes.
	MaxFileSize int64
	// SocketTimeout bounds each network operation.
	SocketTimeout time.Duration
	// Retries bounds how often a failed fragment is retried.
	Retries int
	// FragmentConcurrency bounds parallel fragment downloads.
	FragmentConcurrency int
	// OnProgress, when set, is invoked zero or more times during the fetch.
	// It must stay cheap: it runs synchronously on the fetch path.
	OnProgress func(Progress)
}

// Extractor resolves source URLs to downloadable media.
type Extractor interface {
	// Probe returns metadata for the source without downloading it.
	Probe(ctx context.Context, url string) (*Metadata, error)
	// Fetch downloads the single item behind url into opts.OutputPath.
	// Playlists are never expanded.
	Fetch(ctx context.Context, url string, opts FetchOptions) error
}
