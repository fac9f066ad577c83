package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tubefetch/api/internal/model"
	"github.com/tubefetch/api/internal/sanitize"
)

// yt-dlp progress lines look like:
//
//	[download]  42.1% of ~  10.23MiB at    1.10MiB/s ETA 00:32
var (
	rePercent = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?%)`)
	reSpeed   = regexp.MustCompile(`\bat\s+([^\s]+)`)
	reETA     = regexp.MustCompile(`\bETA\s+([0-9:]+)`)
)

// YTDLP invokes the yt-dlp binary with a structured argument list. No shell
// is ever involved.
type YTDLP struct {
	binary string
}

// NewYTDLP returns an extractor backed by the given yt-dlp binary path.
func NewYTDLP(binary string) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{binary: binary}
}

// probeInfo is the subset of yt-dlp's -J output that the service reads.
type probeInfo struct {
	Title   string `json:"title"`
	IsLive  bool   `json:"is_live"`
	WasLive bool   `json:"was_live"`
}

// Probe runs yt-dlp in metadata-only mode and parses the JSON description.
func (y *YTDLP) Probe(ctx context.Context, url string) (*Metadata, error) {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"-J",
		url,
	}

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classify(stderr.String(), err)
	}

	var info probeInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("%w: unreadable metadata", ErrUpstreamRejected)
	}

	return &Metadata{
		Title:   sanitize.StripANSI(info.Title),
		IsLive:  info.IsLive,
		WasLive: info.WasLive,
	}, nil
}

// Fetch downloads the media into opts.OutputPath, reporting progress parsed
// from the tool's line output.
func (y *YTDLP) Fetch(ctx context.Context, url string, opts FetchOptions) error {
	args := fetchArgs(url, opts)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if opts.OnProgress == nil {
			continue
		}
		if p, ok := ParseProgressLine(scanner.Text()); ok {
			opts.OnProgress(p)
		}
	}

	if err := cmd.Wait(); err != nil {
		return classify(stderr.String(), err)
	}
	return nil
}

// fetchArgs builds the yt-dlp argument list for one bounded fetch.
func fetchArgs(url string, opts FetchOptions) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--newline",
		"--restrict-filenames",
	}
	if opts.FragmentConcurrency > 0 {
		args = append(args, "-N", strconv.Itoa(opts.FragmentConcurrency))
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(opts.SocketTimeout/time.Second)))
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.MaxFileSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(opts.MaxFileSize, 10))
	}
	if opts.FormatSelector != "" {
		args = append(args, "-f", opts.FormatSelector)
	}
	args = append(args, "-o", opts.OutputPath, url)
	return args
}

// ParseProgressLine extracts a progress snapshot from one [download] line.
func ParseProgressLine(line string) (Progress, bool) {
	line = sanitize.StripANSI(line)
	if !strings.HasPrefix(strings.TrimSpace(line), "[download]") {
		return Progress{}, false
	}
	m := rePercent.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	p := Progress{Percent: m[1], Speed: "?", ETA: "?"}
	if m := reSpeed.FindStringSubmatch(line); m != nil {
		p.Speed = m[1]
	}
	if m := reETA.FindStringSubmatch(line); m != nil {
		p.ETA = m[1]
	}
	return p, true
}

// FormatSelector maps the requested quality to a yt-dlp stream selection
// expression. The container is always fetched as mp4; audio output is
// produced by a local transcode afterwards.
func FormatSelector(quality model.Quality) string {
	switch quality {
	case model.Quality720p:
		return "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best"
	case model.Quality480p:
		return "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480][ext=mp4]/best"
	default:
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
}

// classify maps tool stderr to the adapter's error taxonomy. The sanitized
// diagnostic is carried along for job error reporting.
func classify(stderr string, err error) error {
	diag := sanitize.ErrorMessage(stderr)
	lower := strings.ToLower(diag)

	var kind error
	switch {
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "404"),
		strings.Contains(lower, "not exist"):
		kind = ErrNotFound
	case strings.Contains(lower, "live"):
		kind = ErrLiveStream
	case strings.Contains(lower, "403"),
		strings.Contains(lower, "sign in"),
		strings.Contains(lower, "login"),
		strings.Contains(lower, "not available in your country"):
		kind = ErrUpstreamRejected
	default:
		kind = ErrNetwork
	}

	if diag == "" {
		return fmt.Errorf("%w: %v", kind, err)
	}
	return fmt.Errorf("%w: %s", kind, diag)
}
