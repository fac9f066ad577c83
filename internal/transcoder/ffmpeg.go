package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tubefetch/api/internal/sanitize"
)

// FFmpeg invokes the ffmpeg binary with a structured argument list. No shell
// is ever involved.
type FFmpeg struct {
	binary string
}

// NewFFmpeg returns a transcoder backed by the given ffmpeg binary path.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// Convert re-encodes a video container to mp3 audio, or stream-copies mp3 to
// mp3. Any other pairing fails fast without running ffmpeg.
func (f *FFmpeg) Convert(ctx context.Context, inputPath, outputPath string) error {
	args, err := convertArgs(inputPath, outputPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ToolError{Output: sanitize.ErrorMessage(stderr.String())}
	}
	return nil
}

// convertArgs validates the extension pairing and builds the ffmpeg argument
// list for it.
func convertArgs(inputPath, outputPath string) ([]string, error) {
	inExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(inputPath), "."))
	outExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), "."))

	switch {
	case inExt == "mp4" && outExt == "mp3":
		// Drop the video stream, re-encode audio.
		return []string{"-i", inputPath, "-vn", "-c:a", "libmp3lame", "-q:a", "2", outputPath}, nil
	case inExt == "mp3" && outExt == "mp3":
		// Same codec, copy the stream.
		return []string{"-i", inputPath, "-c:a", "copy", outputPath}, nil
	default:
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, inExt, outExt)
	}
}
