// Package transcoder wraps the external codec tool behind a narrow interface.
package transcoder

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedConversion is returned for any input/output pairing other
// than container-to-audio re-encode or audio-to-audio stream copy. The
// external tool is never invoked in that case.
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// ToolError carries the codec tool's sanitized diagnostic output.
type ToolError struct {
	Output string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("transcoding failed: %s", e.Output)
}

// Transcoder converts media from inputPath into outputPath. The target
// format is inferred from the output path's extension.
type Transcoder interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}
