package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrConverterMissing is returned when the ffmpeg binary cannot be found.
var ErrConverterMissing = errors.New("ffmpeg not found")

// passthroughExts are formats the speech server reads without conversion.
var passthroughExts = map[string]bool{
	".wav":  true,
	".aiff": true,
	".flac": true,
}

// NeedsConversion reports whether a file with this name must be converted
// before transcription.
func NeedsConversion(name string) bool {
	return !passthroughExts[strings.ToLower(filepath.Ext(name))]
}

// FFmpeg converts recordings to 16 kHz mono WAV.
type FFmpeg struct {
	Path string
}

// NewFFmpeg returns a converter using the binary at path ("ffmpeg" looks it
// up on PATH).
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// ToWAV writes a 16 kHz mono WAV rendering of in to out, overwriting out.
func (f *FFmpeg) ToWAV(ctx context.Context, in, out string) error {
	bin, err := exec.LookPath(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConverterMissing, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-i", in,
		"-ar", "16000", "-ac", "1",
		"-y", out,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("ffmpeg: output missing: %w", err)
	}
	return nil
}
