package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Accepted recording extensions.
var allowedAudioExts = map[string]bool{
	".webm": true,
	".wav":  true,
	".m4a":  true,
	".mp4":  true,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".aiff": true,
}

// Fallback extension by MIME type when the file name has none.
var audioMIMEExts = map[string]string{
	"audio/webm":  ".webm",
	"video/webm":  ".webm",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/wave":  ".wav",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/m4a":   ".m4a",
	"audio/mpeg":  ".mp3",
	"audio/ogg":   ".ogg",
	"audio/flac":  ".flac",
	"audio/aiff":  ".aiff",
}

// MediaService stores uploaded recordings for the speech pipeline.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// AudioExt picks the extension for an upload from its name, then its MIME
// type. ok is false for anything that is not an accepted recording format.
func AudioExt(header *multipart.FileHeader) (ext string, ok bool) {
	ext = strings.ToLower(filepath.Ext(header.Filename))
	if ext != "" {
		return ext, allowedAudioExts[ext]
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(header.Header.Get("Content-Type"), ";", 2)[0]))
	ext, ok = audioMIMEExts[contentType]
	return ext, ok
}

// SaveAudio writes an uploaded recording to the upload directory under a
// random name and returns its path on disk. The caller removes it when done.
func (s *MediaService) SaveAudio(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext, ok := AudioExt(header)
	if !ok {
		return "", fmt.Errorf("%w: %q (allowed: %s)",
			ErrUnsupportedFileType, header.Filename, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	destPath := filepath.Join(s.cfg.UploadDir, uuid.New().String()+ext)
	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// Size headers can lie; cap the copy as well.
	n, err := io.Copy(dst, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > s.cfg.MaxUploadBytes {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	return destPath, nil
}

// Remove deletes temporary files, ignoring ones already gone.
func (s *MediaService) Remove(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedAudioExts))
	for t := range allowedAudioExts {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
