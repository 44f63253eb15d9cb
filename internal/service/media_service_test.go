package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
)

// formFile builds a real multipart upload so FileHeader.Open works.
func formFile(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["audio"][0]
}

func saveUpload(t *testing.T, svc *MediaService, header *multipart.FileHeader) (string, error) {
	t.Helper()
	f, err := header.Open()
	if err != nil {
		t.Fatalf("open upload: %v", err)
	}
	defer f.Close()
	return svc.SaveAudio(f, header)
}

func newMediaService(t *testing.T, maxBytes int64) (*MediaService, string) {
	dir := filepath.Join(t.TempDir(), "uploads")
	return NewMediaService(&config.Config{UploadDir: dir, MaxUploadBytes: maxBytes}), dir
}

func TestSaveAudio(t *testing.T) {
	svc, dir := newMediaService(t, 1024)

	path, err := saveUpload(t, svc, formFile(t, "attempt.WEBM", "audio/webm", []byte("webm-bytes")))
	if err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".webm" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "webm-bytes" {
		t.Errorf("stored %q, %v", data, err)
	}

	svc.Remove(path, "")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove: %v", err)
	}
}

func TestSaveAudio_Unsupported(t *testing.T) {
	svc, _ := newMediaService(t, 1024)

	_, err := saveUpload(t, svc, formFile(t, "notes.txt", "text/plain", []byte("hi")))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
	if !strings.Contains(err.Error(), ".webm") {
		t.Errorf("error should list allowed types: %v", err)
	}
}

func TestSaveAudio_TooLarge(t *testing.T) {
	svc, dir := newMediaService(t, 4)

	_, err := saveUpload(t, svc, formFile(t, "a.wav", "audio/wav", []byte("too many bytes")))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d files behind", len(entries))
	}
}

func TestAudioExt(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		wantExt     string
		wantOK      bool
	}{
		{"a.m4a", "", ".m4a", true},
		{"a.MP3", "", ".mp3", true},
		{"a.exe", "audio/webm", ".exe", false},
		{"blob", "audio/webm;codecs=opus", ".webm", true},
		{"blob", "audio/x-wav", ".wav", true},
		{"blob", "application/octet-stream", "", false},
	}
	for _, tt := range tests {
		h := &multipart.FileHeader{Filename: tt.filename, Header: textproto.MIMEHeader{}}
		if tt.contentType != "" {
			h.Header.Set("Content-Type", tt.contentType)
		}
		ext, ok := AudioExt(h)
		if ext != tt.wantExt || ok != tt.wantOK {
			t.Errorf("AudioExt(%q, %q) = %q, %v; want %q, %v", tt.filename, tt.contentType, ext, ok, tt.wantExt, tt.wantOK)
		}
	}
}
