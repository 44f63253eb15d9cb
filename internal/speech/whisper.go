// Package speech turns recorded attempts into text: an ffmpeg converter that
// produces 16 kHz mono WAV and a client for a whisper.cpp HTTP server.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnavailable wraps transport failures and non-200 replies from the
// speech server.
var ErrUnavailable = errors.New("speech service unavailable")

// WhisperClient calls the whisper.cpp server's POST /inference endpoint.
type WhisperClient struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

// NewWhisperClient returns a client for serverURL. language is sent with every
// request; an empty language lets the server auto-detect.
func NewWhisperClient(serverURL, language string, timeout time.Duration) (*WhisperClient, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: server URL must not be empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhisperClient{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Transcribe uploads the audio file at audioPath and returns the trimmed text.
// An empty string means the server heard nothing it could transcribe.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", fmt.Errorf("whisper: write audio: %w", err)
	}
	if c.language != "" {
		if err := mw.WriteField("language", c.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: server returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// Ping checks that the server answers at all.
func (c *WhisperClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()
	return nil
}
