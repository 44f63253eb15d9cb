package service

import (
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/arabic"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/speech"
)

type matchFixture struct {
	svc      *MatchService
	stt      *fakeTranscriber
	conv     *fakeConverter
	store    *fakeAudioStore
	recorder *fakeRecorder
}

func newMatchFixture(savedPath string) *matchFixture {
	f := &matchFixture{
		stt:      &fakeTranscriber{},
		conv:     &fakeConverter{},
		store:    &fakeAudioStore{path: savedPath},
		recorder: &fakeRecorder{},
	}
	f.svc = NewMatchService(testCatalog(), f.stt, f.conv, f.store, f.recorder, 0.75)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func audioHeader(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: 10}
}

func TestNewMatchService_ThresholdFallback(t *testing.T) {
	for _, th := range []float64{0, -1, 1.5} {
		svc := NewMatchService(testCatalog(), nil, nil, nil, nil, th)
		if svc.Threshold() != arabic.DefaultThreshold {
			t.Errorf("threshold %v: got %v, want default %v", th, svc.Threshold(), arabic.DefaultThreshold)
		}
	}
	if got := NewMatchService(testCatalog(), nil, nil, nil, nil, 0.9).Threshold(); got != 0.9 {
		t.Errorf("Threshold() = %v, want 0.9", got)
	}
}

func TestCheckText_ExactAfterNormalization(t *testing.T) {
	f := newMatchFixture("")

	resp, err := f.svc.CheckText(context.Background(), 7, 2, " مدرسه ", nil, model.SourceText)
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	if !resp.IsCorrect || resp.Confidence != 1 || resp.Result != model.ResultCorrect {
		t.Errorf("got %+v, want exact correct match", resp)
	}
	if resp.Target != "مدرسة" || resp.WordID != 2 {
		t.Errorf("target = %q/%d", resp.Target, resp.WordID)
	}
	if resp.Transcription != "مدرسه" || resp.NormalizedTranscription != "مدرسه" {
		t.Errorf("transcription = %q normalized = %q", resp.Transcription, resp.NormalizedTranscription)
	}
	if resp.Timestamp != "2026-03-01T10:00:00Z" {
		t.Errorf("timestamp = %q", resp.Timestamp)
	}

	if len(f.recorder.attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(f.recorder.attempts))
	}
	a := f.recorder.attempts[0]
	if a.UserID != 7 || a.Source != model.SourceText || !a.IsCorrect || a.Threshold != 0.75 {
		t.Errorf("attempt = %+v", a)
	}
}

func TestCheckText_EmptyTranscriptionNeverMatches(t *testing.T) {
	f := newMatchFixture("")

	resp, err := f.svc.CheckText(context.Background(), 1, 1, "   ", nil, model.SourceText)
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	if resp.IsCorrect || resp.Confidence != 0 || resp.Result != model.ResultIncorrect {
		t.Errorf("got %+v, want incorrect with zero confidence", resp)
	}
	if !resp.Success {
		t.Error("an empty transcription is still a successful check")
	}
	if len(f.recorder.attempts) != 1 {
		t.Errorf("recorded %d attempts, want 1", len(f.recorder.attempts))
	}
}

func TestCheckText_ThresholdOverride(t *testing.T) {
	f := newMatchFixture("")
	ctx := context.Background()

	// "مدرس" is contained in "مدرسه", which scores ContainmentScore.
	resp, err := f.svc.CheckText(ctx, 1, 2, "مدرس", nil, model.SourceText)
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	if !resp.IsCorrect || resp.Confidence != arabic.ContainmentScore {
		t.Errorf("default threshold: got %+v", resp)
	}

	strict := 0.99
	resp, err = f.svc.CheckText(ctx, 1, 2, "مدرس", &strict, model.SourceWebSocket)
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	if resp.IsCorrect {
		t.Errorf("strict threshold: got correct, want incorrect (confidence %v)", resp.Confidence)
	}
	if resp.Threshold != strict {
		t.Errorf("threshold = %v, want %v", resp.Threshold, strict)
	}
	if got := f.recorder.attempts[1].Source; got != model.SourceWebSocket {
		t.Errorf("source = %q, want ws", got)
	}
}

func TestCheckText_ShortWordRaisesThreshold(t *testing.T) {
	f := newMatchFixture("")

	lenient := 0.5
	resp, err := f.svc.CheckText(context.Background(), 1, 1, "بنات", &lenient, model.SourceText)
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	if resp.Threshold != 0.75 {
		t.Errorf("threshold for a 4-letter word with base 0.5 = %v, want 0.75", resp.Threshold)
	}
	if got := f.recorder.attempts[0].Threshold; got != lenient {
		t.Errorf("recorded base threshold = %v, want %v", got, lenient)
	}
}

func TestCheckText_UnknownWord(t *testing.T) {
	f := newMatchFixture("")

	_, err := f.svc.CheckText(context.Background(), 1, 99, "x", nil, model.SourceText)
	if !errors.Is(err, ErrWordNotFound) {
		t.Fatalf("err = %v, want ErrWordNotFound", err)
	}
	if len(f.recorder.attempts) != 0 {
		t.Error("unknown words must not be recorded")
	}
}

func TestCheckAudio_ConvertsBeforeTranscribing(t *testing.T) {
	f := newMatchFixture("/tmp/up/abc.webm")
	f.stt.text = "بنات"

	resp, err := f.svc.CheckAudio(context.Background(), 3, 1, nil, audioHeader("attempt.webm"))
	if err != nil {
		t.Fatalf("CheckAudio: %v", err)
	}
	if !f.conv.called || f.conv.in != "/tmp/up/abc.webm" || f.conv.out != "/tmp/up/abc.wav" {
		t.Errorf("converter called=%v in=%q out=%q", f.conv.called, f.conv.in, f.conv.out)
	}
	if f.stt.gotPath != "/tmp/up/abc.wav" {
		t.Errorf("transcribed %q, want converted wav", f.stt.gotPath)
	}
	if !resp.IsCorrect {
		t.Errorf("got %+v, want correct", resp)
	}
	if len(f.store.removed) != 2 {
		t.Errorf("removed %v, want upload and wav", f.store.removed)
	}
	if f.recorder.attempts[0].Source != model.SourceAudio {
		t.Errorf("source = %q, want audio", f.recorder.attempts[0].Source)
	}
}

func TestCheckAudio_ConversionFailureFallsBack(t *testing.T) {
	f := newMatchFixture("/tmp/up/abc.m4a")
	f.conv.err = speech.ErrConverterMissing
	f.stt.text = "سمك"

	if _, err := f.svc.CheckAudio(context.Background(), 3, 1, nil, audioHeader("a.m4a")); err != nil {
		t.Fatalf("CheckAudio: %v", err)
	}
	if f.stt.gotPath != "/tmp/up/abc.m4a" {
		t.Errorf("transcribed %q, want original upload", f.stt.gotPath)
	}
	want := []string{"/tmp/up/abc.m4a", "/tmp/up/abc.wav"}
	if len(f.store.removed) != len(want) || f.store.removed[0] != want[0] || f.store.removed[1] != want[1] {
		t.Errorf("removed %v, want %v", f.store.removed, want)
	}
}

// truncatingConverter writes a partial output file and then fails, the way
// ffmpeg -y does on a corrupt input.
type truncatingConverter struct{}

func (truncatingConverter) ToWAV(_ context.Context, _, out string) error {
	if err := os.WriteFile(out, []byte("RIFF"), 0o644); err != nil {
		return err
	}
	return errors.New("invalid data found when processing input")
}

func TestCheckAudio_FailedConversionLeavesNoFiles(t *testing.T) {
	store, dir := newMediaService(t, 1024)
	stt := &fakeTranscriber{text: "سمك"}
	svc := NewMatchService(testCatalog(), stt, truncatingConverter{}, store, &fakeRecorder{}, 0.75)

	header := formFile(t, "attempt.m4a", "audio/mp4", []byte("not really m4a"))
	file, err := header.Open()
	if err != nil {
		t.Fatalf("open upload: %v", err)
	}
	defer file.Close()

	if _, err := svc.CheckAudio(context.Background(), 3, 1, file, header); err != nil {
		t.Fatalf("CheckAudio: %v", err)
	}
	if filepath.Ext(stt.gotPath) != ".m4a" {
		t.Errorf("transcribed %q, want the original upload", stt.gotPath)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("%s left behind after failed conversion", e.Name())
	}
}

func TestCheckAudio_WAVSkipsConversion(t *testing.T) {
	f := newMatchFixture("/tmp/up/abc.wav")
	f.stt.text = ""

	resp, err := f.svc.CheckAudio(context.Background(), 3, 2, nil, audioHeader("a.wav"))
	if err != nil {
		t.Fatalf("CheckAudio: %v", err)
	}
	if f.conv.called {
		t.Error("wav uploads must not be converted")
	}
	if resp.IsCorrect || resp.Confidence != 0 {
		t.Errorf("silence: got %+v", resp)
	}
}

func TestCheckAudio_TranscriptionError(t *testing.T) {
	f := newMatchFixture("/tmp/up/abc.wav")
	f.stt.err = speech.ErrUnavailable

	_, err := f.svc.CheckAudio(context.Background(), 3, 2, nil, audioHeader("a.wav"))
	if !errors.Is(err, ErrTranscriptionFailed) || !errors.Is(err, speech.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrTranscriptionFailed wrapping ErrUnavailable", err)
	}
	if len(f.store.removed) != 1 {
		t.Errorf("upload not cleaned up: %v", f.store.removed)
	}
	if len(f.recorder.attempts) != 0 {
		t.Error("failed transcriptions must not be recorded")
	}
}

func TestCheckAudio_SaveError(t *testing.T) {
	f := newMatchFixture("")
	f.store.err = ErrUnsupportedFileType

	_, err := f.svc.CheckAudio(context.Background(), 3, 2, nil, audioHeader("a.txt"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestCheckAudio_UnknownWordSkipsUpload(t *testing.T) {
	f := newMatchFixture("/tmp/up/abc.wav")

	_, err := f.svc.CheckAudio(context.Background(), 3, 42, nil, audioHeader("a.wav"))
	if !errors.Is(err, ErrWordNotFound) {
		t.Fatalf("err = %v, want ErrWordNotFound", err)
	}
	if f.stt.gotPath != "" {
		t.Error("transcriber should not run for unknown words")
	}
}
