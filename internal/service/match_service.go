package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/arabic"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/speech"
)

// Matching errors.
var (
	ErrWordNotFound        = errors.New("word not found")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Transcriber turns a recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AudioConverter re-encodes a recording as 16 kHz mono WAV.
type AudioConverter interface {
	ToWAV(ctx context.Context, in, out string) error
}

// AttemptRecorder receives every verdict for later analysis. Record must not
// block the request on persistence.
type AttemptRecorder interface {
	Record(ctx context.Context, a *model.MatchAttempt)
}

// AudioStore keeps uploads on disk while they are transcribed.
type AudioStore interface {
	SaveAudio(file multipart.File, header *multipart.FileHeader) (string, error)
	Remove(paths ...string)
}

// MatchService checks spoken or typed attempts against catalog words.
type MatchService struct {
	words     *catalog.Catalog
	stt       Transcriber
	conv      AudioConverter
	store     AudioStore
	attempts  AttemptRecorder
	threshold float64
	log       zerolog.Logger
	now       func() time.Time
}

// NewMatchService creates a new MatchService. threshold is the base
// acceptance threshold; values outside (0, 1] fall back to the default.
func NewMatchService(
	words *catalog.Catalog,
	stt Transcriber,
	conv AudioConverter,
	store AudioStore,
	attempts AttemptRecorder,
	threshold float64,
) *MatchService {
	if threshold <= 0 || threshold > 1 {
		threshold = arabic.DefaultThreshold
	}
	return &MatchService{
		words:     words,
		stt:       stt,
		conv:      conv,
		store:     store,
		attempts:  attempts,
		threshold: threshold,
		log:       log.With().Str("component", "match_service").Logger(),
		now:       time.Now,
	}
}

// Threshold returns the configured base threshold.
func (s *MatchService) Threshold() float64 {
	return s.threshold
}

// CheckText scores a transcription made elsewhere. A nil threshold uses the
// configured one.
func (s *MatchService) CheckText(ctx context.Context, userID, wordID int, transcription string, threshold *float64, source model.AttemptSource) (*model.MatchResponse, error) {
	word, ok := s.words.Get(wordID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrWordNotFound, wordID)
	}

	base := s.threshold
	if threshold != nil {
		base = *threshold
	}

	return s.verdict(ctx, userID, word, strings.TrimSpace(transcription), base, source), nil
}

// CheckAudio stores the upload, converts it when the recognizer cannot read
// it directly, transcribes it and scores the result.
func (s *MatchService) CheckAudio(ctx context.Context, userID, wordID int, file multipart.File, header *multipart.FileHeader) (*model.MatchResponse, error) {
	word, ok := s.words.Get(wordID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrWordNotFound, wordID)
	}

	path, err := s.store.SaveAudio(file, header)
	if err != nil {
		return nil, err
	}
	cleanup := []string{path}
	defer func() { s.store.Remove(cleanup...) }()

	audioPath := path
	if speech.NeedsConversion(path) && s.conv != nil {
		wav := strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
		// A failed conversion can still leave a partial output behind.
		cleanup = append(cleanup, wav)
		if err := s.conv.ToWAV(ctx, path, wav); err != nil {
			// The recognizer still gets a chance at the original encoding.
			s.log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Audio conversion failed, using original upload")
		} else {
			audioPath = wav
		}
	}

	text, err := s.stt.Transcribe(ctx, audioPath)
	if err != nil {
		s.log.Error().Err(err).Int("word_id", wordID).Msg("Transcription failed")
		return nil, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}

	return s.verdict(ctx, userID, word, text, s.threshold, model.SourceAudio), nil
}

func (s *MatchService) verdict(ctx context.Context, userID int, word catalog.Word, transcription string, base float64, source model.AttemptSource) *model.MatchResponse {
	// Nothing heard is a miss; it never reaches the scorer.
	var result arabic.MatchResult
	normalized := ""
	if transcription != "" {
		normalized = arabic.Normalize(transcription)
		result = arabic.Decide(word.Word, transcription, base)
	}

	now := s.now().UTC()
	label := model.ResultIncorrect
	if result.IsCorrect {
		label = model.ResultCorrect
	}

	if s.attempts != nil {
		s.attempts.Record(ctx, &model.MatchAttempt{
			UserID:                  userID,
			WordID:                  word.ID,
			Target:                  word.Word,
			Transcription:           transcription,
			NormalizedTranscription: normalized,
			Confidence:              result.Confidence,
			Threshold:               base,
			IsCorrect:               result.IsCorrect,
			Source:                  source,
			CreatedAt:               now,
		})
	}

	s.log.Debug().
		Int("user_id", userID).
		Int("word_id", word.ID).
		Str("transcription", transcription).
		Float64("confidence", result.Confidence).
		Bool("is_correct", result.IsCorrect).
		Msg("Attempt scored")

	return &model.MatchResponse{
		Success:                 true,
		Result:                  label,
		IsCorrect:               result.IsCorrect,
		Confidence:              result.Confidence,
		WordID:                  word.ID,
		Target:                  word.Word,
		Transcription:           transcription,
		NormalizedTranscription: normalized,
		Threshold:               arabic.EffectiveThreshold(word.Word, base),
		Timestamp:               now.Format(time.RFC3339),
	}
}
