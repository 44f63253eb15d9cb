package model

import "time"

// AttemptSource records which channel produced a verdict.
type AttemptSource string

const (
	SourceAudio     AttemptSource = "audio"
	SourceText      AttemptSource = "text"
	SourceWebSocket AttemptSource = "ws"
)

// Verdict labels.
const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
)

// MatchAttempt is one logged verdict, kept for offline scorer analysis.
type MatchAttempt struct {
	UserID                  int           `json:"user_id"`
	WordID                  int           `json:"word_id"`
	Target                  string        `json:"target"`
	Transcription           string        `json:"transcription"`
	NormalizedTranscription string        `json:"normalized_transcription"`
	Confidence              float64       `json:"confidence"`
	Threshold               float64       `json:"threshold"`
	IsCorrect               bool          `json:"is_correct"`
	Source                  AttemptSource `json:"source"`
	CreatedAt               time.Time     `json:"created_at"`
}

// MatchTextRequest checks a transcription produced on the client.
type MatchTextRequest struct {
	WordID        int      `json:"word_id" binding:"required,min=1"`
	Transcription string   `json:"transcription" binding:"max=1000"`
	Threshold     *float64 `json:"threshold" binding:"omitempty,gt=0,lte=1"`
}

// TranscribeForm is the multipart form of an audio check. The file itself
// is read separately from the "audio" part.
type TranscribeForm struct {
	WordID int `form:"word_id" binding:"required,min=1"`
}

// MatchResponse is the verdict returned for audio and text checks.
type MatchResponse struct {
	Success                 bool    `json:"success"`
	Result                  string  `json:"result"`
	IsCorrect               bool    `json:"is_correct"`
	Confidence              float64 `json:"confidence"`
	WordID                  int     `json:"word_id"`
	Target                  string  `json:"target"`
	Transcription           string  `json:"transcription"`
	NormalizedTranscription string  `json:"normalized_transcription"`
	Threshold               float64 `json:"threshold"`
	Timestamp               string  `json:"timestamp"`
}
