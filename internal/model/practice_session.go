package model

import (
	"time"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
)

// PracticeSession is one completed run through a set of word cards.
type PracticeSession struct {
	ID                int             `json:"id"`
	UserID            int             `json:"user_id"`
	TotalWords        int             `json:"total_words"`
	CorrectWords      int             `json:"correct_words"`
	IncorrectWords    int             `json:"incorrect_words"`
	AccuracyPercent   float64         `json:"accuracy_percent"`
	AvgResponseTimeMs float64         `json:"avg_response_time_ms"`
	TotalPoints       int             `json:"total_points"`
	TimeLimitMs       int             `json:"time_limit_ms"`
	Records           []SessionRecord `json:"records"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SessionRecord is one attempt at one word.
type SessionRecord struct {
	WordID         int             `json:"word_id" binding:"required,min=1"`
	Result         adaptive.Result `json:"result" binding:"required,oneof=correct incorrect"`
	CueLevel       int             `json:"cue_level" binding:"required,min=1,max=3"`
	ResponseTimeMs int             `json:"response_time_ms" binding:"min=0"`
	PointsEarned   int             `json:"points_earned" binding:"min=0"`
	Timestamp      *time.Time      `json:"timestamp"`
}

// CreateSessionRequest is the payload for saving a finished session.
type CreateSessionRequest struct {
	Records []SessionRecord `json:"records" binding:"required,min=1,max=500,dive"`
}

// CreateSessionResponse returns the stored session and the limit for the next one.
type CreateSessionResponse struct {
	Session   PracticeSession   `json:"session"`
	TimeLimit adaptive.Analysis `json:"time_limit"`
}

// TimeLimitResponse describes the user's current budget and why it is what it is.
type TimeLimitResponse struct {
	InitialTimeLimitMs int               `json:"initial_time_limit_ms"`
	CurrentTimeLimitMs int               `json:"current_time_limit_ms"`
	Analysis           adaptive.Analysis `json:"analysis"`
}

// Summarize fills the aggregate columns from s.Records.
func (s *PracticeSession) Summarize() {
	s.TotalWords = len(s.Records)
	s.CorrectWords, s.IncorrectWords, s.TotalPoints = 0, 0, 0

	var totalMs int64
	for _, r := range s.Records {
		if r.Result == adaptive.Correct {
			s.CorrectWords++
		} else {
			s.IncorrectWords++
		}
		s.TotalPoints += r.PointsEarned
		totalMs += int64(r.ResponseTimeMs)
	}

	if s.TotalWords == 0 {
		s.AccuracyPercent, s.AvgResponseTimeMs = 0, 0
		return
	}
	s.AccuracyPercent = float64(s.CorrectWords) / float64(s.TotalWords) * 100
	s.AvgResponseTimeMs = float64(totalMs) / float64(s.TotalWords)
}

// AdaptiveSession converts the stored records into the controller's input.
func (s *PracticeSession) AdaptiveSession() adaptive.Session {
	recs := make([]adaptive.Record, len(s.Records))
	for i, r := range s.Records {
		recs[i] = adaptive.Record{
			Result:         r.Result,
			CueLevel:       r.CueLevel,
			ResponseTimeMs: r.ResponseTimeMs,
		}
	}
	return adaptive.Session{Records: recs}
}
