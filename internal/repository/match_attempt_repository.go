package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
)

var matchAttemptColumns = []string{
	"user_id", "word_id", "target", "transcription", "normalized_transcription",
	"confidence", "threshold", "is_correct", "source", "created_at",
}

// MatchAttemptRepository writes the verdict log.
type MatchAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewMatchAttemptRepository creates a new MatchAttemptRepository.
func NewMatchAttemptRepository(pool *pgxpool.Pool) *MatchAttemptRepository {
	return &MatchAttemptRepository{pool: pool}
}

func attemptRow(a *model.MatchAttempt) []any {
	var userID *int
	if a.UserID > 0 {
		userID = &a.UserID
	}
	return []any{
		userID, a.WordID, a.Target, a.Transcription, a.NormalizedTranscription,
		a.Confidence, a.Threshold, a.IsCorrect, string(a.Source), a.CreatedAt,
	}
}

// BulkInsert copies a batch of attempts in one round trip.
func (r *MatchAttemptRepository) BulkInsert(ctx context.Context, batch []*model.MatchAttempt) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"match_attempts"},
		matchAttemptColumns,
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return attemptRow(batch[i]), nil
		}),
	)
	return err
}

// Insert writes a single attempt.
func (r *MatchAttemptRepository) Insert(ctx context.Context, a *model.MatchAttempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_attempts
		   (user_id, word_id, target, transcription, normalized_transcription,
		    confidence, threshold, is_correct, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		attemptRow(a)...,
	)
	return err
}
