package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
)

// AttemptQueue pushes verdicts onto the Redis list drained by the
// match attempt worker.
type AttemptQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewAttemptQueue creates a new AttemptQueue.
func NewAttemptQueue(rdb *redis.Client) *AttemptQueue {
	return &AttemptQueue{
		rdb: rdb,
		log: log.With().Str("component", "attempt_queue").Logger(),
	}
}

// Record enqueues a. Failures are logged and dropped; the verdict has
// already been decided.
func (q *AttemptQueue) Record(ctx context.Context, a *model.MatchAttempt) {
	payload, err := json.Marshal(a)
	if err != nil {
		q.log.Error().Err(err).Msg("Failed to encode match attempt")
		return
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.MatchAttemptsQueue, payload).Err(); err != nil {
		q.log.Warn().Err(err).Int("word_id", a.WordID).Msg("Failed to enqueue match attempt")
	}
}
