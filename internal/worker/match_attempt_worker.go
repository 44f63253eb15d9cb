package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
)

const (
	DefaultBatchSize = 100
	BatchTimeout     = 2 * time.Second
	PollTimeout      = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AttemptWriter persists match attempts.
type AttemptWriter interface {
	BulkInsert(ctx context.Context, batch []*model.MatchAttempt) error
	Insert(ctx context.Context, a *model.MatchAttempt) error
}

// MatchAttemptWorker drains the attempt queue into Postgres in batches.
type MatchAttemptWorker struct {
	rdb        redis.Cmdable
	repo       AttemptWriter
	batchSize  int
	retryPause time.Duration
	log        zerolog.Logger
}

func NewMatchAttemptWorker(rdb redis.Cmdable, repo AttemptWriter, batchSize int, log zerolog.Logger) *MatchAttemptWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &MatchAttemptWorker{
		rdb:        rdb,
		repo:       repo,
		batchSize:  batchSize,
		retryPause: 2 * time.Second,
		log:        log.With().Str("component", "match_attempt_worker").Logger(),
	}
}

func (w *MatchAttemptWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("MatchAttemptWorker started")

	buffer := make([]*model.MatchAttempt, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis; BLPop returns as soon as data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.MatchAttemptsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		attempt, err := decodeAttempt(result[1])
		if err != nil {
			// Malformed payloads can never succeed; drop them.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed attempt")
			continue
		}
		buffer = append(buffer, attempt)
	}
}

func decodeAttempt(raw string) (*model.MatchAttempt, error) {
	var a model.MatchAttempt
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, err
	}
	if a.WordID < 1 {
		return nil, errors.New("attempt without word id")
	}
	return &a, nil
}

// flushSafe attempts bulk insert, then row-by-row insert, then requeue.
func (w *MatchAttemptWorker) flushSafe(ctx context.Context, batch []*model.MatchAttempt) {
	err := w.repo.BulkInsert(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Attempts persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")

	if failed := w.fallbackInsert(ctx, batch); len(failed) > 0 {
		w.requeue(ctx, failed)
	}
}

// fallbackInsert returns the attempts that still could not be stored.
func (w *MatchAttemptWorker) fallbackInsert(ctx context.Context, batch []*model.MatchAttempt) []*model.MatchAttempt {
	var failed []*model.MatchAttempt
	for _, a := range batch {
		if err := w.repo.Insert(ctx, a); err != nil {
			w.log.Error().Err(err).Int("user_id", a.UserID).Int("word_id", a.WordID).Msg("Insert failed, requeueing")
			failed = append(failed, a)
		}
	}
	return failed
}

func (w *MatchAttemptWorker) requeue(ctx context.Context, items []*model.MatchAttempt) {
	pipe := w.rdb.Pipeline()
	for _, a := range items {
		data, _ := json.Marshal(a)
		pipe.RPush(ctx, config.WorkerKey.MatchAttemptsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue attempts. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed attempts")
	// Back off so a dead database is not hammered.
	time.Sleep(w.retryPause)
}

func (w *MatchAttemptWorker) shutdown(buffer []*model.MatchAttempt) {
	w.log.Info().Int("pending", len(buffer)).Msg("Worker stopping, flushing remaining buffer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
