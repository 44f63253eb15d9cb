package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
)

var ErrSessionNotFound = errors.New("practice session not found")

// LimitEvaluator computes the next time limit from a snapshot of the user's
// stored limits and their most recent sessions, oldest first.
type LimitEvaluator func(current *int, initial int, recent []adaptive.Session) adaptive.Analysis

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const sessionColumns = `id, user_id, total_words, correct_words, incorrect_words,
	accuracy_percent, avg_response_time_ms, total_points, time_limit_ms, created_at`

// PracticeSessionRepository handles practice session data access.
type PracticeSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPracticeSessionRepository creates a new PracticeSessionRepository.
func NewPracticeSessionRepository(pool *pgxpool.Pool) *PracticeSessionRepository {
	return &PracticeSessionRepository{pool: pool}
}

// CreateAndAdapt stores s with its records and recomputes the owner's time
// limit in the same transaction. The user row is locked so concurrent
// submissions for one user apply one after another. The controller sees the
// user's previous sessions followed by s itself.
func (r *PracticeSessionRepository) CreateAndAdapt(ctx context.Context, s *model.PracticeSession, evaluate LimitEvaluator) (adaptive.Analysis, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return adaptive.Analysis{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		initial int
		current *int
	)
	err = tx.QueryRow(ctx,
		`SELECT initial_time_limit_ms, current_time_limit_ms FROM users WHERE id = $1 FOR UPDATE`,
		s.UserID,
	).Scan(&initial, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adaptive.Analysis{}, ErrUserNotFound
		}
		return adaptive.Analysis{}, fmt.Errorf("lock user: %w", err)
	}

	s.TimeLimitMs = initial
	if current != nil {
		s.TimeLimitMs = *current
	}

	// The user row is locked, so the prior window cannot move under us.
	recent, err := recentSessions(ctx, tx, s.UserID, adaptive.Window-1)
	if err != nil {
		return adaptive.Analysis{}, fmt.Errorf("load window: %w", err)
	}
	recent = append(recent, s.AdaptiveSession())

	err = tx.QueryRow(ctx,
		`INSERT INTO practice_sessions
		   (user_id, total_words, correct_words, incorrect_words, accuracy_percent,
		    avg_response_time_ms, total_points, time_limit_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		s.UserID, s.TotalWords, s.CorrectWords, s.IncorrectWords, s.AccuracyPercent,
		s.AvgResponseTimeMs, s.TotalPoints, s.TimeLimitMs,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return adaptive.Analysis{}, fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"session_records"},
		[]string{"session_id", "position", "word_id", "result", "cue_level", "response_time_ms", "points_earned", "recorded_at"},
		pgx.CopyFromSlice(len(s.Records), func(i int) ([]any, error) {
			rec := s.Records[i]
			at := s.CreatedAt
			if rec.Timestamp != nil {
				at = *rec.Timestamp
			}
			return []any{s.ID, i, rec.WordID, string(rec.Result), rec.CueLevel, rec.ResponseTimeMs, rec.PointsEarned, at}, nil
		}),
	)
	if err != nil {
		return adaptive.Analysis{}, fmt.Errorf("insert records: %w", err)
	}

	analysis := evaluate(current, initial, recent)

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET current_time_limit_ms = $1, last_session_at = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		analysis.NewLimitMs, s.CreatedAt, s.UserID,
	)
	if err != nil {
		return adaptive.Analysis{}, fmt.Errorf("store limit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return adaptive.Analysis{}, fmt.Errorf("commit: %w", err)
	}
	return analysis, nil
}

// RecentForUser returns the user's last n sessions as controller input,
// oldest first.
func (r *PracticeSessionRepository) RecentForUser(ctx context.Context, userID, n int) ([]adaptive.Session, error) {
	return recentSessions(ctx, r.pool, userID, n)
}

func recentSessions(ctx context.Context, q querier, userID, n int) ([]adaptive.Session, error) {
	rows, err := q.Query(ctx,
		`SELECT sr.session_id, sr.result, sr.cue_level, sr.response_time_ms
		 FROM session_records sr
		 JOIN (
		 	SELECT id, created_at FROM practice_sessions
		 	WHERE user_id = $1
		 	ORDER BY created_at DESC, id DESC
		 	LIMIT $2
		 ) ps ON ps.id = sr.session_id
		 ORDER BY ps.created_at ASC, ps.id ASC, sr.position ASC`,
		userID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []sessionRecordRow
	for rows.Next() {
		var (
			row    sessionRecordRow
			result string
		)
		if err := rows.Scan(&row.sessionID, &result, &row.CueLevel, &row.ResponseTimeMs); err != nil {
			return nil, err
		}
		row.Result = adaptive.Result(result)
		recs = append(recs, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupSessions(recs), nil
}

type sessionRecordRow struct {
	sessionID int
	adaptive.Record
}

// groupSessions folds records, already ordered by session then position,
// into one Session per run of equal session IDs.
func groupSessions(recs []sessionRecordRow) []adaptive.Session {
	sessions := []adaptive.Session{}
	lastID := 0
	for _, r := range recs {
		if r.sessionID != lastID || len(sessions) == 0 {
			sessions = append(sessions, adaptive.Session{})
			lastID = r.sessionID
		}
		last := &sessions[len(sessions)-1]
		last.Records = append(last.Records, r.Record)
	}
	return sessions
}

// ListPaginated returns a page of the user's sessions, newest first, with
// their records, plus the user's total session count.
func (r *PracticeSessionRepository) ListPaginated(ctx context.Context, userID, limit, offset int) ([]model.PracticeSession, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM practice_sessions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sessionColumns + ` FROM practice_sessions WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	args := []any{userID, limit, offset}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := []model.PracticeSession{}
	index := map[int]int{}
	for rows.Next() {
		var s model.PracticeSession
		if err := scanSession(rows, &s); err != nil {
			return nil, 0, err
		}
		s.Records = []model.SessionRecord{}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(sessions) == 0 {
		return sessions, total, nil
	}

	ids := make([]int, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	byID, err := r.recordsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for id, recs := range byID {
		sessions[index[id]].Records = recs
	}
	return sessions, total, nil
}

// GetByID retrieves a session with its records.
func (r *PracticeSessionRepository) GetByID(ctx context.Context, id int) (*model.PracticeSession, error) {
	s := &model.PracticeSession{}
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM practice_sessions WHERE id = $1`, id)
	if err := scanSession(row, s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	byID, err := r.recordsFor(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	s.Records = byID[id]
	if s.Records == nil {
		s.Records = []model.SessionRecord{}
	}
	return s, nil
}

func scanSession(row pgx.Row, s *model.PracticeSession) error {
	return row.Scan(&s.ID, &s.UserID, &s.TotalWords, &s.CorrectWords, &s.IncorrectWords,
		&s.AccuracyPercent, &s.AvgResponseTimeMs, &s.TotalPoints, &s.TimeLimitMs, &s.CreatedAt)
}

func (r *PracticeSessionRepository) recordsFor(ctx context.Context, sessionIDs []int) (map[int][]model.SessionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, word_id, result, cue_level, response_time_ms, points_earned, recorded_at
		 FROM session_records
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, position`,
		sessionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]model.SessionRecord, len(sessionIDs))
	for rows.Next() {
		var (
			sessionID int
			rec       model.SessionRecord
			result    string
			at        time.Time
		)
		if err := rows.Scan(&sessionID, &rec.WordID, &result, &rec.CueLevel,
			&rec.ResponseTimeMs, &rec.PointsEarned, &at); err != nil {
			return nil, err
		}
		rec.Result = adaptive.Result(result)
		rec.Timestamp = &at
		out[sessionID] = append(out[sessionID], rec)
	}
	return out, rows.Err()
}
