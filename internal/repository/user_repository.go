package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUserNotFound      = errors.New("user not found")
)

const userColumns = `id, username, password_hash, severity, avatar_url,
	current_progress_word_id, total_words_completed, accuracy_percent,
	avg_response_time_seconds, last_session_at, total_points, current_level,
	current_streak, longest_streak, total_exercises_completed, achievements,
	initial_time_limit_ms, current_time_limit_ms, created_at, updated_at`

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var achievements []byte
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Severity, &u.AvatarURL,
		&u.CurrentProgressWordID, &u.TotalWordsCompleted, &u.AccuracyPercent,
		&u.AvgResponseTimeSeconds, &u.LastSessionAt, &u.TotalPoints, &u.CurrentLevel,
		&u.CurrentStreak, &u.LongestStreak, &u.TotalExercisesCompleted, &achievements,
		&u.InitialTimeLimitMs, &u.CurrentTimeLimitMs, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Achievements, err = decodeAchievements(achievements)
	if err != nil {
		return nil, fmt.Errorf("decode achievements for user %d: %w", u.ID, err)
	}
	return u, nil
}

// decodeAchievements reads the JSONB achievements column. NULL and JSON
// null both decode to an empty list.
func decodeAchievements(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// ListSummaries returns every user's public card, most recently active first.
func (r *UserRepository) ListSummaries(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, avatar_url, last_session_at, total_words_completed,
		        accuracy_percent, severity
		 FROM users
		 ORDER BY last_session_at DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.AvatarURL, &u.LastSessionAt,
			&u.TotalWordsCompleted, &u.AccuracyPercent, &u.Severity); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, severity, avatar_url, initial_time_limit_ms, current_time_limit_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, current_level, created_at, updated_at`,
		u.Username, u.PasswordHash, u.Severity, u.AvatarURL, u.InitialTimeLimitMs, u.CurrentTimeLimitMs,
	).Scan(&u.ID, &u.CurrentLevel, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return err
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	return nil
}

// TouchLastSession stamps the user's last activity time.
func (r *UserRepository) TouchLastSession(ctx context.Context, id int, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET last_session_at = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProgress writes the non-nil fields of req.
func (r *UserRepository) UpdateProgress(ctx context.Context, id int, req *model.ProgressUpdateRequest) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.CurrentProgressWordID != nil {
		add("current_progress_word_id", *req.CurrentProgressWordID)
	}
	if req.TotalWordsCompleted != nil {
		add("total_words_completed", *req.TotalWordsCompleted)
	}
	if req.AccuracyPercent != nil {
		add("accuracy_percent", *req.AccuracyPercent)
	}
	if req.AvgResponseTimeSeconds != nil {
		add("avg_response_time_seconds", *req.AvgResponseTimeSeconds)
	}
	if req.LastSessionAt != nil {
		add("last_session_at", *req.LastSessionAt)
	}
	if req.TotalPoints != nil {
		add("total_points", *req.TotalPoints)
	}
	if req.CurrentLevel != nil {
		add("current_level", *req.CurrentLevel)
	}
	if req.CurrentStreak != nil {
		add("current_streak", *req.CurrentStreak)
	}
	if req.LongestStreak != nil {
		add("longest_streak", *req.LongestStreak)
	}
	if req.TotalExercisesCompleted != nil {
		add("total_exercises_completed", *req.TotalExercisesCompleted)
	}
	if req.Achievements != nil {
		raw, err := json.Marshal(req.Achievements)
		if err != nil {
			return fmt.Errorf("encode achievements: %w", err)
		}
		add("achievements", raw)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
