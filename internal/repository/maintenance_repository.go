package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TableCounts is a row count snapshot of every application table.
type TableCounts struct {
	Users         int `json:"users"`
	Sessions      int `json:"practice_sessions"`
	Records       int `json:"session_records"`
	MatchAttempts int `json:"match_attempts"`
}

// MaintenanceRepository backs the operator CLI.
type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository creates a new MaintenanceRepository.
func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

// Counts returns the row count of each table.
func (r *MaintenanceRepository) Counts(ctx context.Context) (TableCounts, error) {
	var c TableCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM practice_sessions),
		   (SELECT COUNT(*) FROM session_records),
		   (SELECT COUNT(*) FROM match_attempts)`,
	).Scan(&c.Users, &c.Sessions, &c.Records, &c.MatchAttempts)
	return c, err
}

// TruncateAll deletes every row and resets id sequences.
func (r *MaintenanceRepository) TruncateAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`TRUNCATE match_attempts, session_records, practice_sessions, users RESTART IDENTITY CASCADE`)
	return err
}
