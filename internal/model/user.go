package model

import "time"

// User is a patient account with their progress and adaptive time limit.
type User struct {
	ID                      int        `json:"id"`
	Username                string     `json:"username"`
	PasswordHash            string     `json:"-"`
	Severity                *string    `json:"level_of_severity"`
	AvatarURL               *string    `json:"avatar_url"`
	CurrentProgressWordID   int        `json:"current_progress_word_id"`
	TotalWordsCompleted     int        `json:"total_words_completed"`
	AccuracyPercent         float64    `json:"accuracy_percent"`
	AvgResponseTimeSeconds  float64    `json:"avg_response_time_seconds"`
	LastSessionAt           *time.Time `json:"last_session_date"`
	TotalPoints             int        `json:"total_points"`
	CurrentLevel            int        `json:"current_level"`
	CurrentStreak           int        `json:"current_streak"`
	LongestStreak           int        `json:"longest_streak"`
	TotalExercisesCompleted int        `json:"total_exercises_completed"`
	Achievements            []string   `json:"achievements"`
	InitialTimeLimitMs      int        `json:"initial_time_limit_ms"`
	CurrentTimeLimitMs      *int       `json:"current_time_limit_ms"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// EffectiveTimeLimitMs is the limit the next session plays under.
func (u *User) EffectiveTimeLimitMs() int {
	if u.CurrentTimeLimitMs != nil {
		return *u.CurrentTimeLimitMs
	}
	return u.InitialTimeLimitMs
}

// UserSummary is the public card shown on the login screen.
type UserSummary struct {
	ID                  int        `json:"id"`
	Username            string     `json:"username"`
	AvatarURL           *string    `json:"avatar_url"`
	LastSessionAt       *time.Time `json:"last_session_date"`
	TotalWordsCompleted int        `json:"total_words_completed"`
	AccuracyPercent     float64    `json:"accuracy_percent"`
	Severity            *string    `json:"level_of_severity"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=50"`
	Password  string  `json:"password" binding:"required,min=6,max=128"`
	Severity  *string `json:"level_of_severity" binding:"omitempty,oneof=mild moderate severe"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=512"`
}

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProgressUpdateRequest carries the client's gamification state.
// Nil fields are left untouched.
type ProgressUpdateRequest struct {
	CurrentProgressWordID   *int       `json:"current_progress_word_id" binding:"omitempty,min=0"`
	TotalWordsCompleted     *int       `json:"total_words_completed" binding:"omitempty,min=0"`
	AccuracyPercent         *float64   `json:"accuracy_percent" binding:"omitempty,min=0,max=100"`
	AvgResponseTimeSeconds  *float64   `json:"avg_response_time_seconds" binding:"omitempty,min=0"`
	LastSessionAt           *time.Time `json:"last_session_date"`
	TotalPoints             *int       `json:"total_points" binding:"omitempty,min=0"`
	CurrentLevel            *int       `json:"current_level" binding:"omitempty,min=1"`
	CurrentStreak           *int       `json:"current_streak" binding:"omitempty,min=0"`
	LongestStreak           *int       `json:"longest_streak" binding:"omitempty,min=0"`
	TotalExercisesCompleted *int       `json:"total_exercises_completed" binding:"omitempty,min=0"`
	Achievements            []string   `json:"achievements" binding:"omitempty,max=200,dive,max=64"`
}

// Empty reports whether the request changes nothing.
func (r *ProgressUpdateRequest) Empty() bool {
	return r.CurrentProgressWordID == nil && r.TotalWordsCompleted == nil &&
		r.AccuracyPercent == nil && r.AvgResponseTimeSeconds == nil &&
		r.LastSessionAt == nil && r.TotalPoints == nil && r.CurrentLevel == nil &&
		r.CurrentStreak == nil && r.LongestStreak == nil &&
		r.TotalExercisesCompleted == nil && r.Achievements == nil
}
