package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
)

// UserStore is the persistence UserService needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListSummaries(ctx context.Context) ([]model.UserSummary, error)
	TouchLastSession(ctx context.Context, id int, at time.Time) error
	UpdateProgress(ctx context.Context, id int, req *model.ProgressUpdateRequest) error
}

// SessionWindowReader loads the most recent sessions of a user, oldest first.
type SessionWindowReader interface {
	RecentForUser(ctx context.Context, userID, n int) ([]adaptive.Session, error)
}

// Authenticator is the part of AuthService used for accounts.
type Authenticator interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
	IssueToken(ctx context.Context, userID int, username string) (string, error)
	RevokeSession(ctx context.Context, userID int) error
}

// UserService handles accounts, progress and the adaptive time limit view.
type UserService struct {
	users    UserStore
	sessions SessionWindowReader
	auth     Authenticator
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, sessions SessionWindowReader, auth Authenticator) *UserService {
	return &UserService{users: users, sessions: sessions, auth: auth}
}

// Register creates an account. The time limit starts at the severity's
// initial value.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var severity string
	if req.Severity != nil {
		severity = strings.ToLower(strings.TrimSpace(*req.Severity))
		req.Severity = &severity
	}
	initial := adaptive.InitialLimit(severity)

	u := &model.User{
		Username:           strings.TrimSpace(req.Username),
		PasswordHash:       hash,
		Severity:           req.Severity,
		AvatarURL:          req.AvatarURL,
		InitialTimeLimitMs: initial,
		CurrentTimeLimitMs: &initial,
		CurrentLevel:       1,
		Achievements:       []string{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials, issues a token and stamps the last session date.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(ctx, u.ID, u.Username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastSession(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastSessionAt = &now

	return &model.LoginResponse{Token: token, User: *u}, nil
}

// Logout ends the user's active login.
func (s *UserService) Logout(ctx context.Context, userID int) error {
	return s.auth.RevokeSession(ctx, userID)
}

// List returns the public cards of all users.
func (s *UserService) List(ctx context.Context) ([]model.UserSummary, error) {
	return s.users.ListSummaries(ctx)
}

// Get returns one user's profile.
func (s *UserService) Get(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProgress stores the client's gamification state and returns the
// fresh profile.
func (s *UserService) UpdateProgress(ctx context.Context, id int, req *model.ProgressUpdateRequest) (*model.User, error) {
	if !req.Empty() {
		if err := s.users.UpdateProgress(ctx, id, req); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, id)
}

// TimeLimit reports the user's limits and how the current window scores.
func (s *UserService) TimeLimit(ctx context.Context, id int) (*model.TimeLimitResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.sessions.RecentForUser(ctx, id, adaptive.Window)
	if err != nil {
		return nil, err
	}

	return &model.TimeLimitResponse{
		InitialTimeLimitMs: u.InitialTimeLimitMs,
		CurrentTimeLimitMs: u.EffectiveTimeLimitMs(),
		Analysis:           adaptive.Evaluate(u.CurrentTimeLimitMs, u.InitialTimeLimitMs, recent),
	}, nil
}
