package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
)

const maxSessionsPerPage = 100

// ErrUnknownWord is returned for word ids missing from the catalog.
var ErrUnknownWord = errors.New("unknown word id")

// SessionStore is the persistence PracticeSessionService needs.
type SessionStore interface {
	CreateAndAdapt(ctx context.Context, s *model.PracticeSession, evaluate repository.LimitEvaluator) (adaptive.Analysis, error)
	ListPaginated(ctx context.Context, userID, limit, offset int) ([]model.PracticeSession, int, error)
	GetByID(ctx context.Context, id int) (*model.PracticeSession, error)
}

// PracticeSessionService records finished sessions and adapts the time limit.
type PracticeSessionService struct {
	sessions SessionStore
	words    *catalog.Catalog
	log      zerolog.Logger
}

// NewPracticeSessionService creates a new PracticeSessionService.
func NewPracticeSessionService(sessions SessionStore, words *catalog.Catalog) *PracticeSessionService {
	return &PracticeSessionService{
		sessions: sessions,
		words:    words,
		log:      log.With().Str("component", "practice_session_service").Logger(),
	}
}

// Create stores the session for userID and returns it with the recomputed
// time limit.
func (s *PracticeSessionService) Create(ctx context.Context, userID int, req *model.CreateSessionRequest) (*model.CreateSessionResponse, error) {
	for i, r := range req.Records {
		if _, ok := s.words.Get(r.WordID); !ok {
			return nil, fmt.Errorf("%w: records[%d].word_id=%d", ErrUnknownWord, i, r.WordID)
		}
	}

	session := &model.PracticeSession{
		UserID:  userID,
		Records: req.Records,
	}
	session.Summarize()

	analysis, err := s.sessions.CreateAndAdapt(ctx, session, adaptive.Evaluate)
	if err != nil {
		return nil, err
	}
	if analysis.Changed() {
		s.log.Info().
			Int("user_id", userID).
			Str("rule", analysis.Rule).
			Int("from_ms", analysis.CurrentLimitMs).
			Int("to_ms", analysis.NewLimitMs).
			Msg("Time limit adjusted")
	}

	return &model.CreateSessionResponse{Session: *session, TimeLimit: analysis}, nil
}

// List returns one page of the user's sessions, newest first.
func (s *PracticeSessionService) List(ctx context.Context, userID, page, perPage int) ([]model.PracticeSession, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > maxSessionsPerPage {
		perPage = maxSessionsPerPage
	}

	sessions, total, err := s.sessions.ListPaginated(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return sessions, response.NewPagination(page, perPage, total), nil
}

// Get returns a session owned by userID. Sessions of other users are
// reported as missing.
func (s *PracticeSessionService) Get(ctx context.Context, userID, id int) (*model.PracticeSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}
