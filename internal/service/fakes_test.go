package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Word{
		{Word: "بنات", WordAudio: "banat.m4a", CueAudio: "banat_cue.m4a", SemanticCue: "x", FrequencyLevel: 1, ImagePath: "banat.png"},
		{Word: "مدرسة", WordAudio: "madrasa.m4a", CueAudio: "madrasa_cue.m4a", SemanticCue: "x", FrequencyLevel: 2, ImagePath: "madrasa.png"},
	})
}

type fakeTranscriber struct {
	text    string
	err     error
	gotPath string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.gotPath = audioPath
	return f.text, f.err
}

type fakeConverter struct {
	err    error
	called bool
	in     string
	out    string
}

func (f *fakeConverter) ToWAV(_ context.Context, in, out string) error {
	f.called = true
	f.in, f.out = in, out
	return f.err
}

type fakeAudioStore struct {
	path    string
	err     error
	removed []string
}

func (f *fakeAudioStore) SaveAudio(multipart.File, *multipart.FileHeader) (string, error) {
	return f.path, f.err
}

func (f *fakeAudioStore) Remove(paths ...string) {
	f.removed = append(f.removed, paths...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []*model.MatchAttempt
}

func (f *fakeRecorder) Record(_ context.Context, a *model.MatchAttempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
}

type fakeUserStore struct {
	byID          map[int]*model.User
	nextID        int
	touched       map[int]time.Time
	progressCalls int
	createErr     error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[int]*model.User{}, touched: map[int]time.Time{}, nextID: 1}
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) ListSummaries(context.Context) ([]model.UserSummary, error) {
	out := make([]model.UserSummary, 0, len(f.byID))
	for id := 1; id < f.nextID; id++ {
		if u, ok := f.byID[id]; ok {
			out = append(out, model.UserSummary{ID: u.ID, Username: u.Username})
		}
	}
	return out, nil
}

func (f *fakeUserStore) TouchLastSession(_ context.Context, id int, at time.Time) error {
	f.touched[id] = at
	if u, ok := f.byID[id]; ok {
		u.LastSessionAt = &at
	}
	return nil
}

func (f *fakeUserStore) UpdateProgress(_ context.Context, id int, req *model.ProgressUpdateRequest) error {
	f.progressCalls++
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if req.TotalPoints != nil {
		u.TotalPoints = *req.TotalPoints
	}
	if req.Achievements != nil {
		u.Achievements = req.Achievements
	}
	return nil
}

type fakeWindow struct {
	sessions []adaptive.Session
	gotN     int
}

func (f *fakeWindow) RecentForUser(_ context.Context, _ int, n int) ([]adaptive.Session, error) {
	f.gotN = n
	return f.sessions, nil
}

// fakeAuth hashes by prefixing so tests can check what was stored.
type fakeAuth struct {
	issued  int
	revoked []int
}

func (f *fakeAuth) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (f *fakeAuth) CheckPassword(hash, password string) error {
	if hash != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func (f *fakeAuth) IssueToken(_ context.Context, userID int, _ string) (string, error) {
	f.issued++
	return fmt.Sprintf("token-%d", userID), nil
}

func (f *fakeAuth) RevokeSession(_ context.Context, userID int) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type fakeSessionStore struct {
	current   *int
	initial   int
	history   []adaptive.Session
	saved     *model.PracticeSession
	byID      map[int]*model.PracticeSession
	gotLimit  int
	gotOffset int
	total     int
}

func (f *fakeSessionStore) CreateAndAdapt(_ context.Context, s *model.PracticeSession, evaluate repository.LimitEvaluator) (adaptive.Analysis, error) {
	s.ID = 1
	s.TimeLimitMs = f.initial
	if f.current != nil {
		s.TimeLimitMs = *f.current
	}
	f.saved = s
	recent := append(f.history, s.AdaptiveSession())
	return evaluate(f.current, f.initial, recent), nil
}

func (f *fakeSessionStore) ListPaginated(_ context.Context, _ int, limit, offset int) ([]model.PracticeSession, int, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return []model.PracticeSession{}, f.total, nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id int) (*model.PracticeSession, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return s, nil
}
