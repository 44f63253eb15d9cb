package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/speech"
)

func TestWordHandler(t *testing.T) {
	h := NewWordHandler(testWords())
	r := newEngine()
	r.GET("/words", h.ListWords)
	r.GET("/words/:id", h.GetWord)

	w := doJSON(r, http.MethodGet, "/words", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Words []struct {
			ID   int    `json:"id"`
			Word string `json:"word"`
		} `json:"words"`
		Total int `json:"total"`
	}
	_ = json.Unmarshal(decode(t, w).Data, &list)
	if list.Total != 2 || len(list.Words) != 2 || list.Words[1].ID != 2 || list.Words[1].Word != "مدرسة" {
		t.Errorf("list = %+v", list)
	}

	tests := []struct {
		path string
		code int
		err  response.ErrCode
	}{
		{"/words/1", http.StatusOK, ""},
		{"/words/abc", http.StatusBadRequest, response.ErrInvalidID},
		{"/words/0", http.StatusBadRequest, response.ErrInvalidID},
		{"/words/3", http.StatusNotFound, response.ErrWordNotFound},
	}
	for _, tt := range tests {
		w := doJSON(r, http.MethodGet, tt.path, nil)
		if w.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.code)
			continue
		}
		if env := decode(t, w); tt.err != "" && (env.Error == nil || env.Error.Code != tt.err) {
			t.Errorf("%s: error = %+v, want %s", tt.path, env.Error, tt.err)
		}
	}
}

func TestAuthHandler(t *testing.T) {
	users := service.NewUserService(newStubUsers(), stubWindow{}, stubAuth{})
	h := NewAuthHandler(users)
	r := newEngine()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", asUser(1), h.Logout)

	t.Run("register validation", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/register", map[string]any{
			"username": "ab", "password": "secret1", "level_of_severity": "extreme",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		env := decode(t, w)
		if env.Error.Code != response.ErrValidation {
			t.Fatalf("code = %s", env.Error.Code)
		}
		for _, f := range []string{"username", "level_of_severity"} {
			if _, ok := env.Error.Fields[f]; !ok {
				t.Errorf("missing field error for %s: %v", f, env.Error.Fields)
			}
		}
	})

	t.Run("register and duplicate", func(t *testing.T) {
		body := map[string]any{"username": "salma", "password": "secret1", "level_of_severity": "severe"}
		w := doJSON(r, http.MethodPost, "/register", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var data struct {
			User model.User `json:"user"`
		}
		_ = json.Unmarshal(decode(t, w).Data, &data)
		if data.User.InitialTimeLimitMs != 60000 {
			t.Errorf("initial limit = %d, want 60000", data.User.InitialTimeLimitMs)
		}

		w = doJSON(r, http.MethodPost, "/register", body)
		if w.Code != http.StatusConflict || decode(t, w).Error.Code != response.ErrUsernameTaken {
			t.Fatalf("duplicate: status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("login", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/login", map[string]any{"username": "salma", "password": "nope"})
		if w.Code != http.StatusUnauthorized || decode(t, w).Error.Code != response.ErrInvalidCredentials {
			t.Fatalf("bad password: status = %d", w.Code)
		}

		w = doJSON(r, http.MethodPost, "/login", map[string]any{"username": "salma", "password": "secret1"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var data model.LoginResponse
		_ = json.Unmarshal(decode(t, w).Data, &data)
		if data.Token != "signed" || data.User.Username != "salma" {
			t.Errorf("login = %+v", data)
		}
	})

	t.Run("logout", func(t *testing.T) {
		if w := doJSON(r, http.MethodPost, "/logout", nil); w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

func newPracticeRouter(t *testing.T, stt *stubTranscriber) http.Handler {
	t.Helper()
	media := service.NewMediaService(&config.Config{
		UploadDir:      filepath.Join(t.TempDir(), "uploads"),
		MaxUploadBytes: 1 << 20,
	})
	match := service.NewMatchService(testWords(), stt, nil, media, nopRecorder{}, 0.75)
	h := NewPracticeHandler(match)

	r := newEngine()
	r.POST("/match", asUser(1), h.Match)
	r.POST("/transcribe", asUser(1), h.Transcribe)
	return r
}

func TestPracticeHandler_Match(t *testing.T) {
	r := newPracticeRouter(t, &stubTranscriber{})

	w := doJSON(r, http.MethodPost, "/match", map[string]any{"word_id": 2, "transcription": "مَدْرَسَة"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got model.MatchResponse
	_ = json.Unmarshal(decode(t, w).Data, &got)
	if !got.IsCorrect || got.Confidence != 1 || got.NormalizedTranscription != "مدرسه" {
		t.Errorf("verdict = %+v", got)
	}

	w = doJSON(r, http.MethodPost, "/match", map[string]any{"transcription": "x"})
	if env := decode(t, w); w.Code != http.StatusBadRequest || env.Error.Fields["word_id"] == "" {
		t.Errorf("missing word_id: status = %d fields = %v", w.Code, env.Error)
	}

	w = doJSON(r, http.MethodPost, "/match", map[string]any{"word_id": 2, "transcription": "x", "threshold": 1.5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("threshold out of range: status = %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/match", map[string]any{"word_id": 9, "transcription": "x"})
	if w.Code != http.StatusNotFound || decode(t, w).Error.Code != response.ErrWordNotFound {
		t.Errorf("unknown word: status = %d", w.Code)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("audio", filename)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		_, _ = part.Write(data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func postMultipart(r http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPracticeHandler_Transcribe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := newPracticeRouter(t, &stubTranscriber{text: "بنات"})
		body, ct := multipartBody(t, map[string]string{"word_id": "1"}, "attempt.wav", []byte("RIFF"))
		w := postMultipart(r, body, ct)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var got model.MatchResponse
		_ = json.Unmarshal(decode(t, w).Data, &got)
		if !got.IsCorrect || got.Result != model.ResultCorrect || got.Transcription != "بنات" {
			t.Errorf("verdict = %+v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		r := newPracticeRouter(t, &stubTranscriber{})
		body, ct := multipartBody(t, map[string]string{"word_id": "1"}, "", nil)
		w := postMultipart(r, body, ct)
		if w.Code != http.StatusBadRequest || decode(t, w).Error.Code != response.ErrFileRequired {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		r := newPracticeRouter(t, &stubTranscriber{})
		body, ct := multipartBody(t, map[string]string{"word_id": "1"}, "notes.txt", []byte("x"))
		w := postMultipart(r, body, ct)
		if w.Code != http.StatusBadRequest || decode(t, w).Error.Code != response.ErrUnsupportedFile {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("speech service down", func(t *testing.T) {
		r := newPracticeRouter(t, &stubTranscriber{err: speech.ErrUnavailable})
		body, ct := multipartBody(t, map[string]string{"word_id": "1"}, "a.wav", []byte("RIFF"))
		w := postMultipart(r, body, ct)
		if w.Code != http.StatusBadGateway || decode(t, w).Error.Code != response.ErrSpeechUnavailable {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("missing word id", func(t *testing.T) {
		r := newPracticeRouter(t, &stubTranscriber{})
		body, ct := multipartBody(t, nil, "a.wav", []byte("RIFF"))
		w := postMultipart(r, body, ct)
		if w.Code != http.StatusBadRequest || decode(t, w).Error.Code != response.ErrValidation {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
	})
}

func TestSessionHandler(t *testing.T) {
	store := &stubSessions{
		byID:  map[int]*model.PracticeSession{5: {ID: 5, UserID: 1}, 6: {ID: 6, UserID: 2}},
		total: 25,
	}
	h := NewSessionHandler(service.NewPracticeSessionService(store, testWords()))
	r := newEngine()
	r.POST("/sessions", asUser(1), h.CreateSession)
	r.GET("/sessions", asUser(1), h.ListSessions)
	r.GET("/sessions/:id", asUser(1), h.GetSession)

	t.Run("create", func(t *testing.T) {
		records := []map[string]any{}
		for i := 0; i < 5; i++ {
			records = append(records, map[string]any{
				"word_id": 1, "result": "correct", "cue_level": 1, "response_time_ms": 4000, "points_earned": 10,
			})
		}
		w := doJSON(r, http.MethodPost, "/sessions", map[string]any{"records": records})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var got model.CreateSessionResponse
		_ = json.Unmarshal(decode(t, w).Data, &got)
		if got.Session.ID != 11 || got.Session.TotalPoints != 50 || got.Session.CorrectWords != 5 {
			t.Errorf("session = %+v", got.Session)
		}
		if got.TimeLimit.Rule != adaptive.RuleFastAccurate || got.TimeLimit.NewLimitMs != 40000 {
			t.Errorf("time limit = %+v", got.TimeLimit)
		}
	})

	t.Run("create validation", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/sessions", map[string]any{
			"records": []map[string]any{{"word_id": 1, "result": "maybe", "cue_level": 4}},
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		fields := decode(t, w).Error.Fields
		for _, f := range []string{"records[0].result", "records[0].cue_level"} {
			if _, ok := fields[f]; !ok {
				t.Errorf("missing %s in %v", f, fields)
			}
		}

		w = doJSON(r, http.MethodPost, "/sessions", map[string]any{"records": []any{}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("empty records: status = %d", w.Code)
		}
	})

	t.Run("create unknown word", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/sessions", map[string]any{
			"records": []map[string]any{{"word_id": 50, "result": "correct", "cue_level": 1, "response_time_ms": 1}},
		})
		if w.Code != http.StatusBadRequest || decode(t, w).Error.Code != response.ErrUnknownWord {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/sessions?page=2&per_page=10", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		p := decode(t, w).Pagination
		if p == nil || p.Page != 2 || p.TotalItems != 25 || p.TotalPages != 3 {
			t.Errorf("pagination = %+v", p)
		}
	})

	t.Run("get", func(t *testing.T) {
		if w := doJSON(r, http.MethodGet, "/sessions/5", nil); w.Code != http.StatusOK {
			t.Errorf("own session: status = %d", w.Code)
		}
		if w := doJSON(r, http.MethodGet, "/sessions/6", nil); w.Code != http.StatusNotFound {
			t.Errorf("other user's session: status = %d", w.Code)
		}
		if w := doJSON(r, http.MethodGet, "/sessions/x", nil); w.Code != http.StatusBadRequest {
			t.Errorf("bad id: status = %d", w.Code)
		}
	})
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []HealthCheck
		code   int
		status string
	}{
		{"all up", []HealthCheck{{Name: "postgres", Critical: true, Ping: ok}}, http.StatusOK, "ok"},
		{"optional down", []HealthCheck{{Name: "postgres", Critical: true, Ping: ok}, {Name: "whisper", Ping: down}}, http.StatusOK, "degraded"},
		{"critical down", []HealthCheck{{Name: "redis", Critical: true, Ping: down}}, http.StatusServiceUnavailable, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := func(context.Context) (int64, error) { return 3, nil }
			h := NewSystemHandler(tt.checks, queue, zerolog.Nop())
			r := newEngine()
			r.GET("/health", h.Health)

			w := doJSON(r, http.MethodGet, "/health", nil)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			var body struct {
				Status  string `json:"status"`
				Pending int64  `json:"pending_match_attempts"`
			}
			_ = json.Unmarshal(decode(t, w).Data, &body)
			if body.Status != tt.status || body.Pending != 3 {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestUserHandler(t *testing.T) {
	users := newStubUsers()
	initial := 45000
	_ = users.Create(context.Background(), &model.User{Username: "salma", InitialTimeLimitMs: initial, CurrentTimeLimitMs: &initial})

	h := NewUserHandler(service.NewUserService(users, stubWindow{}, stubAuth{}))
	r := newEngine()
	r.GET("/users", h.ListUsers)
	r.GET("/me", asUser(1), h.GetProfile)
	r.GET("/ghost", asUser(42), h.GetProfile)
	r.PUT("/me/progress", asUser(1), h.UpdateProgress)
	r.GET("/me/time-limit", asUser(1), h.GetTimeLimit)

	if w := doJSON(r, http.MethodGet, "/users", nil); w.Code != http.StatusOK {
		t.Errorf("list: status = %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/me", nil); w.Code != http.StatusOK {
		t.Errorf("profile: status = %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/ghost", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing user: status = %d", w.Code)
	}

	w := doJSON(r, http.MethodPut, "/me/progress", map[string]any{"accuracy_percent": 150})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid progress: status = %d", w.Code)
	} else if _, ok := decode(t, w).Error.Fields["accuracy_percent"]; !ok {
		t.Errorf("expected accuracy_percent field error: %s", w.Body.String())
	}
	if w := doJSON(r, http.MethodPut, "/me/progress", map[string]any{"total_points": 120}); w.Code != http.StatusOK {
		t.Errorf("progress: status = %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/me/time-limit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("time limit: status = %d", w.Code)
	}
	var limit model.TimeLimitResponse
	_ = json.Unmarshal(decode(t, w).Data, &limit)
	if limit.CurrentTimeLimitMs != 45000 || limit.Analysis.Rule != adaptive.RuleNoHistory {
		t.Errorf("time limit = %+v", limit)
	}
}
