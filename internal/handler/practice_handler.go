package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/middleware"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/validator"
)

// PracticeHandler checks spoken and typed attempts.
type PracticeHandler struct {
	matchService *service.MatchService
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(matchService *service.MatchService) *PracticeHandler {
	return &PracticeHandler{matchService: matchService}
}

// Transcribe godoc
// POST /api/v1/practice/transcribe
// Multipart: "audio" file and "word_id". Transcribes the recording and
// decides whether it names the word.
func (h *PracticeHandler) Transcribe(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var form model.TranscribeForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	resp, err := h.matchService.CheckAudio(c.Request.Context(), claims.UserID, form.WordID, file, header)
	if err != nil {
		failMatch(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Match godoc
// POST /api/v1/practice/match
// Decides a transcription produced on the client.
func (h *PracticeHandler) Match(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.MatchTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.matchService.CheckText(c.Request.Context(), claims.UserID, req.WordID, req.Transcription, req.Threshold, model.SourceText)
	if err != nil {
		failMatch(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func failMatch(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWordNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrWordNotFound)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
	case errors.Is(err, service.ErrTranscriptionFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrSpeechUnavailable)
	default:
		response.Logger(c).Error().Err(err).Msg("Match failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
