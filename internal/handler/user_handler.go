package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/middleware"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/validator"
)

// UserHandler serves profiles, progress and the adaptive time limit.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers godoc
// GET /api/v1/users
// Returns the public user cards shown on the login screen.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// GetProfile godoc
// GET /api/v1/users/me
// Returns the profile of the authenticated user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		failUser(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProgress godoc
// PUT /api/v1/users/me/progress
// Stores the client's gamification state. Omitted fields are unchanged.
func (h *UserHandler) UpdateProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ProgressUpdateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateProgress(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failUser(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// GetTimeLimit godoc
// GET /api/v1/users/me/time-limit
// Returns the current and initial limits with the analysis of the recent window.
func (h *UserHandler) GetTimeLimit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, err := h.userService.TimeLimit(c.Request.Context(), claims.UserID)
	if err != nil {
		failUser(c, err)
		return
	}
	response.Success(c, http.StatusOK, limit)
}

func failUser(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
		return
	}
	response.Logger(c).Error().Err(err).Msg("User request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
