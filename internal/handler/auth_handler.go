package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/interview-agent/internal/middleware"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/response"
	"github.com/stemsi/interview-agent/internal/service"
	"github.com/stemsi/interview-agent/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// ReviewerLogin godoc
// POST /api/v1/auth/reviewer/login
// Validates reviewer credentials and returns a JWT.
func (h *AuthHandler) ReviewerLogin(c *gin.Context) {
	var req model.ReviewerLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.ReviewerLogin(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrReviewerDisabled):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrLoginDisabled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token})
}

// GetReviewerProfile godoc
// GET /api/v1/auth/reviewer/me
// Returns the currently authenticated reviewer.
func (h *AuthHandler) GetReviewerProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"reviewer": gin.H{
			"username":   claims.Subject,
			"expires_at": claims.ExpiresAt,
		},
	})
}
