package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/response"
	"github.com/stemsi/interview-agent/internal/service"
	"github.com/stemsi/interview-agent/internal/validator"
)

// InterviewHandler serves the candidate-facing interview flow.
type InterviewHandler struct {
	interviewService *service.InterviewService
	log              zerolog.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(interviewService *service.InterviewService, log zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
		log:              log.With().Str("component", "interview_handler").Logger(),
	}
}

// StartInterview godoc
// POST /api/v1/interviews
// Opens a new session and returns the greeting and the first question.
func (h *InterviewHandler) StartInterview(c *gin.Context) {
	res, err := h.interviewService.Start(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Start interview error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// SubmitAnswer godoc
// POST /api/v1/interviews/:id/answers
// Answers the current question.
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.interviewService.SubmitAnswer(c.Request.Context(), id, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// AskFAQ godoc
// POST /api/v1/interviews/:id/faq
// Answers a candidate question about the program.
func (h *InterviewHandler) AskFAQ(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.AskFAQRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.interviewService.AskFAQ(c.Request.Context(), id, req.Question)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// FinishInterview godoc
// POST /api/v1/interviews/:id/finish
// Builds the reviewer summary and closes the session.
func (h *InterviewHandler) FinishInterview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	res, err := h.interviewService.Finish(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetInterview godoc
// GET /api/v1/interviews/:id
// Returns the progress of a live interview.
func (h *InterviewHandler) GetInterview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	res, err := h.interviewService.Snapshot(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// fail maps interview service errors to API errors.
func (h *InterviewHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrInterviewIncomplete):
		response.Fail(c, http.StatusConflict, response.ErrInterviewIncomplete)
	case errors.Is(err, service.ErrInterviewComplete):
		response.Fail(c, http.StatusConflict, response.ErrInterviewComplete)
	default:
		h.log.Error().Err(err).Str("session_id", c.Param("id")).Msg("Interview error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// sessionID reads and validates the :id path parameter.
func sessionID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id.String(), true
}
