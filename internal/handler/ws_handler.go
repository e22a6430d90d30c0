package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/response"
	"github.com/stemsi/interview-agent/internal/service"
	ws "github.com/stemsi/interview-agent/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the interview over a WebSocket.
type WSHandler struct {
	interviewService *service.InterviewService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(interviewService *service.InterviewService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		interviewService: interviewService,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// InterviewStream godoc
// WS /ws/v1/interviews/stream[?session_id=...]
// Starts a new interview, or resumes one when session_id is given.
func (h *WSHandler) InterviewStream(c *gin.Context) {
	resumeID := c.Query("session_id")
	if resumeID != "" {
		if _, err := uuid.Parse(resumeID); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	sessionID, err := h.open(ctx, conn, resumeID)
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}

	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	wsLog.Info().Bool("resumed", resumeID != "").Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(ctx, conn, sessionID, msg.Text)
		case ws.ActionAsk:
			h.handleAsk(ctx, conn, sessionID, msg.Question)
		case ws.ActionFinish:
			if h.handleFinish(ctx, conn, sessionID) {
				wsLog.Info().Msg("Interview stream finished")
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview finished"))
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// open starts or resumes a session and tells the client where it stands.
func (h *WSHandler) open(ctx context.Context, conn *websocket.Conn, resumeID string) (string, error) {
	if resumeID == "" {
		res, err := h.interviewService.Start(ctx)
		if err != nil {
			return "", err
		}
		return res.SessionID, ws.WriteTyped(conn, ws.QuestionResponse{
			Event:     ws.EventQuestion,
			SessionID: res.SessionID,
			Greeting:  res.Greeting,
			Question:  res.Question,
		})
	}

	snap, err := h.interviewService.Snapshot(ctx, resumeID)
	if err != nil {
		return "", err
	}
	if snap.Phase == model.PhaseFAQ || snap.CurrentQuestion == nil {
		return resumeID, ws.WriteMessage(conn, ws.EventFAQOpen, faq.Intro)
	}
	return resumeID, ws.WriteTyped(conn, ws.QuestionResponse{
		Event:     ws.EventQuestion,
		SessionID: resumeID,
		Question:  snap.CurrentQuestion,
	})
}

func (h *WSHandler) handleAnswer(ctx context.Context, conn *websocket.Conn, sessionID, text string) {
	res, err := h.interviewService.SubmitAnswer(ctx, sessionID, text)
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}

	if res.Reprompt != "" {
		ws.WriteMessage(conn, ws.EventReprompt, res.Reprompt)
		return
	}
	if res.Ack != "" {
		ws.WriteMessage(conn, ws.EventAck, res.Ack)
	}
	if res.Question != nil {
		ws.WriteTyped(conn, ws.QuestionResponse{
			Event:     ws.EventQuestion,
			SessionID: sessionID,
			Question:  res.Question,
		})
		return
	}
	ws.WriteMessage(conn, ws.EventFAQOpen, faq.Intro)
}

func (h *WSHandler) handleAsk(ctx context.Context, conn *websocket.Conn, sessionID, question string) {
	res, err := h.interviewService.AskFAQ(ctx, sessionID, question)
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}
	ws.WriteTyped(conn, ws.FAQAnswerResponse{
		Event:  ws.EventFAQAnswer,
		Answer: res.Answer,
		Done:   res.Done,
	})
}

// handleFinish reports whether the summary was delivered.
func (h *WSHandler) handleFinish(ctx context.Context, conn *websocket.Conn, sessionID string) bool {
	res, err := h.interviewService.Finish(ctx, sessionID)
	if err != nil {
		h.writeServiceError(conn, err)
		return false
	}
	ws.WriteTyped(conn, ws.SummaryResponse{
		Event:     ws.EventSummary,
		SessionID: res.SessionID,
		Markdown:  res.Markdown,
		Summary:   res.Summary,
	})
	return true
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		ws.WriteError(conn, response.GetMessage(response.ErrSessionNotFound))
	case errors.Is(err, service.ErrInterviewIncomplete):
		ws.WriteError(conn, response.GetMessage(response.ErrInterviewIncomplete))
	case errors.Is(err, service.ErrInterviewComplete):
		ws.WriteError(conn, response.GetMessage(response.ErrInterviewComplete))
	default:
		h.log.Error().Err(err).Msg("Interview stream error")
		ws.WriteError(conn, response.GetMessage(response.ErrInternal))
	}
}
