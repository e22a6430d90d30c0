package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/handler"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/repository"
	"github.com/stemsi/interview-agent/internal/service"
	"github.com/stemsi/interview-agent/internal/validator"
	ws "github.com/stemsi/interview-agent/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type staticAnswerer struct{}

func (staticAnswerer) Answer(_ context.Context, q string) string {
	return "Tuition is $7,500."
}

type templateSummarizer struct{}

func (templateSummarizer) Summarize(_ context.Context, s model.Session) (string, *model.Summary) {
	return "# Interview Summary", &model.Summary{
		RawAnswers:    s.Answers,
		Suitability:   model.SuitabilityStrong,
		ReadinessFlag: model.ReadinessReadyNow,
	}
}

// memoryArchive plays both the archive queue and the Postgres table.
type memoryArchive struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.ArchivedSession
}

func (a *memoryArchive) Enqueue(_ context.Context, s *model.ArchivedSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[uuid.MustParse(s.ID)] = s
	return nil
}

func (a *memoryArchive) GetByID(_ context.Context, id uuid.UUID) (*model.ArchivedSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (a *memoryArchive) List(_ context.Context, page, perPage int) ([]model.ArchivedSessionListItem, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var items []model.ArchivedSessionListItem
	for _, s := range a.items {
		items = append(items, model.ArchivedSessionListItem{ID: s.ID, Suitability: s.Suitability, ReadinessFlag: s.ReadinessFlag, CreatedAt: s.CreatedAt})
	}
	return items, len(items), nil
}

var routerQuestions = []model.Question{
	{Key: "background", Label: "Background", Text: "Tell me about yourself."},
	{Key: "readiness", Label: "Readiness", Text: "When can you start?"},
}

func newTestRouter(t *testing.T) (*gin.Engine, *memoryArchive) {
	t.Helper()
	validator.Setup()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		GinMode:              gin.TestMode,
		JWTSecret:            "test-secret",
		JWTExpiry:            time.Hour,
		ReviewerUsername:     "reviewer",
		ReviewerPasswordHash: string(hash),
		RateLimitPerMinute:   1000,
	}

	log := zerolog.Nop()
	archive := &memoryArchive{items: make(map[uuid.UUID]*model.ArchivedSession)}
	authService := service.NewAuthService(cfg)
	interviewService := service.NewInterviewService(
		routerQuestions, 5, repository.NewMemoryStateRepository(),
		staticAnswerer{}, templateSummarizer{}, archive, log,
	)
	reviewService := service.NewReviewService(archive, log)

	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Interview: handler.NewInterviewHandler(interviewService, log),
		Review:    handler.NewReviewHandler(reviewService),
		WS:        handler.NewWSHandler(interviewService, log, nil),
		Health: handler.NewHealthHandler(map[string]handler.Checker{
			"redis": func(context.Context) error { return nil },
		}, "test-model", log),
	}
	return SetupRouter(authService, handlers, cfg), archive
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return w, envelope
}

func data(env map[string]interface{}) map[string]interface{} {
	d, _ := env["data"].(map[string]interface{})
	return d
}

func errCode(env map[string]interface{}) string {
	e, _ := env["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestInterviewHTTPFlow(t *testing.T) {
	r, archive := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/interviews", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	id := data(env)["session_id"].(string)
	q := data(env)["question"].(map[string]interface{})
	assert.Equal(t, "background", q["key"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/faq", map[string]string{"question": "Tuition?"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INTERVIEW_INCOMPLETE", errCode(env))

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/answers", map[string]string{"text": "I am a data analyst with five years of experience."}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Thanks, that helps.", data(env)["ack"])
	assert.Equal(t, "readiness", data(env)["question"].(map[string]interface{})["key"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/answers", map[string]string{"text": "hi"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, data(env)["reprompt"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/answers", map[string]string{"text": "Ready immediately, from the next cohort on."}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "faq", data(env)["phase"])
	assert.Nil(t, data(env)["ack"])

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/interviews/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), data(env)["answered"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/faq", map[string]string{"question": "What is the tuition?"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tuition is $7,500.", data(env)["answer"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/faq", map[string]string{"question": "done"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, data(env)["done"])

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+id+"/finish", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Interview Summary", data(env)["markdown"])
	assert.Len(t, archive.items, 1)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/interviews/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errCode(env))
}

func TestInterviewHTTPErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/interviews/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errCode(env))

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/interviews/"+uuid.NewString()+"/answers", map[string]string{"text": strings.Repeat("x", 8001)}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(env))
}

func TestReviewerRoutes(t *testing.T) {
	r, archive := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/reviewer/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REQUIRED", errCode(env))

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/reviewer/login", map[string]string{"username": "reviewer", "password": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(env))

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/reviewer/login", map[string]string{"username": "reviewer"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(env))

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/reviewer/login", map[string]string{"username": "reviewer", "password": "s3cret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := data(env)["token"].(string)

	id := uuid.New()
	require.NoError(t, archive.Enqueue(context.Background(), &model.ArchivedSession{
		ID:          id.String(),
		Suitability: model.SuitabilityWeak,
		CreatedAt:   time.Now(),
	}))

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/reviewer/sessions?page=1&per_page=10", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	pagination := env["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total_items"])

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/reviewer/sessions/"+id.String(), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "weak", data(env)["suitability"])

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/reviewer/sessions/"+uuid.NewString(), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errCode(env))

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/auth/reviewer/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reviewer", data(env)["reviewer"].(map[string]interface{})["username"])
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", data(env)["status"])
	assert.Equal(t, "up", data(env)["dependencies"].(map[string]interface{})["redis"])
}

func TestHealthDegraded(t *testing.T) {
	validator.Setup()
	r := gin.New()
	h := handler.NewHealthHandler(map[string]handler.Checker{
		"postgres": func(context.Context) error { return errors.New("refused") },
	}, "m", zerolog.Nop())
	r.GET("/health", h.Health)

	w, env := doJSON(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", data(env)["status"])
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestInterviewWebSocket(t *testing.T) {
	r, archive := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/interviews/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.Equal(t, string(ws.EventQuestion), ev["event"])
	assert.NotEmpty(t, ev["greeting"])
	sessionID := ev["session_id"].(string)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionPing}))
	assert.Equal(t, string(ws.EventPong), readEvent(t, conn)["event"])

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionAnswer, Text: "I teach maths and build small web apps."}))
	assert.Equal(t, string(ws.EventAck), readEvent(t, conn)["event"])
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventQuestion), ev["event"])
	assert.Equal(t, "readiness", ev["question"].(map[string]interface{})["key"])

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionFinish}))
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventError), ev["event"])

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionAnswer, Text: ""}))
	assert.Equal(t, string(ws.EventReprompt), readEvent(t, conn)["event"])

	// Accepted after a re-prompt: no ack, straight to the Q&A.
	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionAnswer, Text: "Next month, once my notice period ends."}))
	assert.Equal(t, string(ws.EventFAQOpen), readEvent(t, conn)["event"])

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionAsk, Question: "Tuition?"}))
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventFAQAnswer), ev["event"])
	assert.Equal(t, "Tuition is $7,500.", ev["answer"])

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionFinish}))
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventSummary), ev["event"])
	assert.Equal(t, sessionID, ev["session_id"])

	_, ok := archive.items[uuid.MustParse(sessionID)]
	assert.True(t, ok)
}

func TestInterviewWebSocketResume(t *testing.T) {
	r, _ := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/interviews", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := data(env)["session_id"].(string)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/interviews/stream?session_id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.Equal(t, string(ws.EventQuestion), ev["event"])
	assert.Equal(t, id, ev["session_id"])
	assert.Nil(t, ev["greeting"])
	assert.Equal(t, "background", ev["question"].(map[string]interface{})["key"])
}
