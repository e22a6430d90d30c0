package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/interview"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/repository"
)

// Interview flow errors.
var (
	ErrSessionNotFound     = errors.New("interview session not found")
	ErrInterviewIncomplete = errors.New("interview questions are not finished")
	ErrInterviewComplete   = errors.New("interview questions are already answered")
)

// FAQAnswerer answers candidate questions.
type FAQAnswerer interface {
	Answer(ctx context.Context, question string) string
}

// Summarizer produces the reviewer summary of a session.
type Summarizer interface {
	Summarize(ctx context.Context, session model.Session) (string, *model.Summary)
}

// Archiver accepts finished sessions for long-term storage.
type Archiver interface {
	Enqueue(ctx context.Context, s *model.ArchivedSession) error
}

// InterviewService runs interviews whose state lives in a StateRepository,
// so each step can arrive on a different request.
type InterviewService struct {
	questions      []model.Question
	minAnswerChars int
	states         repository.StateRepository
	faq            FAQAnswerer
	summarizer     Summarizer
	archive        Archiver
	log            zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// sessionLock is held in the locks map only while some request uses it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(
	questions []model.Question,
	minAnswerChars int,
	states repository.StateRepository,
	faqAnswerer FAQAnswerer,
	summarizer Summarizer,
	archive Archiver,
	log zerolog.Logger,
) *InterviewService {
	return &InterviewService{
		questions:      questions,
		minAnswerChars: minAnswerChars,
		states:         states,
		faq:            faqAnswerer,
		summarizer:     summarizer,
		archive:        archive,
		log:            log.With().Str("component", "interview_service").Logger(),
		locks:          make(map[string]*sessionLock),
	}
}

// lock serializes steps of the same session within this process. The entry
// is removed once no request holds or waits on it.
func (s *InterviewService) lock(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}

func (s *InterviewService) load(ctx context.Context, sessionID string) (*interview.Agent, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	return interview.Restore(state, s.minAnswerChars), nil
}

func (s *InterviewService) save(ctx context.Context, sessionID string, agent *interview.Agent) error {
	if err := s.states.Save(ctx, sessionID, agent.State()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Start opens a new interview and asks the first question.
func (s *InterviewService) Start(ctx context.Context) (*model.StartInterviewResponse, error) {
	sessionID := uuid.New().String()
	agent := interview.NewAgent(s.questions, s.minAnswerChars)

	greeting := agent.Start()
	q, err := agent.NextQuestion()
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, sessionID, agent); err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", sessionID).Msg("Interview started")
	return &model.StartInterviewResponse{SessionID: sessionID, Greeting: greeting, Question: &q}, nil
}

// SubmitAnswer answers the current question.
func (s *InterviewService) SubmitAnswer(ctx context.Context, sessionID, text string) (*model.SubmitAnswerResponse, error) {
	defer s.lock(sessionID)()

	agent, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cur, ok := agent.Current()
	if !ok {
		return nil, ErrInterviewComplete
	}

	out, err := agent.Submit(cur.Key, text)
	if err != nil {
		return nil, err
	}

	resp := &model.SubmitAnswerResponse{Phase: model.PhaseQuestions}
	if !out.Accepted() {
		resp.Reprompt = out.Reprompt
	} else {
		resp.Ack = agent.Acknowledge(out)
		if agent.HasNext() {
			q, err := agent.NextQuestion()
			if err != nil {
				return nil, err
			}
			resp.Question = &q
		} else {
			resp.Phase = model.PhaseFAQ
		}
	}

	if err := s.save(ctx, sessionID, agent); err != nil {
		return nil, err
	}
	return resp, nil
}

// AskFAQ answers a candidate question once all interview questions are done.
// Exit words close the Q&A without calling the model.
func (s *InterviewService) AskFAQ(ctx context.Context, sessionID, question string) (*model.AskFAQResponse, error) {
	defer s.lock(sessionID)()

	agent, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !agent.Complete() {
		return nil, ErrInterviewIncomplete
	}

	if faq.IsExit(question) {
		return &model.AskFAQResponse{Done: true}, nil
	}

	answer := s.faq.Answer(ctx, question)
	agent.RecordFAQ(question, answer)

	if err := s.save(ctx, sessionID, agent); err != nil {
		return nil, err
	}
	return &model.AskFAQResponse{Answer: answer}, nil
}

// Finish summarizes the interview, hands it to the archive and drops the live
// state. The state is kept if archiving fails so the client can retry.
func (s *InterviewService) Finish(ctx context.Context, sessionID string) (*model.FinishInterviewResponse, error) {
	defer s.lock(sessionID)()

	agent, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !agent.Complete() {
		return nil, ErrInterviewIncomplete
	}

	session := agent.BuildSession()
	session.ID = sessionID
	md, sum := s.summarizer.Summarize(ctx, session)

	archived := &model.ArchivedSession{
		ID:              sessionID,
		Answers:         session.Answers,
		Turns:           session.Turns,
		FAQ:             session.FAQ,
		Summary:         sum,
		SummaryMarkdown: md,
		Suitability:     sum.Suitability,
		ReadinessFlag:   sum.ReadinessFlag,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.archive.Enqueue(ctx, archived); err != nil {
		return nil, fmt.Errorf("archive session: %w", err)
	}

	if err := s.states.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to delete interview state")
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("suitability", string(sum.Suitability)).
		Str("readiness_flag", string(sum.ReadinessFlag)).
		Msg("Interview finished")

	return &model.FinishInterviewResponse{SessionID: sessionID, Markdown: md, Summary: sum}, nil
}

// Snapshot reports the progress of a live interview.
func (s *InterviewService) Snapshot(ctx context.Context, sessionID string) (*model.InterviewSnapshot, error) {
	agent, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st := agent.State()
	snap := &model.InterviewSnapshot{
		SessionID: sessionID,
		Phase:     model.PhaseQuestions,
		Answered:  len(st.Answers),
		Total:     len(st.Questions),
		FAQCount:  len(st.FAQ),
		StartedAt: st.StartedAt,
	}
	if agent.Complete() {
		snap.Phase = model.PhaseFAQ
	} else if q, ok := agent.Current(); ok {
		snap.CurrentQuestion = &q
	}
	return snap, nil
}
