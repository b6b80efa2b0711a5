package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestionSource supplies a batch of questions for a new quiz.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, amount int) ([]domain.Question, error)
}

// HandoffStore carries a finished session to the results view. The snapshot slot is
// read exactly once; the identity slot is set independently when the quiz starts.
type HandoffStore interface {
	PutIdentity(ctx context.Context, sessionID, email string) error
	Identity(ctx context.Context, sessionID string) (string, error)
	PutSnapshot(ctx context.Context, sessionID string, snapshot domain.Snapshot) error
	TakeSnapshot(ctx context.Context, sessionID string) (domain.Snapshot, error)
}

// Options tunes quiz length and timing.
type Options struct {
	QuizLength     int
	TimeLimit      int
	TickInterval   time.Duration
	HandoffTimeout time.Duration
}

// DefaultOptions returns the production quiz settings: 15 questions, 30 minutes, 1s ticks.
func DefaultOptions() Options {
	return Options{
		QuizLength:     domain.QuizLength,
		TimeLimit:      domain.TimeLimit,
		TickInterval:   time.Second,
		HandoffTimeout: 5 * time.Second,
	}
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	source   QuestionSource
	handoff  HandoffStore
	opts     Options
	newID    func() string

	retainMu sync.Mutex
	retained map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

func NewQuizService(sessions SessionRepository, source QuestionSource, handoff HandoffStore, opts Options) *QuizService {
	defaults := DefaultOptions()
	if opts.QuizLength <= 0 {
		opts.QuizLength = defaults.QuizLength
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = defaults.TimeLimit
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaults.TickInterval
	}
	if opts.HandoffTimeout <= 0 {
		opts.HandoffTimeout = defaults.HandoffTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QuizService{
		sessions: sessions,
		source:   source,
		handoff:  handoff,
		opts:     opts,
		newID:    uuid.NewString,
		retained: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close stops every running countdown. Sessions still active stay unsubmitted.
func (s *QuizService) Close() {
	s.cancel()
}

// Start fetches a question batch and opens a new session labelled with email.
func (s *QuizService) Start(ctx context.Context, email string) (domain.SessionView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.SessionView{}, domain.ErrMissingIdentity
	}

	session := NewSessionWithLimits(s.newID(), s.opts.QuizLength, s.opts.TimeLimit)
	session.OnFinish(func(snapshot domain.Snapshot) {
		s.handOff(session.ID(), snapshot)
	})
	s.sessions.Put(session)

	questions, err := s.source.FetchQuestions(ctx, s.opts.QuizLength)
	if err != nil {
		session.Fail()
		s.sessions.Delete(session.ID())
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return domain.SessionView{}, err
		}
		return domain.SessionView{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	view, err := session.Load(questions)
	if err != nil {
		s.sessions.Delete(session.ID())
		return domain.SessionView{}, err
	}

	if err := s.handoff.PutIdentity(ctx, session.ID(), email); err != nil {
		log.Printf("store identity for session %s: %v", session.ID(), err)
	}

	go RunCountdown(s.ctx, session, s.opts.TickInterval)
	log.Printf("session %s started with %d questions", session.ID(), len(questions))
	return view, nil
}

// Navigate moves the session to the question at index.
func (s *QuizService) Navigate(_ context.Context, sessionID string, index int) (domain.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.Navigate(index)
}

// Answer records choice for the current question. The choice must be one of the
// question's answers.
func (s *QuizService) Answer(_ context.Context, sessionID, choice string) (domain.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	question, err := session.CurrentQuestion()
	if err != nil {
		return domain.SessionView{}, err
	}
	if !domain.HasChoice(question, choice) {
		return domain.SessionView{}, domain.ErrChoiceNotFound
	}
	return session.RecordAnswer(choice)
}

// Submit ends the quiz on user request. The snapshot is handed off exactly as on timeout.
func (s *QuizService) Submit(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if _, err := session.Submit(); err != nil {
		return domain.SessionView{}, err
	}
	return session.View(), nil
}

// View returns the current state of a live session.
func (s *QuizService) View(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.View(), nil
}

// Subscribe returns a channel that receives a view after every transition of the session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionView, func(), error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Results consumes the handed-off snapshot of a finished session and scores it.
// A second call for the same session returns domain.ErrMissingSnapshot.
func (s *QuizService) Results(ctx context.Context, sessionID string) (domain.ResultsSummary, error) {
	// the identity goes with the snapshot once it is taken
	email, err := s.handoff.Identity(ctx, sessionID)
	if err != nil {
		log.Printf("read identity for session %s: %v", sessionID, err)
	}

	snapshot, err := s.handoff.TakeSnapshot(ctx, sessionID)
	if err != nil {
		retained, ok := s.takeRetained(sessionID)
		if !ok {
			return domain.ResultsSummary{}, err
		}
		snapshot = retained
	}
	summary := Score(snapshot)
	summary.Email = email
	return summary, nil
}

// takeRetained serves a submitted session whose handoff could not be stored, then drops it.
func (s *QuizService) takeRetained(sessionID string) (domain.Snapshot, bool) {
	s.retainMu.Lock()
	defer s.retainMu.Unlock()

	if _, ok := s.retained[sessionID]; !ok {
		return domain.Snapshot{}, false
	}
	delete(s.retained, sessionID)
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, false
	}
	snapshot, ok := session.Snapshot()
	if !ok {
		return domain.Snapshot{}, false
	}
	s.sessions.Delete(sessionID)
	return snapshot, true
}

func (s *QuizService) session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// handOff stores the frozen snapshot and discards the live session. If the store
// rejects the snapshot the session is kept.
func (s *QuizService) handOff(sessionID string, snapshot domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.HandoffTimeout)
	defer cancel()

	if err := s.handoff.PutSnapshot(ctx, sessionID, snapshot); err != nil {
		// the submitted session stays live so Results can still serve it once
		log.Printf("hand off session %s: %v", sessionID, err)
		s.retainMu.Lock()
		s.retained[sessionID] = struct{}{}
		s.retainMu.Unlock()
		return
	}
	s.sessions.Delete(sessionID)
	log.Printf("session %s submitted with %d answers and %ds remaining", sessionID, len(snapshot.Answers), snapshot.TimeRemaining)
}
