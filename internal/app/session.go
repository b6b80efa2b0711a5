package app

import (
	"fmt"
	"sort"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// Session is the in-memory state of one quiz attempt.
type Session struct {
	id        string
	length    int
	timeLimit int

	mu          sync.RWMutex
	status      domain.Status
	questions   []domain.Question
	current     int
	answers     map[int]string
	visited     map[int]struct{}
	remaining   int
	snapshot    *domain.Snapshot
	done        chan struct{}
	onFinish    func(domain.Snapshot)
	subscribers map[chan domain.SessionView]struct{}
}

// NewSession creates a session in the loading state with the default quiz length and time limit.
func NewSession(id string) *Session {
	return NewSessionWithLimits(id, domain.QuizLength, domain.TimeLimit)
}

// NewSessionWithLimits creates a loading session expecting length questions and
// counting down from timeLimit seconds.
func NewSessionWithLimits(id string, length, timeLimit int) *Session {
	return &Session{
		id:          id,
		length:      length,
		timeLimit:   timeLimit,
		status:      domain.StatusLoading,
		answers:     make(map[int]string),
		visited:     make(map[int]struct{}),
		remaining:   timeLimit,
		done:        make(chan struct{}),
		subscribers: make(map[chan domain.SessionView]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnFinish registers fn to run once when the session is submitted, before the
// submitted view is broadcast. It must be set before Load.
func (s *Session) OnFinish(fn func(domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinish = fn
}

// Done is closed when the session leaves the active state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Load populates a loading session. A batch of the wrong size moves the session to
// the unavailable state instead of running on a partial set.
func (s *Session) Load(questions []domain.Question) (domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusLoading {
		return domain.SessionView{}, fmt.Errorf("load in %s state: %w", s.status, domain.ErrInvalidTransition)
	}
	if len(questions) == 0 || len(questions) != s.length {
		s.status = domain.StatusUnavailable
		close(s.done)
		return s.viewLocked(), fmt.Errorf("got %d of %d questions: %w", len(questions), s.length, domain.ErrSourceUnavailable)
	}

	s.questions = make([]domain.Question, len(questions))
	copy(s.questions, questions)
	s.current = 0
	s.visited[0] = struct{}{}
	s.remaining = s.timeLimit
	s.status = domain.StatusActive
	return s.broadcastLocked(), nil
}

// Fail marks a loading session as unavailable.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusLoading {
		return
	}
	s.status = domain.StatusUnavailable
	close(s.done)
	s.broadcastLocked()
}

// Navigate makes index the current question. Any question may be jumped to.
func (s *Session) Navigate(index int) (domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusActive {
		return domain.SessionView{}, fmt.Errorf("navigate in %s state: %w", s.status, domain.ErrInvalidTransition)
	}
	if index < 0 || index >= len(s.questions) {
		return domain.SessionView{}, fmt.Errorf("navigate to %d: %w", index, domain.ErrQuestionOutOfRange)
	}
	s.current = index
	s.visited[index] = struct{}{}
	return s.broadcastLocked(), nil
}

// RecordAnswer sets the answer for the current question, replacing any earlier one.
func (s *Session) RecordAnswer(choice string) (domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusActive {
		return domain.SessionView{}, fmt.Errorf("answer in %s state: %w", s.status, domain.ErrInvalidTransition)
	}
	s.answers[s.current] = choice
	return s.broadcastLocked(), nil
}

// CurrentQuestion returns the active question.
func (s *Session) CurrentQuestion() (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != domain.StatusActive {
		return domain.Question{}, fmt.Errorf("current question in %s state: %w", s.status, domain.ErrInvalidTransition)
	}
	return s.questions[s.current], nil
}

// Tick consumes one second of the budget. Reaching zero submits the session within
// the same call.
func (s *Session) Tick() (domain.SessionView, error) {
	s.mu.Lock()
	if s.status != domain.StatusActive {
		status := s.status
		s.mu.Unlock()
		return domain.SessionView{}, fmt.Errorf("tick in %s state: %w", status, domain.ErrInvalidTransition)
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		view := s.broadcastLocked()
		s.mu.Unlock()
		return view, nil
	}
	snap, hook := s.finishLocked()
	s.mu.Unlock()

	return s.complete(snap, hook), nil
}

// Submit freezes the session. Submitting an already submitted session returns the
// existing snapshot and changes nothing.
func (s *Session) Submit() (domain.Snapshot, error) {
	s.mu.Lock()
	switch s.status {
	case domain.StatusSubmitted:
		snap := s.snapshot.Clone()
		s.mu.Unlock()
		return snap, nil
	case domain.StatusActive:
	default:
		status := s.status
		s.mu.Unlock()
		return domain.Snapshot{}, fmt.Errorf("submit in %s state: %w", status, domain.ErrInvalidTransition)
	}
	snap, hook := s.finishLocked()
	s.mu.Unlock()

	s.complete(snap, hook)
	return snap.Clone(), nil
}

// Snapshot returns the frozen snapshot once the session is submitted.
func (s *Session) Snapshot() (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return domain.Snapshot{}, false
	}
	return s.snapshot.Clone(), true
}

// View returns the current client view.
func (s *Session) View() domain.SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// finishLocked is the single submit transition shared by Tick and Submit.
func (s *Session) finishLocked() (domain.Snapshot, func(domain.Snapshot)) {
	snap := domain.Snapshot{
		Questions:     s.questions,
		Answers:       s.answers,
		TimeRemaining: s.remaining,
		TimeLimit:     s.timeLimit,
	}.Clone()
	s.snapshot = &snap
	s.status = domain.StatusSubmitted
	close(s.done)
	return snap, s.onFinish
}

// complete runs the finish hook and then publishes the submitted view, so subscribers
// never see the submitted state before the hook has handed the snapshot off.
func (s *Session) complete(snap domain.Snapshot, hook func(domain.Snapshot)) domain.SessionView {
	if hook != nil {
		hook(snap.Clone())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcastLocked()
}

func (s *Session) subscribe() (<-chan domain.SessionView, func()) {
	ch := make(chan domain.SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.SessionView {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: drop the oldest view so the latest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) viewLocked() domain.SessionView {
	view := domain.SessionView{
		SessionID:     s.id,
		Status:        s.status,
		CurrentIndex:  s.current,
		Total:         len(s.questions),
		TimeRemaining: s.remaining,
		Overview:      make([]domain.QuestionState, 0, len(s.questions)),
	}
	for i := range s.questions {
		_, visited := s.visited[i]
		_, answered := s.answers[i]
		view.Overview = append(view.Overview, domain.QuestionState{
			Index:    i,
			Visited:  visited,
			Answered: answered,
			Current:  i == s.current,
		})
	}
	if s.status == domain.StatusActive {
		q := s.questions[s.current]
		view.Current = &domain.QuestionView{
			Index:      s.current,
			Text:       q.Text,
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Choices:    domain.AnswerChoices(q),
			Selected:   s.answers[s.current],
		}
	}
	return view
}

// Visited returns the visited question indexes in ascending order.
func (s *Session) Visited() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.visited))
	for i := range s.visited {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
