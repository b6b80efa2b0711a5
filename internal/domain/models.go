package domain

import "sort"

const (
	// QuizLength is the fixed number of questions in one quiz.
	QuizLength = 15
	// TimeLimit is the quiz budget in seconds.
	TimeLimit = 30 * 60
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a multiple-choice trivia record. Text fields may carry inline markup and
// are treated as opaque strings.
type Question struct {
	Text             string     `json:"question"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Type             string     `json:"type,omitempty"`
}

// AnswerChoices returns the correct and incorrect answers in byte-wise lexicographic
// order of their UTF-8 encoding, so upper case sorts before lower case and accented
// letters after ASCII. The result is a fresh slice; the question is left untouched.
func AnswerChoices(q Question) []string {
	choices := make([]string, 0, len(q.IncorrectAnswers)+1)
	choices = append(choices, q.IncorrectAnswers...)
	choices = append(choices, q.CorrectAnswer)
	sort.Strings(choices)
	return choices
}

// HasChoice reports whether choice is one of the question's answers.
func HasChoice(q Question, choice string) bool {
	if choice == q.CorrectAnswer {
		return true
	}
	for _, a := range q.IncorrectAnswers {
		if a == choice {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusLoading     Status = "loading"
	StatusActive      Status = "active"
	StatusSubmitted   Status = "submitted"
	StatusUnavailable Status = "unavailable"
)

// Snapshot is the frozen record of a session taken at submission.
type Snapshot struct {
	Questions     []Question     `json:"questions"`
	Answers       map[int]string `json:"answers"`
	TimeRemaining int            `json:"timeLeft"`
	TimeLimit     int            `json:"timeLimit"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Questions:     make([]Question, len(s.Questions)),
		Answers:       make(map[int]string, len(s.Answers)),
		TimeRemaining: s.TimeRemaining,
		TimeLimit:     s.TimeLimit,
	}
	for i, q := range s.Questions {
		q.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
		out.Questions[i] = q
	}
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}

// QuestionView is the client-facing rendering of the active question. It never
// carries the correct answer.
type QuestionView struct {
	Index      int        `json:"index"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Choices    []string   `json:"choices"`
	Selected   string     `json:"selected,omitempty"`
}

// QuestionState is one entry of the question overview.
type QuestionState struct {
	Index    int  `json:"index"`
	Visited  bool `json:"visited"`
	Answered bool `json:"answered"`
	Current  bool `json:"current"`
}

// SessionView is a point-in-time view of a session sent to clients.
type SessionView struct {
	SessionID     string          `json:"sessionId"`
	Status        Status          `json:"status"`
	CurrentIndex  int             `json:"currentIndex"`
	Total         int             `json:"total"`
	TimeRemaining int             `json:"timeRemaining"`
	Current       *QuestionView   `json:"current,omitempty"`
	Overview      []QuestionState `json:"overview"`
}

// Outcome classifies a question in the results.
type Outcome string

const (
	OutcomeUnanswered Outcome = "unanswered"
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
)

// ChoiceResult annotates one answer choice in the results.
type ChoiceResult struct {
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Correct  bool   `json:"correct"`
}

// QuestionResult is the per-question detail of a results summary.
type QuestionResult struct {
	Index         int            `json:"index"`
	Text          string         `json:"text"`
	Category      string         `json:"category"`
	Difficulty    Difficulty     `json:"difficulty"`
	Outcome       Outcome        `json:"outcome"`
	Selected      string         `json:"selected,omitempty"`
	CorrectAnswer string         `json:"correctAnswer"`
	Choices       []ChoiceResult `json:"choices"`
}

// ResultsSummary is the scored outcome of a finished quiz.
type ResultsSummary struct {
	Email           string           `json:"email,omitempty"`
	TotalQuestions  int              `json:"totalQuestions"`
	AnsweredCount   int              `json:"answeredCount"`
	CorrectCount    int              `json:"correctCount"`
	ScorePercent    int              `json:"scorePercent"`
	TimeRemaining   int              `json:"timeRemaining"`
	TimeUsedSeconds int              `json:"timeUsedSeconds"`
	Questions       []QuestionResult `json:"questions"`
}
