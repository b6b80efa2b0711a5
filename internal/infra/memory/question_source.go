package memory

import (
	"context"

	"trivia-quiz-service/internal/domain"
)

// StaticQuestionSource serves a fixed question list (useful for tests/demos).
type StaticQuestionSource struct {
	questions []domain.Question
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

// FetchQuestions returns up to amount questions from the list.
func (l *StaticQuestionSource) FetchQuestions(_ context.Context, amount int) ([]domain.Question, error) {
	if len(l.questions) == 0 {
		return nil, domain.ErrSourceUnavailable
	}
	if amount > len(l.questions) {
		amount = len(l.questions)
	}
	out := make([]domain.Question, amount)
	copy(out, l.questions[:amount])
	return out, nil
}
