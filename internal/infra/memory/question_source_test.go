package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-quiz-service/internal/domain"
)

func TestStaticQuestionSourceLimitsBatch(t *testing.T) {
	source := NewStaticQuestionSource([]domain.Question{
		{Text: "one", CorrectAnswer: "a"},
		{Text: "two", CorrectAnswer: "b"},
		{Text: "three", CorrectAnswer: "c"},
	})

	got, err := source.FetchQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[1].Text != "two" {
		t.Fatalf("unexpected batch %+v", got)
	}
}

func TestStaticQuestionSourceEmpty(t *testing.T) {
	source := NewStaticQuestionSource(nil)
	if _, err := source.FetchQuestions(context.Background(), 15); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}
