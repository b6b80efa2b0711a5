package app_test

import (
	"fmt"

	"trivia-quiz-service/internal/domain"
)

// stubQuestions builds n questions whose correct answer for index i is "right-i".
func stubQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:             fmt.Sprintf("Question <b>%d</b>?", i),
			CorrectAnswer:    fmt.Sprintf("right-%d", i),
			IncorrectAnswers: []string{fmt.Sprintf("wrong-a-%d", i), fmt.Sprintf("wrong-b-%d", i), fmt.Sprintf("wrong-c-%d", i)},
			Category:         "General Knowledge",
			Difficulty:       domain.DifficultyMedium,
			Type:             "multiple",
		}
	}
	return questions
}

func right(i int) string { return fmt.Sprintf("right-%d", i) }

func wrong(i int) string { return fmt.Sprintf("wrong-a-%d", i) }
