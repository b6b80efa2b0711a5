package app

import "trivia-quiz-service/internal/domain"

// Score computes the results summary for a frozen snapshot. It has no side effects and
// returns identical output for identical input.
//
// The percentage is rounded half up in integer arithmetic: (correct*200 + total) / (2*total).
// A snapshot with no questions scores 0.
func Score(snapshot domain.Snapshot) domain.ResultsSummary {
	total := len(snapshot.Questions)
	timeLimit := snapshot.TimeLimit
	if timeLimit <= 0 {
		timeLimit = domain.TimeLimit
	}

	summary := domain.ResultsSummary{
		TotalQuestions: total,
		TimeRemaining:  snapshot.TimeRemaining,
		Questions:      make([]domain.QuestionResult, 0, total),
	}

	for i, q := range snapshot.Questions {
		selected, answered := snapshot.Answers[i]
		result := domain.QuestionResult{
			Index:         i,
			Text:          q.Text,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Outcome:       domain.OutcomeUnanswered,
			CorrectAnswer: q.CorrectAnswer,
		}
		if answered {
			summary.AnsweredCount++
			result.Selected = selected
			result.Outcome = domain.OutcomeIncorrect
			if selected == q.CorrectAnswer {
				result.Outcome = domain.OutcomeCorrect
				summary.CorrectCount++
			}
		}
		for _, choice := range domain.AnswerChoices(q) {
			result.Choices = append(result.Choices, domain.ChoiceResult{
				Text:     choice,
				Selected: answered && choice == selected,
				Correct:  choice == q.CorrectAnswer,
			})
		}
		summary.Questions = append(summary.Questions, result)
	}

	if total > 0 {
		summary.ScorePercent = (summary.CorrectCount*200 + total) / (2 * total)
	}
	summary.TimeUsedSeconds = timeLimit - snapshot.TimeRemaining
	if summary.TimeUsedSeconds < 0 {
		summary.TimeUsedSeconds = 0
	}
	return summary
}
