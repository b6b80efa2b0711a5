package domain

import (
	"reflect"
	"testing"
)

func TestAnswerChoicesByteOrder(t *testing.T) {
	q := Question{
		Text:             "Pick one",
		CorrectAnswer:    "apple",
		IncorrectAnswers: []string{"Éclair", "Zebra", "banana"},
	}

	got := AnswerChoices(q)
	want := []string{"Zebra", "apple", "banana", "Éclair"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if q.IncorrectAnswers[0] != "Éclair" {
		t.Fatalf("expected question left untouched, got %v", q.IncorrectAnswers)
	}
}
