package app_test

import (
	"context"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

func TestRunCountdownSubmitsOnTimeout(t *testing.T) {
	session := app.NewSessionWithLimits("s-1", domain.QuizLength, 3)
	if _, err := session.Load(stubQuestions(domain.QuizLength)); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan struct{})
	go func() {
		app.RunCountdown(context.Background(), session, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not finish")
	}
	snap, ok := session.Snapshot()
	if !ok || snap.TimeRemaining != 0 {
		t.Fatalf("expected timeout submission with 0 remaining, got %+v ok=%v", snap, ok)
	}
}

func TestRunCountdownStopsOnSubmit(t *testing.T) {
	session := app.NewSession("s-1")
	if _, err := session.Load(stubQuestions(domain.QuizLength)); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan struct{})
	go func() {
		app.RunCountdown(context.Background(), session, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	snap, err := session.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown kept running after submit")
	}
	if view := session.View(); view.TimeRemaining != snap.TimeRemaining {
		t.Fatalf("tick mutated submitted session: %d vs %d", view.TimeRemaining, snap.TimeRemaining)
	}
}

func TestRunCountdownStopsOnCancel(t *testing.T) {
	session := app.NewSession("s-1")
	if _, err := session.Load(stubQuestions(domain.QuizLength)); err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.RunCountdown(ctx, session, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown ignored cancellation")
	}
	if session.Status() != domain.StatusActive {
		t.Fatalf("cancellation must not submit, got %s", session.Status())
	}
}
