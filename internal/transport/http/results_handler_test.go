package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

func TestGetResultsReadsSnapshotOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{TickInterval: time.Hour})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, []string{"http://localhost:3000"}))
	defer server.Close()

	view, err := service.Start(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Answer(ctx, view.SessionID, "right-0"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Submit(ctx, view.SessionID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resp, err := http.Get(server.URL + "/api/results/" + view.SessionID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var summary domain.ResultsSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.CorrectCount != 1 || summary.TotalQuestions != domain.QuizLength || summary.Email != "user@example.com" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	again, err := http.Get(server.URL + "/api/results/" + view.SessionID)
	if err != nil {
		t.Fatalf("get results again: %v", err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second read, got %d", again.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(again.Body).Decode(&body); err != nil || body.Error == "" {
		t.Fatalf("expected error body, got %+v err=%v", body, err)
	}
}

func TestHealthz(t *testing.T) {
	service := newTestService(app.Options{})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	service := newTestService(app.Options{})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, []string{"http://localhost:3000"}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allow-origin header, got %q", got)
	}
}
