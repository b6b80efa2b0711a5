package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	service := newTestService(app.Options{TickInterval: time.Hour})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server, "user@example.com")
	defer conn.Close()

	view := readState(t, conn)
	if view.Status != domain.StatusActive || view.Current == nil || len(view.Current.Choices) != 4 {
		t.Fatalf("unexpected initial state %+v", view)
	}

	send(t, conn, "answer", map[string]any{"choice": "right-0"})
	if view = readState(t, conn); view.Current.Selected != "right-0" {
		t.Fatalf("expected answer recorded, got %+v", view.Current)
	}

	send(t, conn, "next", nil)
	if view = readState(t, conn); view.CurrentIndex != 1 {
		t.Fatalf("expected question 1, got %d", view.CurrentIndex)
	}

	send(t, conn, "navigate", map[string]any{"index": 14})
	if view = readState(t, conn); view.CurrentIndex != 14 || !view.Overview[14].Visited {
		t.Fatalf("expected jump to 14, got %+v", view)
	}

	send(t, conn, "answer", map[string]any{"choice": "wrong-a-14"})
	readState(t, conn)

	send(t, conn, "submit", nil)
	var summary domain.ResultsSummary
	readUntil(t, conn, "results", &summary)
	if summary.Email != "user@example.com" || summary.CorrectCount != 1 || summary.AnsweredCount != 2 {
		t.Fatalf("unexpected results %+v", summary)
	}
	if summary.Questions[14].Outcome != domain.OutcomeIncorrect || summary.Questions[5].Outcome != domain.OutcomeUnanswered {
		t.Fatalf("unexpected outcomes %+v", summary.Questions)
	}
}

func TestWebSocketTimeoutSendsResults(t *testing.T) {
	service := newTestService(app.Options{TimeLimit: 2, TickInterval: 20 * time.Millisecond})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server, "user@example.com")
	defer conn.Close()

	var summary domain.ResultsSummary
	readUntil(t, conn, "results", &summary)
	if summary.TimeRemaining != 0 || summary.TimeUsedSeconds != 2 {
		t.Fatalf("unexpected timeout results %+v", summary)
	}
}

func TestWebSocketRejectsUnknownChoice(t *testing.T) {
	service := newTestService(app.Options{TickInterval: time.Hour})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server, "user@example.com")
	defer conn.Close()
	readState(t, conn)

	send(t, conn, "answer", map[string]any{"choice": "nope"})
	var payload errorPayload
	readUntil(t, conn, "error", &payload)
	if payload.Message != domain.ErrChoiceNotFound.Error() {
		t.Fatalf("unexpected error %q", payload.Message)
	}
}

func TestWebSocketHandlerReturnsAfterFloodingClientLeaves(t *testing.T) {
	service := newTestService(app.Options{TickInterval: time.Hour})
	defer service.Close()
	handler := NewWSHandler(service, nil)
	finished := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeWS(w, r)
		close(finished)
	}))
	defer server.Close()

	conn := dial(t, server, "user@example.com")
	// never read: every bogus message queues an error reply on the server
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 100000; i++ {
		if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
			break
		}
	}
	conn.UnderlyingConn().Close()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatalf("handler still running after the client went away")
	}
}

func TestWebSocketRequiresEmail(t *testing.T) {
	service := newTestService(app.Options{})
	defer service.Close()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func dial(t *testing.T, server *httptest.Server, email string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?email=" + email
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readState(t *testing.T, conn *websocket.Conn) domain.SessionView {
	t.Helper()
	var view domain.SessionView
	readUntil(t, conn, "state", &view)
	return view
}

// readUntil skips messages of other types (timer state updates) until one of type expect arrives.
func readUntil(t *testing.T, conn *websocket.Conn, expect string, out any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type != expect {
			continue
		}
		if err := json.Unmarshal(msg.Payload, out); err != nil {
			t.Fatalf("decode %s: %v", expect, err)
		}
		return
	}
}

func newTestService(opts app.Options) *app.QuizService {
	return app.NewQuizService(memory.NewSessionStore(), memory.NewStaticQuestionSource(sampleQuestions()), memory.NewHandoffStore(), opts)
}

func sampleQuestions() []domain.Question {
	questions := make([]domain.Question, domain.QuizLength)
	for i := range questions {
		questions[i] = domain.Question{
			Text:             fmt.Sprintf("Question %d", i),
			CorrectAnswer:    fmt.Sprintf("right-%d", i),
			IncorrectAnswers: []string{fmt.Sprintf("wrong-a-%d", i), fmt.Sprintf("wrong-b-%d", i), fmt.Sprintf("wrong-c-%d", i)},
			Category:         "General Knowledge",
			Difficulty:       domain.DifficultyEasy,
			Type:             "multiple",
		}
	}
	return questions
}
