package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, checkOrigin func(r *http.Request) bool) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type answerPayload struct {
	Choice string `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades the request and drives one quiz session over the connection.
// The session starts on connect; state views stream after every transition and a
// single results message follows submission, whether explicit or by timeout.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, email)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	sessionID := started.SessionID

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// timed out and handed off before the subscription was in place
		_ = conn.WriteJSON(h.resultsMessage(ctx, sessionID))
		return
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	// A failed write closes the connection so the read loop unblocks too.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: view}}
				if view.Status == domain.StatusSubmitted {
					msgs = append(msgs, h.resultsMessage(ctx, sessionID))
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-writerDone:
						return
					case <-closeSignals:
						return
					}
				}
				if view.Status == domain.StatusSubmitted {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, sessionID, inbound); err != nil {
			select {
			case send <- errorMessage(err.Error()):
			case <-writerDone:
				break readLoop
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one client message. Resulting views arrive through the subscription.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, inbound inboundMessage) error {
	switch inbound.Type {
	case "navigate":
		var payload navigatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.Navigate(ctx, sessionID, payload.Index)
		return err
	case "next", "previous":
		view, err := h.service.View(ctx, sessionID)
		if err != nil {
			return err
		}
		target := view.CurrentIndex + 1
		if inbound.Type == "previous" {
			target = view.CurrentIndex - 1
		}
		// stepping past either end is a no-op
		if target < 0 || target >= view.Total {
			return nil
		}
		_, err = h.service.Navigate(ctx, sessionID, target)
		return err
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.Answer(ctx, sessionID, payload.Choice)
		return err
	case "submit":
		_, err := h.service.Submit(ctx, sessionID)
		return err
	default:
		return errUnsupportedType
	}
}

func (h *WSHandler) resultsMessage(ctx context.Context, sessionID string) outboundMessage[any] {
	summary, err := h.service.Results(ctx, sessionID)
	if err != nil {
		log.Printf("results for session %s: %v", sessionID, err)
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "results", Payload: summary}
}
