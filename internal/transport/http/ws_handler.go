package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizrank-service/internal/app"
	"quizrank-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitPayload struct {
	QuizID         string                      `json:"quizId"`
	Answers        map[string]domain.OptionTag `json:"answers"`
	ElapsedSeconds int                         `json:"elapsedSeconds"`
}

type leaderboardPayload struct {
	QuizID string `json:"quizId,omitempty"`
	Days   int    `json:"days,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type leaderboardUpdate struct {
	QuizID  string                    `json:"quizId,omitempty"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection for one participant. Every inbound message
// gets its replies on the same connection; nothing is pushed unprompted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("http: ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("http: ws write error: %v", err)
				failed = true
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid submit payload")
				continue
			}
			res, err := h.service.SubmitAttempt(r.Context(), domain.Submission{
				QuizID:         payload.QuizID,
				Username:       username,
				Answers:        payload.Answers,
				ElapsedSeconds: payload.ElapsedSeconds,
			})
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "attemptResult", Payload: res}

			entries, err := h.service.Leaderboard(r.Context(), app.QuizScope(payload.QuizID), 0)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "leaderboard", Payload: leaderboardUpdate{QuizID: payload.QuizID, Entries: entries}}
		case "leaderboard":
			var payload leaderboardPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- errorMessage("invalid leaderboard payload")
					continue
				}
			}
			scope := app.GlobalScope()
			switch {
			case payload.QuizID != "":
				scope = app.QuizScope(payload.QuizID)
			case payload.Days > 0:
				scope = app.WindowScope(payload.Days)
			}
			entries, err := h.service.Leaderboard(r.Context(), scope, payload.Limit)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "leaderboard", Payload: leaderboardUpdate{QuizID: payload.QuizID, Entries: entries}}
		case "myRanking":
			entry, found, err := h.service.PersonalRanking(r.Context(), username)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			if !found {
				send <- errorMessage(errNoRanking)
				continue
			}
			send <- outboundMessage[any]{Type: "ranking", Payload: entry}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
