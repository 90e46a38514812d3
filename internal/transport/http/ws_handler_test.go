package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketSubmitFlow(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService()))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?username=alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	submit := map[string]any{
		"type": "submit",
		"payload": map[string]any{
			"quizId":         "quiz-1",
			"answers":        map[string]string{"q1": "A", "q2": "C"},
			"elapsedSeconds": 30,
		},
	}
	if err := conn.WriteJSON(submit); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	// Expect attemptResult then leaderboard.
	var result struct {
		Attempt struct {
			ID    string `json:"id"`
			Score int    `json:"score"`
		} `json:"attempt"`
	}
	readNext(conn, t, "attemptResult", &result)
	if result.Attempt.ID == "" || result.Attempt.Score != 2 {
		t.Fatalf("unexpected attempt result %+v", result)
	}

	var board struct {
		QuizID  string `json:"quizId"`
		Entries []struct {
			Rank int `json:"rank"`
		} `json:"entries"`
	}
	readNext(conn, t, "leaderboard", &board)
	if board.QuizID != "quiz-1" || len(board.Entries) != 1 || board.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}

	if err := conn.WriteJSON(map[string]any{"type": "myRanking"}); err != nil {
		t.Fatalf("write myRanking: %v", err)
	}
	var ranking struct {
		Rank  int     `json:"rank"`
		Score float64 `json:"score"`
	}
	readNext(conn, t, "ranking", &ranking)
	if ranking.Rank != 1 || ranking.Score != 2 {
		t.Fatalf("unexpected ranking %+v", ranking)
	}
}

func TestWebSocketReportsErrors(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService()))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?username=alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "submit", "payload": map[string]any{"quizId": "nope"}}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	var payload struct {
		Message string `json:"message"`
	}
	readNext(conn, t, "error", &payload)
	if payload.Message != "quiz not found" {
		t.Fatalf("unexpected error message %q", payload.Message)
	}

	if err := conn.WriteJSON(map[string]any{"type": "myRanking"}); err != nil {
		t.Fatalf("write myRanking: %v", err)
	}
	readNext(conn, t, "error", &payload)
	if payload.Message != "participant has no ranking" {
		t.Fatalf("expected unranked participant error, got %q", payload.Message)
	}

	if err := conn.WriteJSON(map[string]any{"type": "join"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	readNext(conn, t, "error", &payload)
}

func TestWebSocketRequiresUsername(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService()))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string, into any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	if into != nil {
		if err := json.Unmarshal(msg.Payload, into); err != nil {
			t.Fatalf("decode %s payload: %v", msg.Type, err)
		}
	}
}
