package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsIdleDeadline = 120 * time.Second

type wsQuestion struct {
	Question string `json:"question"`
	QRID     string `json:"qr_id,omitempty"`
}

type wsAnswer struct {
	Type      string   `json:"type"`
	Answer    string   `json:"answer,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	ExhibitID string   `json:"exhibit_id,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Code      string   `json:"code,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// handleChatWS serves a persistent chat session: one question frame
// in, one answer frame out, repeated until the client hangs up.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		// Anonymous connection. The session lives for the socket.
		userID = "anon-" + uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleDeadline))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleDeadline))
		if msgType != websocket.TextMessage {
			continue
		}

		var q wsQuestion
		if err := json.Unmarshal(data, &q); err != nil {
			s.writeWS(conn, wsAnswer{Type: "error", Code: "invalid_message", Detail: err.Error()})
			continue
		}
		if strings.TrimSpace(q.Question) == "" {
			s.writeWS(conn, wsAnswer{Type: "error", Code: "missing_question", Detail: "question is required"})
			continue
		}

		answer, err := s.guide.Ask(r.Context(), userID, q.Question, q.QRID)
		if err != nil {
			s.writeWS(conn, wsAnswer{Type: "error", Code: "ask_failed", Detail: err.Error()})
			continue
		}
		if s.metrics != nil {
			s.metrics.ActiveConversations.Set(float64(s.convos.ActiveCount()))
		}

		if !s.writeWS(conn, wsAnswer{
			Type:      "answer",
			Answer:    answer.Text,
			Sources:   answer.Sources,
			Intent:    string(answer.Intent),
			ExhibitID: answer.ExhibitID,
			UserID:    userID,
		}) {
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg wsAnswer) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg) == nil
}
