package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmallory/solace/internal/agent"
	"github.com/jmallory/solace/internal/store"
)

const (
	wsMaxMessageBytes = 64 * 1024
	wsIdleTimeout     = 10 * time.Minute
)

// wsChatMessage is an inbound chat frame.
type wsChatMessage struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// wsErrorFrame is sent when a turn fails; the connection stays open.
type wsErrorFrame struct {
	Error string `json:"error"`
}

// handleWebSocket upgrades the connection and runs a chat loop: each
// inbound frame is one turn, each outbound frame the resulting reply.
// The session sticks for the whole connection once established.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageBytes)
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket chat connected")

	sessionID := r.URL.Query().Get("sessionId")

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		var msg wsChatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket chat closed")
			} else {
				s.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}
		s.log.Trace().Str("session", sessionID).Int("chars", len(msg.Message)).Msg("websocket frame received")

		res, err := s.orchestrator.ProcessMessage(r.Context(), sessionID, msg.Message)
		if err != nil {
			frame := wsErrorFrame{Error: "failed to process message"}
			switch {
			case errors.Is(err, agent.ErrEmptyMessage):
				frame.Error = "message must not be empty"
			case errors.Is(err, agent.ErrSessionRequired):
				frame.Error = "sessionId is required"
			case errors.Is(err, store.ErrSessionNotFound):
				frame.Error = "session not found"
			default:
				s.log.Error().Err(err).Msg("websocket turn failed")
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
			continue
		}

		sessionID = res.SessionID
		if err := conn.WriteJSON(res); err != nil {
			s.log.Warn().Err(err).Msg("websocket write error")
			return
		}
	}
}
