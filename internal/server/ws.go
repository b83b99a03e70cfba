package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/askdocs/askdocs/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type      string `json:"type"`       // only "ask" is supported
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
	Username  string `json:"username"`
	Provider  string `json:"provider,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type             string          `json:"type"` // "response" or "error"
	SessionID        string          `json:"session_id"`
	Content          string          `json:"content"`
	Confidence       float64         `json:"confidence,omitempty"`
	RetrievalQuality float64         `json:"retrieval_quality,omitempty"`
	Sources          []engine.Source `json:"sources,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendWSError(conn, req.SessionID, "content is required")
			continue
		}
		if req.Username == "" {
			s.sendWSError(conn, req.SessionID, "username is required")
			continue
		}
		if req.Type != "" && req.Type != "ask" {
			s.sendWSError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}

		ans, err := s.engine.Ask(r.Context(), engine.QueryRequest{
			Query:     req.Content,
			SessionID: req.SessionID,
			Username:  req.Username,
			Provider:  req.Provider,
			APIKey:    req.APIKey,
		})
		if err != nil {
			s.sendWSError(conn, req.SessionID, "question failed: "+err.Error())
			continue
		}

		s.sendWS(conn, wsResponse{
			Type:             "response",
			SessionID:        ans.SessionID,
			Content:          ans.Answer,
			Confidence:       ans.Confidence,
			RetrievalQuality: ans.RetrievalQuality,
			Sources:          ans.Sources,
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("ws: write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, message string) {
	s.sendWS(conn, wsResponse{Type: "error", SessionID: sessionID, Content: message})
}
