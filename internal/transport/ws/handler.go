package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/justinnewbold/TAG-sub002/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades session WebSocket connections and feeds inbound
// events to the coordinator.
type Handler struct {
	hub         *Hub
	authSvc     *service.AuthService
	sessions    *service.SessionService
	coordinator *Coordinator
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, authSvc *service.AuthService, sessions *service.SessionService, coordinator *Coordinator) *Handler {
	return &Handler{
		hub:         hub,
		authSvc:     authSvc,
		sessions:    sessions,
		coordinator: coordinator,
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}?token=
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sess == nil || sess.Participant(claims.PlayerID) == nil {
		http.Error(w, "not a member of this session", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		PlayerID:  claims.PlayerID,
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(conn)

	log.Printf("player %s connected to session %s via WebSocket", claims.PlayerID, sessionID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		h.dispatch(conn, raw)
	}
}

// dispatch parses one inbound frame and routes it by type. Malformed
// frames get an error event back instead of closing the connection.
func (h *Handler) dispatch(conn *Connection, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.hub.Unicast(conn.SessionID, conn.PlayerID, EvtError, map[string]interface{}{
			"message": "malformed message",
		})
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case EvtLocationUpdate:
		var p LocationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.hub.Unicast(conn.SessionID, conn.PlayerID, EvtError, map[string]interface{}{
				"source":  msg.Type,
				"message": "malformed payload",
			})
			return
		}
		h.coordinator.HandleLocationUpdate(ctx, conn.SessionID, conn.PlayerID, p)
	case EvtTagAttempt:
		var p TagPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.hub.Unicast(conn.SessionID, conn.PlayerID, EvtError, map[string]interface{}{
				"source":  msg.Type,
				"message": "malformed payload",
			})
			return
		}
		h.coordinator.HandleTagAttempt(ctx, conn.SessionID, conn.PlayerID, p)
	default:
		h.hub.Unicast(conn.SessionID, conn.PlayerID, EvtError, map[string]interface{}{
			"message": "unknown message type: " + msg.Type,
		})
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
