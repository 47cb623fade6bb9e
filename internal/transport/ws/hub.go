package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Well-known outbound event types.
const (
	EvtPlayerLocation     = "player:location"
	EvtPlayerTagged       = "player:tagged"
	EvtPlayerJoined       = "player:joined"
	EvtPlayerLeft         = "player:left"
	EvtPlayerDisconnected = "player:disconnected"
	EvtGameStarted        = "game:started"
	EvtGameEnded          = "game:ended"
	EvtNearbyPlayers      = "nearby:players"
	EvtError              = "error"
	EvtErrorRateLimit     = "error:rateLimit"
	EvtErrorAntiCheat     = "error:anticheat"
	EvtWarningAntiCheat   = "warning:anticheat"
)

// Inbound event types.
const (
	EvtLocationUpdate = "location:update"
	EvtTagAttempt     = "tag:attempt"
)

// Message is the WebSocket envelope format.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents one player's WebSocket connection to a session room.
type Connection struct {
	SessionID string
	PlayerID  string
	Send      chan []byte
}

// BroadcastMessage is a queued outbound event.
type broadcastMessage struct {
	sessionID string
	toPlayer  string // empty means the whole room
	except    string // skipped on room broadcasts
	message   *Message
}

// Hub manages WebSocket connections per session room. It implements
// service.Broadcaster.
type Hub struct {
	rooms map[string]map[string]*Connection
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
	closeRoom  chan string

	// onDisconnect is invoked after a connection is removed, outside the
	// hub lock. Set before the first connection arrives.
	onDisconnect func(sessionID, playerID string)
}

// NewHub creates and starts a hub.
func NewHub() *Hub {
	h := &Hub{
		rooms:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
		closeRoom:  make(chan string),
	}
	go h.run()
	return h
}

// SetDisconnectHandler wires the disconnect hook.
func (h *Hub) SetDisconnectHandler(fn func(sessionID, playerID string)) {
	h.onDisconnect = fn
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.rooms[conn.SessionID] == nil {
				h.rooms[conn.SessionID] = make(map[string]*Connection)
			}
			// A reconnect replaces the old connection.
			if old, ok := h.rooms[conn.SessionID][conn.PlayerID]; ok {
				close(old.Send)
			}
			h.rooms[conn.SessionID][conn.PlayerID] = conn
			h.mu.Unlock()
			log.Printf("player %s connected to session %s", conn.PlayerID, conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			removed := false
			if room, ok := h.rooms[conn.SessionID]; ok {
				if existing, ok := room[conn.PlayerID]; ok && existing == conn {
					delete(room, conn.PlayerID)
					close(conn.Send)
					removed = true
					if len(room) == 0 {
						delete(h.rooms, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()
			if removed {
				log.Printf("player %s disconnected from session %s", conn.PlayerID, conn.SessionID)
				if h.onDisconnect != nil {
					h.onDisconnect(conn.SessionID, conn.PlayerID)
				}
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, err := json.Marshal(msg.message)
			if err == nil {
				room := h.rooms[msg.sessionID]
				if msg.toPlayer != "" {
					if conn, ok := room[msg.toPlayer]; ok {
						send(conn, data)
					}
				} else {
					for id, conn := range room {
						if id == msg.except {
							continue
						}
						send(conn, data)
					}
				}
			}
			h.mu.RUnlock()

		case sessionID := <-h.closeRoom:
			h.mu.Lock()
			if room, ok := h.rooms[sessionID]; ok {
				for _, conn := range room {
					close(conn.Send)
				}
				delete(h.rooms, sessionID)
			}
			h.mu.Unlock()
		}
	}
}

// send queues bytes without blocking the hub loop; slow clients drop.
func send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection to its session room.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func (h *Hub) enqueue(msg *broadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("hub broadcast queue full, dropping %s for session %s", msg.message.Type, msg.sessionID)
	}
}

// Broadcast sends an event to every connection in the session room.
func (h *Hub) Broadcast(sessionID, event string, payload interface{}) {
	h.BroadcastExcept(sessionID, "", event, payload)
}

// BroadcastExcept sends to the room, skipping one player.
func (h *Hub) BroadcastExcept(sessionID, exceptPlayerID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{
		sessionID: sessionID,
		except:    exceptPlayerID,
		message:   &Message{Type: event, Payload: data},
	})
}

// Unicast sends to a single player's connection.
func (h *Hub) Unicast(sessionID, playerID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{
		sessionID: sessionID,
		toPlayer:  playerID,
		message:   &Message{Type: event, Payload: data},
	})
}

// CloseSession drops every connection in the session room.
func (h *Hub) CloseSession(sessionID string) {
	h.closeRoom <- sessionID
}
