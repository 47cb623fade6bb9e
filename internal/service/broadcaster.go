package service

// Broadcaster is implemented by the WebSocket hub; declared here to avoid
// an import cycle between services and transport.
type Broadcaster interface {
	// Broadcast sends an event to every connection in the session room.
	Broadcast(sessionID, event string, payload interface{})
	// BroadcastExcept sends to the room, skipping one player.
	BroadcastExcept(sessionID, exceptPlayerID, event string, payload interface{})
	// Unicast sends to a single player's connection.
	Unicast(sessionID, playerID, event string, payload interface{})
	// CloseSession drops every connection in the session room.
	CloseSession(sessionID string)
}

// nopBroadcaster stands in until the hub is wired, and in tests.
type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, string, interface{})               {}
func (nopBroadcaster) BroadcastExcept(string, string, string, interface{}) {}
func (nopBroadcaster) Unicast(string, string, string, interface{})         {}
func (nopBroadcaster) CloseSession(string)                                 {}
