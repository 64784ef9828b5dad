package ws

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks WebSocket connections per quiz code, split into the participant
// room and the admin room. A player holds at most one live connection;
// registering a new one evicts the previous connection.
type Hub struct {
	mu      sync.RWMutex
	players map[string]map[string]*Connection // code -> playerID -> connection
	admins  map[string]map[*Connection]struct{}
	logger  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		players: make(map[string]map[string]*Connection),
		admins:  make(map[string]map[*Connection]struct{}),
		logger:  logger,
	}
}

// RegisterPlayer binds a connection to a player and returns the evicted prior
// connection, if any. The caller notifies and closes the evicted one.
func (h *Hub) RegisterPlayer(code, playerID string, conn *Connection) *Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.players[code]
	if room == nil {
		room = make(map[string]*Connection)
		h.players[code] = room
	}
	prev := room[playerID]
	room[playerID] = conn
	h.logger.Info().Str("code", code).Str("player_id", playerID).Msg("player connection registered")
	if prev == conn {
		return nil
	}
	return prev
}

// UnregisterPlayer removes a player's connection, but only if it is still the
// current one. An evicted connection's deferred cleanup must not kick out
// its replacement.
func (h *Hub) UnregisterPlayer(code, playerID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.players[code]; room != nil && room[playerID] == conn {
		delete(room, playerID)
		h.logger.Info().Str("code", code).Str("player_id", playerID).Msg("player connection unregistered")
	}
}

// RegisterAdmin adds a connection to the admin room of a code.
func (h *Hub) RegisterAdmin(code string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.admins[code]
	if room == nil {
		room = make(map[*Connection]struct{})
		h.admins[code] = room
	}
	room[conn] = struct{}{}
}

// UnregisterAdmin removes a connection from the admin room.
func (h *Hub) UnregisterAdmin(code string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.admins[code]; room != nil {
		delete(room, conn)
	}
}

// BroadcastPlayers sends a message to every participant of a code. Delivery
// failures are logged and never block the caller.
func (h *Hub) BroadcastPlayers(code string, msg Message) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.players[code]))
	for _, conn := range h.players[code] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("code", code).Str("event", msg.Type).Msg("player broadcast failed")
		}
	}
}

// BroadcastAdmins sends a message to every admin connection of a code.
func (h *Hub) BroadcastAdmins(code string, msg Message) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.admins[code]))
	for conn := range h.admins[code] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("code", code).Str("event", msg.Type).Msg("admin broadcast failed")
		}
	}
}

// SendToPlayer delivers a message to one participant.
func (h *Hub) SendToPlayer(code, playerID string, msg Message) error {
	h.mu.RLock()
	conn := h.players[code][playerID]
	h.mu.RUnlock()

	if conn == nil {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}
