package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format, inbound and outbound.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection represents one player's WebSocket connection. ID is the opaque
// handle the game layer stores as a player's connection reference.
type Connection struct {
	ID       string
	PlayerID string
	Username string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a queued fan-out request.
type BroadcastMessage struct {
	RoomCode string
	ToPlayer string // empty means every member of RoomCode
	Message  *Message
}

// Hub manages player connections and room membership for fan-out. It
// implements service.Broadcaster. Connections are keyed by player identity,
// so a reconnect replaces the previous connection in place; room membership
// is a separate layer kept in step by the coordinator.
type Hub struct {
	players map[string]*Connection     // playerID -> current connection
	rooms   map[string]map[string]bool // roomCode -> playerID set

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *unregisterReq
	broadcast  chan *BroadcastMessage
}

type unregisterReq struct {
	conn    *Connection
	current chan bool
}

// NewHub creates a hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		players:    make(map[string]*Connection),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Connection),
		unregister: make(chan *unregisterReq),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if old, ok := h.players[conn.PlayerID]; ok && old != conn {
				// reconnect: the new connection replaces the old in place
				close(old.Send)
			}
			h.players[conn.PlayerID] = conn
			h.mu.Unlock()
			log.Printf("player %s connected (%s)", conn.PlayerID, conn.ID)

		case req := <-h.unregister:
			h.mu.Lock()
			current := false
			if existing, ok := h.players[req.conn.PlayerID]; ok && existing == req.conn {
				delete(h.players, req.conn.PlayerID)
				close(req.conn.Send)
				current = true
				log.Printf("player %s disconnected", req.conn.PlayerID)
			}
			h.mu.Unlock()
			req.current <- current

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToPlayer != "" {
				if conn, ok := h.players[msg.ToPlayer]; ok {
					select {
					case conn.Send <- data:
					default:
						// drop if buffer full
					}
				}
			} else if members, ok := h.rooms[msg.RoomCode]; ok {
				for pid := range members {
					if conn, ok := h.players[pid]; ok {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection, replacing any previous one for the same player.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection and reports whether it was still the
// player's current one. A replaced connection returns false, so the caller
// knows not to treat the teardown as a disconnect.
func (h *Hub) Unregister(conn *Connection) bool {
	req := &unregisterReq{conn: conn, current: make(chan bool, 1)}
	h.unregister <- req
	return <-req.current
}

// AddToRoom marks a player as a member of a room for fan-out purposes
// (implements service.Broadcaster).
func (h *Hub) AddToRoom(roomCode, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]bool)
	}
	h.rooms[roomCode][playerID] = true
}

// RemoveFromRoom drops a player's room membership (implements
// service.Broadcaster).
func (h *Hub) RemoveFromRoom(roomCode, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomCode]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
}

// DisconnectRoom purges every remaining membership of a closing room. The
// underlying sockets stay open; the players simply stop being addressable
// through the room (implements service.Broadcaster).
func (h *Hub) DisconnectRoom(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomCode)
}

// BroadcastToAllPlayers sends a message to every member of a room
// (implements service.Broadcaster).
func (h *Hub) BroadcastToAllPlayers(roomCode string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomCode: roomCode,
		Message:  &Message{Type: msgType, Payload: data},
	}
}

// BroadcastToPlayer sends a message to one player (implements
// service.Broadcaster). RoomCode may be empty; delivery is keyed by player.
func (h *Hub) BroadcastToPlayer(roomCode, playerID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomCode: roomCode,
		ToPlayer: playerID,
		Message:  &Message{Type: msgType, Payload: data},
	}
}
