package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"brainbrawl/internal/service"
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
		return true // CORS policy is enforced at the REST layer
	},
}

// Inbound action types.
const (
	ActionCreateRoom   = "create_room"
	ActionJoinRoom     = "join_room"
	ActionStartGame    = "start_game"
	ActionSubmitAnswer = "submit_answer"
	ActionLeaveRoom    = "leave_room"
	ActionRoomInfo     = "get_room_info"
)

type createRoomPayload struct {
	Category string `json:"category"`
}

type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type submitAnswerPayload struct {
	SelectedOption string `json:"selectedOption"`
}

// Handler upgrades authenticated WebSocket connections and dispatches
// inbound actions to the session coordinator.
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
	gameSvc *service.GameService
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, authSvc *service.AuthService, gameSvc *service.GameService) *Handler {
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		gameSvc: gameSvc,
	}
}

// ServeWS handles GET /v1/ws?token=...
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
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

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:       "c_" + uuid.New().String()[:8],
		PlayerID: claims.UserID,
		Username: claims.Username,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		wsConn.Close()
		// A replaced connection (reconnect) must not evict the player who
		// just took it over; Unregister reports whether this one was still
		// current.
		if h.hub.Unregister(conn) {
			h.gameSvc.HandleDisconnect(conn.PlayerID)
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("player %s: malformed action: %v", conn.PlayerID, err)
			continue
		}
		h.dispatch(conn, &msg)
	}
}

func (h *Handler) dispatch(conn *Connection, msg *Message) {
	switch msg.Type {
	case ActionCreateRoom:
		var p createRoomPayload
		if len(msg.Payload) > 0 {
			json.Unmarshal(msg.Payload, &p)
		}
		h.gameSvc.HandleCreateRoom(conn.PlayerID, conn.Username, conn.ID, p.Category)

	case ActionJoinRoom:
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomCode == "" {
			return
		}
		h.gameSvc.HandleJoinRoom(p.RoomCode, conn.PlayerID, conn.Username, conn.ID)

	case ActionStartGame:
		h.gameSvc.HandleStartGame(conn.PlayerID)

	case ActionSubmitAnswer:
		var p submitAnswerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.SelectedOption == "" {
			return
		}
		h.gameSvc.HandleSubmitAnswer(conn.PlayerID, p.SelectedOption)

	case ActionLeaveRoom:
		h.gameSvc.HandleLeaveRoom(conn.PlayerID)

	case ActionRoomInfo:
		h.gameSvc.HandleRoomInfo(conn.PlayerID)

	default:
		log.Printf("player %s: unknown action %q", conn.PlayerID, msg.Type)
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
