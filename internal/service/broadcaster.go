package service

// Broadcaster is the transport fan-out used by the coordinator (implemented
// by the ws hub; the interface lives here to avoid an import cycle).
type Broadcaster interface {
	BroadcastToAllPlayers(roomCode string, msgType string, payload interface{})
	BroadcastToPlayer(roomCode, playerID string, msgType string, payload interface{})

	// AddToRoom / RemoveFromRoom keep the hub's room membership in step with
	// the registry so fan-out works without the hub reaching into game state.
	AddToRoom(roomCode, playerID string)
	RemoveFromRoom(roomCode, playerID string)

	// DisconnectRoom evicts every remaining member of a closing room.
	DisconnectRoom(roomCode string)
}
