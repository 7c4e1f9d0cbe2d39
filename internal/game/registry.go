package game

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

const codeAttempts = 10

// RegistryStats is a read-only aggregate over the live rooms.
type RegistryStats struct {
	TotalRooms     int `json:"totalRooms"`
	TrackedPlayers int `json:"trackedPlayers"`
	PlayingRooms   int `json:"playingRooms"`
	WaitingRooms   int `json:"waitingRooms"`
}

// RoomInfo is the public listing view of a live room.
type RoomInfo struct {
	Code        string    `json:"code"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Registry is the process-wide directory of live rooms and player-to-room
// membership. It is an explicitly constructed instance rather than package
// state so tests can run independent registries side by side. The mutex
// guards the maps only. Methods that mutate a Room (JoinRoom, LeaveRoom)
// require the caller to hold that room's coordinator lock as well, so every
// Room mutation in the process is serialized by one lock.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	playerRooms map[string]string // player identity -> room code
	now         func() time.Time
}

// NewRegistry creates an empty registry. now is injectable for tests and
// defaults to time.Now.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		now:         now,
	}
}

// generateCode draws a 6-digit numeric code (100000-999999) uniformly at
// random, retrying on collision. Exhausting the attempt budget means the
// live-room count is approaching the code space; that fails the request,
// not the process. Caller holds r.mu.
func (r *Registry) generateCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(900000))
		if err != nil {
			return "", err
		}
		code := big.NewInt(0).Add(n, big.NewInt(100000)).String()
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// CreateRoom allocates a code and registers a waiting room with the host as
// its sole member. A host already in another room leaves it first.
func (r *Registry) CreateRoom(hostID, hostName, connRef string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(hostID)

	code, err := r.generateCode()
	if err != nil {
		return nil, err
	}
	room := NewRoom(code, hostID, hostName, connRef, r.now)
	r.rooms[code] = room
	r.playerRooms[hostID] = code
	return room, nil
}

// JoinRoom adds the player to the room with the given code. A player is a
// member of at most one room at a time: joining implicitly releases any
// previous membership. Room-level failures propagate unchanged.
func (r *Registry) JoinRoom(code, id, name, connRef string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if prev, in := r.playerRooms[id]; in && prev != code {
		r.releaseLocked(id)
	}
	if err := room.AddPlayer(id, name, connRef); err != nil {
		return nil, err
	}
	r.playerRooms[id] = code
	return room, nil
}

// LeaveRoom removes the player from their current room, clears the
// membership mapping, and deletes the room when its roster becomes empty.
// It reports the affected room, the removed player, and whether the player
// was in a room at all.
func (r *Registry) LeaveRoom(id string) (*Room, *Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(id)
}

func (r *Registry) leaveLocked(id string) (*Room, *Player, bool) {
	code, ok := r.playerRooms[id]
	if !ok {
		return nil, nil, false
	}
	delete(r.playerRooms, id)
	room, ok := r.rooms[code]
	if !ok {
		// orphaned mapping, nothing else to do
		return nil, nil, false
	}
	p, removed := room.RemovePlayer(id)
	if !removed {
		return room, nil, false
	}
	if room.PlayerCount() == 0 {
		delete(r.rooms, code)
	}
	return room, p, true
}

// releaseLocked drops the player's current membership, if any, without
// reporting. Caller holds r.mu.
func (r *Registry) releaseLocked(id string) {
	r.leaveLocked(id)
}

// Room resolves a room by code.
func (r *Registry) Room(code string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	return room, ok
}

// RoomByPlayer resolves the room a player currently belongs to.
func (r *Registry) RoomByPlayer(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.playerRooms[id]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[code]
	return room, ok
}

// DeleteRoom removes a room and every membership mapping that points at it.
// Used by the coordinator for post-game teardown.
func (r *Registry) DeleteRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return
	}
	for _, p := range room.Players() {
		delete(r.playerRooms, p.ID)
	}
	delete(r.rooms, code)
}

// CleanupExpired deletes every room older than maxAge, releasing its
// players' mappings first, and returns the removed codes. Idempotent and
// safe to call concurrently with normal traffic.
func (r *Registry) CleanupExpired(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	var removed []string
	for code, room := range r.rooms {
		if room.CreatedAt().Before(cutoff) {
			for _, p := range room.Players() {
				delete(r.playerRooms, p.ID)
			}
			delete(r.rooms, code)
			removed = append(removed, code)
		}
	}
	return removed
}

// Stats returns aggregate counts over the live rooms.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	playing := 0
	for _, room := range r.rooms {
		if room.Status() == StatusPlaying {
			playing++
		}
	}
	return RegistryStats{
		TotalRooms:     len(r.rooms),
		TrackedPlayers: len(r.playerRooms),
		PlayingRooms:   playing,
		WaitingRooms:   len(r.rooms) - playing,
	}
}

// ListRooms returns the public view of every live room.
func (r *Registry) ListRooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, RoomInfo{
			Code:        room.Code,
			PlayerCount: room.PlayerCount(),
			MaxPlayers:  MaxPlayers,
			Status:      room.Status(),
			CreatedAt:   room.CreatedAt(),
		})
	}
	return out
}
