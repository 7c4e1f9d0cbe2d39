package game

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

func TestRegistryCreateRoom(t *testing.T) {
	reg := NewRegistry(nil)

	room, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)
	assert.Regexp(t, codePattern, room.Code)
	assert.Equal(t, "host", room.HostID())

	found, ok := reg.Room(room.Code)
	require.True(t, ok)
	assert.Same(t, room, found)

	byPlayer, ok := reg.RoomByPlayer("host")
	require.True(t, ok)
	assert.Same(t, room, byPlayer)
}

func TestRegistryCodesAreUnique(t *testing.T) {
	reg := NewRegistry(nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, err := reg.CreateRoom("h"+string(rune('a'+i%26))+string(rune('a'+i/26)), "Host", "c")
		require.NoError(t, err)
		assert.False(t, seen[room.Code], "duplicate code %s", room.Code)
		seen[room.Code] = true
	}
}

func TestRegistryJoinUnknownRoom(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.JoinRoom("000000", "p1", "Alice", "c1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryImplicitLeaveOnJoin(t *testing.T) {
	reg := NewRegistry(nil)

	first, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)
	second, err := reg.CreateRoom("host2", "Other", "c2")
	require.NoError(t, err)

	_, err = reg.JoinRoom(first.Code, "p1", "Alice", "c3")
	require.NoError(t, err)

	// joining a second room releases the first membership
	_, err = reg.JoinRoom(second.Code, "p1", "Alice", "c3")
	require.NoError(t, err)

	assert.False(t, first.HasPlayer("p1"))
	assert.True(t, second.HasPlayer("p1"))

	room, ok := reg.RoomByPlayer("p1")
	require.True(t, ok)
	assert.Same(t, second, room)
}

func TestRegistryCreateReleasesPreviousMembership(t *testing.T) {
	reg := NewRegistry(nil)

	first, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)
	_, err = reg.JoinRoom(first.Code, "p1", "Alice", "c2")
	require.NoError(t, err)

	second, err := reg.CreateRoom("p1", "Alice", "c2")
	require.NoError(t, err)

	assert.False(t, first.HasPlayer("p1"))
	assert.Equal(t, "p1", second.HostID())
}

func TestRegistryRejoinSameRoom(t *testing.T) {
	reg := NewRegistry(nil)

	room, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)

	// rejoining the current room is a reconnect, not a leave-and-join
	again, err := reg.JoinRoom(room.Code, "host", "Hosty", "c9")
	require.NoError(t, err)
	assert.Same(t, room, again)
	assert.Equal(t, 1, room.PlayerCount())
	assert.Equal(t, "c9", room.Players()[0].ConnRef)
}

func TestRegistryLeaveDeletesEmptyRoom(t *testing.T) {
	reg := NewRegistry(nil)

	room, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)

	left, player, ok := reg.LeaveRoom("host")
	require.True(t, ok)
	assert.Same(t, room, left)
	assert.Equal(t, "host", player.ID)

	_, ok = reg.Room(room.Code)
	assert.False(t, ok, "empty room should be deleted")

	_, _, ok = reg.LeaveRoom("host")
	assert.False(t, ok)
}

func TestRegistryDeleteRoomClearsMembers(t *testing.T) {
	reg := NewRegistry(nil)

	room, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)
	_, err = reg.JoinRoom(room.Code, "p1", "Alice", "c2")
	require.NoError(t, err)

	reg.DeleteRoom(room.Code)

	_, ok := reg.Room(room.Code)
	assert.False(t, ok)
	_, ok = reg.RoomByPlayer("host")
	assert.False(t, ok)
	_, ok = reg.RoomByPlayer("p1")
	assert.False(t, ok)
}

func TestRegistryCleanupExpired(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(func() time.Time { return clock })

	stale, err := reg.CreateRoom("old", "Oldy", "c1")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	fresh, err := reg.CreateRoom("new", "Newy", "c2")
	require.NoError(t, err)

	clock = clock.Add(1 * time.Hour)
	removed := reg.CleanupExpired(2 * time.Hour)

	require.Len(t, removed, 1)
	assert.Equal(t, stale.Code, removed[0])

	_, ok := reg.Room(stale.Code)
	assert.False(t, ok)
	_, ok = reg.RoomByPlayer("old")
	assert.False(t, ok, "members of a reaped room are no longer resolvable")

	_, ok = reg.Room(fresh.Code)
	assert.True(t, ok)
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry(nil)

	waiting, err := reg.CreateRoom("h1", "One", "c1")
	require.NoError(t, err)
	_ = waiting

	playing, err := reg.CreateRoom("h2", "Two", "c2")
	require.NoError(t, err)
	require.NoError(t, playing.Start(testQuestions(1)))

	stats := reg.Stats()
	assert.Equal(t, 2, stats.TotalRooms)
	assert.Equal(t, 2, stats.TrackedPlayers)
	assert.Equal(t, 1, stats.PlayingRooms)
	assert.Equal(t, 1, stats.WaitingRooms)
}

func TestRegistryListRooms(t *testing.T) {
	reg := NewRegistry(nil)
	room, err := reg.CreateRoom("host", "Hosty", "c1")
	require.NoError(t, err)

	infos := reg.ListRooms()
	require.Len(t, infos, 1)
	assert.Equal(t, room.Code, infos[0].Code)
	assert.Equal(t, 1, infos[0].PlayerCount)
	assert.Equal(t, MaxPlayers, infos[0].MaxPlayers)
	assert.Equal(t, StatusWaiting, infos[0].Status)
}
