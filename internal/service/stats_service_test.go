package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbrawl/internal/cache"
	"brainbrawl/internal/model"
)

type fakeStandings struct {
	xp map[string]int
}

func newFakeStandings() *fakeStandings {
	return &fakeStandings{xp: make(map[string]int)}
}

func (f *fakeStandings) IncrementXP(ctx context.Context, userID string, delta int) error {
	f.xp[userID] += delta
	return nil
}

func (f *fakeStandings) sorted() []string {
	ids := make([]string, 0, len(f.xp))
	for id := range f.xp {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return f.xp[ids[i]] > f.xp[ids[j]] })
	return ids
}

func (f *fakeStandings) Top(ctx context.Context, limit int) ([]cache.StandingsEntry, error) {
	ids := f.sorted()
	if len(ids) > limit {
		ids = ids[:limit]
	}
	entries := make([]cache.StandingsEntry, len(ids))
	for i, id := range ids {
		entries[i] = cache.StandingsEntry{UserID: id, XP: f.xp[id], Rank: i + 1}
	}
	return entries, nil
}

func (f *fakeStandings) Rank(ctx context.Context, userID string) (int64, error) {
	for i, id := range f.sorted() {
		if id == userID {
			return int64(i + 1), nil
		}
	}
	return -1, nil
}

func TestStatsApplyReward(t *testing.T) {
	users := newFakeUserRepo()
	standings := newFakeStandings()
	svc := NewStatsService(users, standings)
	ctx := context.Background()

	users.users["u1"] = &model.User{ID: "u1", Username: "alice", CreatedAt: time.Now()}

	err := svc.ApplyReward(ctx, "u1", model.Reward{XPDelta: 60, GemDelta: 10, Won: true, ScoreDelta: 800})
	require.NoError(t, err)

	u := users.users["u1"]
	assert.Equal(t, 60, u.XP)
	assert.Equal(t, 10, u.Gems)
	assert.Equal(t, 1, u.GamesPlayed)
	assert.Equal(t, 1, u.GamesWon)
	assert.Equal(t, 800, u.TotalScore)
	assert.Equal(t, 60, standings.xp["u1"])

	err = svc.ApplyReward(ctx, "ghost", model.Reward{XPDelta: 10})
	assert.Error(t, err)
}

func TestStatsProfile(t *testing.T) {
	users := newFakeUserRepo()
	standings := newFakeStandings()
	svc := NewStatsService(users, standings)
	ctx := context.Background()

	users.users["u1"] = &model.User{ID: "u1", Username: "alice", GamesPlayed: 4, GamesWon: 3}
	standings.xp["u1"] = 200
	standings.xp["u2"] = 500

	profile, err := svc.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, 75.0, profile.WinRate)
	assert.Equal(t, int64(2), profile.Rank)
}

func TestStatsTopPlayers(t *testing.T) {
	users := newFakeUserRepo()
	standings := newFakeStandings()
	svc := NewStatsService(users, standings)
	ctx := context.Background()

	users.users["u1"] = &model.User{ID: "u1", Username: "alice"}
	users.users["u2"] = &model.User{ID: "u2", Username: "bob"}
	standings.xp["u1"] = 100
	standings.xp["u2"] = 300

	entries, err := svc.TopPlayers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 300, entries[0].XP)
	assert.Equal(t, "alice", entries[1].Username)
}

func TestStatsTopPlayersEmpty(t *testing.T) {
	svc := NewStatsService(newFakeUserRepo(), newFakeStandings())
	entries, err := svc.TopPlayers(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
