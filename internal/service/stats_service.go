package service

import (
	"context"
	"fmt"
	"log"

	"brainbrawl/internal/cache"
	"brainbrawl/internal/model"
	"brainbrawl/internal/repository"
)

// StatsService is the stats collaborator: it applies end-of-game reward
// deltas to durable user records and keeps the global XP standings current.
type StatsService struct {
	users     repository.UserRepo
	standings cache.StandingsCache
}

func NewStatsService(users repository.UserRepo, standings cache.StandingsCache) *StatsService {
	return &StatsService{users: users, standings: standings}
}

// ApplyReward persists one player's reward delta. The standings update is
// secondary: if Redis is down the durable record still wins and the miss is
// only logged.
func (s *StatsService) ApplyReward(ctx context.Context, userID string, reward model.Reward) error {
	if err := s.users.IncrementStats(ctx, userID, reward); err != nil {
		return fmt.Errorf("increment stats for %s: %w", userID, err)
	}
	if err := s.standings.IncrementXP(ctx, userID, reward.XPDelta); err != nil {
		log.Printf("standings update for %s failed: %v", userID, err)
	}
	return nil
}

// ProfileResponse is a user's stats view.
type ProfileResponse struct {
	User    model.User `json:"user"`
	WinRate float64    `json:"winRate"`
	Rank    int64      `json:"rank"`
}

// Profile returns a user's lifetime stats plus their global rank.
func (s *StatsService) Profile(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	winRate := 0.0
	if user.GamesPlayed > 0 {
		winRate = float64(user.GamesWon) / float64(user.GamesPlayed) * 100
	}
	rank, err := s.standings.Rank(ctx, userID)
	if err != nil {
		log.Printf("rank lookup for %s failed: %v", userID, err)
		rank = -1
	}
	return &ProfileResponse{User: *user, WinRate: winRate, Rank: rank}, nil
}

// TopPlayers returns the global XP standings with usernames resolved.
func (s *StatsService) TopPlayers(ctx context.Context, limit int) ([]cache.StandingsEntry, error) {
	entries, err := s.standings.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("standings top: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for i := range entries {
		entries[i].Username = names[entries[i].UserID]
	}
	return entries, nil
}
