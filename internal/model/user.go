package model

import "time"

// User is a registered account with lifetime stats.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	XP           int       `json:"xp" bson:"xp"`
	Gems         int       `json:"gems" bson:"gems"`
	GamesPlayed  int       `json:"gamesPlayed" bson:"gamesPlayed"`
	GamesWon     int       `json:"gamesWon" bson:"gamesWon"`
	TotalScore   int       `json:"totalScore" bson:"totalScore"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Reward is the end-of-game delta handed to the stats collaborator.
type Reward struct {
	XPDelta    int  `json:"xpDelta"`
	GemDelta   int  `json:"gemDelta"`
	Won        bool `json:"won"`
	ScoreDelta int  `json:"scoreDelta"`
}
