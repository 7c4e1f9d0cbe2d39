package service

import "brainbrawl/internal/game"

// Outbound event names. Each has exactly one payload type below.
const (
	EventRoomCreated     = "room_created"
	EventRoomJoined      = "room_joined"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventGameStarted     = "game_started"
	EventNewQuestion     = "new_question"
	EventPlayerAnswered  = "player_answered"
	EventQuestionResults = "question_results"
	EventGameEnded       = "game_ended"
	EventRoomClosing     = "room_closing"
	EventGameError       = "game_error"
	EventRoomInfo        = "room_info"
)

// RoomEvent carries a room snapshot (room_created / room_joined).
type RoomEvent struct {
	Room game.Snapshot `json:"room"`
}

// RosterEvent carries the affected player plus the updated room snapshot
// (player_joined / player_left).
type RosterEvent struct {
	Player game.PlayerSnapshot `json:"player"`
	Room   game.Snapshot       `json:"room"`
}

// GameStartedEvent announces an accepted start before the first question.
type GameStartedEvent struct {
	TotalQuestions int `json:"totalQuestions"`
}

// NewQuestionEvent opens a question window. The correct option is withheld.
type NewQuestionEvent struct {
	QuestionNumber int       `json:"questionNumber"` // 1-based
	TotalQuestions int       `json:"totalQuestions"`
	Prompt         string    `json:"prompt"`
	Options        [4]string `json:"options"`
	Category       string    `json:"category"`
	TimeLimitSec   int       `json:"timeLimit"`
}

// PlayerAnsweredEvent is the running answer count while a question is open.
type PlayerAnsweredEvent struct {
	PlayerID        string `json:"playerId"`
	Username        string `json:"username"`
	PlayersAnswered int    `json:"playersAnswered"`
	TotalPlayers    int    `json:"totalPlayers"`
}

// PlayerOutcome is one player's result for a closed question.
type PlayerOutcome struct {
	PlayerID       string `json:"playerId"`
	Username       string `json:"username"`
	SelectedOption string `json:"selectedOption"`
	Correct        bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	Score          int    `json:"score"`
}

// QuestionResultsEvent closes a question window.
type QuestionResultsEvent struct {
	Prompt        string                  `json:"question"`
	CorrectOption string                  `json:"correctAnswer"`
	Options       [4]string               `json:"options"`
	Explanation   string                  `json:"explanation,omitempty"`
	FlavorText    string                  `json:"flavorText,omitempty"`
	Results       []PlayerOutcome         `json:"results"`
	Leaderboard   []game.LeaderboardEntry `json:"leaderboard"`
}

// FinalResult is one player's placement and reward at end of game.
type FinalResult struct {
	PlayerID       string `json:"playerId"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	Placement      int    `json:"placement"`
	XPReward       int    `json:"xpReward"`
	GemReward      int    `json:"gemReward"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// GameEndedEvent carries the final placements and rewards.
type GameEndedEvent struct {
	FinalResults   []FinalResult `json:"finalResults"`
	TotalQuestions int           `json:"totalQuestions"`
}

// RoomClosingEvent precedes eviction of a finished room.
type RoomClosingEvent struct {
	Message string `json:"message"`
}

// GameErrorEvent reports a recoverable failure to the originating caller.
type GameErrorEvent struct {
	Error string `json:"error"`
}
