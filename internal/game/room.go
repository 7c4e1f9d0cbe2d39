package game

import (
	"sort"
	"time"

	"brainbrawl/internal/model"
)

// MaxPlayers is the hard roster cap for every room.
const MaxPlayers = 5

// Status is the room lifecycle state. Transitions only move forward:
// waiting -> playing -> finished. A finished room is destroyed, never reused.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// AnswerRecord is one entry in a player's append-only answer log.
type AnswerRecord struct {
	QuestionIndex int    `json:"questionIndex"`
	Option        string `json:"option"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	TimeSpentMs   int64  `json:"timeSpentMs"`
}

// Player is one roster member of a room. The per-question fields are reset
// every time a new question opens.
type Player struct {
	ID             string
	Name           string
	ConnRef        string // opaque transport handle, replaced on reconnect
	Score          int
	HasAnswered    bool
	SelectedOption string
	IsCorrect      bool
	JoinedAt       time.Time
	Answers        []AnswerRecord
}

// CorrectCount returns how many questions the player answered correctly,
// taken from the authoritative answer log.
func (p *Player) CorrectCount() int {
	n := 0
	for _, a := range p.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// AnswerResult is returned to the submitting player.
type AnswerResult struct {
	Correct       bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	CorrectOption string `json:"correctOption"`
	TotalScore    int    `json:"totalScore"`
}

// LeaderboardEntry is one row of the room leaderboard.
type LeaderboardEntry struct {
	PlayerID       string `json:"playerId"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalAnswers   int    `json:"totalAnswers"`
}

// PlayerSnapshot is the broadcast-safe view of a player.
type PlayerSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"hasAnswered"`
	IsHost      bool   `json:"isHost"`
}

// Snapshot is the broadcast-safe view of a room.
type Snapshot struct {
	Code            string           `json:"code"`
	HostID          string           `json:"hostId"`
	Status          Status           `json:"status"`
	Players         []PlayerSnapshot `json:"players"`
	MaxPlayers      int              `json:"maxPlayers"`
	CurrentQuestion int              `json:"currentQuestion"` // 1-based, 0 before start
	TotalQuestions  int              `json:"totalQuestions"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Room owns the full lifecycle of one game: roster, current question,
// per-question timing and scoring. Pure state and transition logic; it holds
// no timers and performs no I/O, so callers are responsible for both
// scheduling and mutual exclusion.
type Room struct {
	Code   string
	hostID string

	order  []string // join order, drives host succession and tie display
	roster map[string]*Player

	status           Status
	questions        []model.Question
	currentIndex     int
	questionOpenedAt time.Time
	createdAt        time.Time

	now func() time.Time
}

// NewRoom creates a waiting room whose sole member is the host.
func NewRoom(code, hostID, hostName, connRef string, now func() time.Time) *Room {
	if now == nil {
		now = time.Now
	}
	r := &Room{
		Code:         code,
		hostID:       hostID,
		roster:       make(map[string]*Player),
		status:       StatusWaiting,
		currentIndex: -1,
		createdAt:    now(),
		now:          now,
	}
	r.roster[hostID] = &Player{ID: hostID, Name: hostName, ConnRef: connRef, JoinedAt: r.createdAt}
	r.order = append(r.order, hostID)
	return r
}

func (r *Room) Status() Status        { return r.status }
func (r *Room) HostID() string        { return r.hostID }
func (r *Room) CreatedAt() time.Time  { return r.createdAt }
func (r *Room) PlayerCount() int      { return len(r.roster) }
func (r *Room) TotalQuestions() int   { return len(r.questions) }
func (r *Room) CurrentIndex() int     { return r.currentIndex }
func (r *Room) IsHost(id string) bool { return id == r.hostID }

// HasPlayer reports roster membership.
func (r *Room) HasPlayer(id string) bool {
	_, ok := r.roster[id]
	return ok
}

// Players returns the roster in join order.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.roster[id])
	}
	return out
}

// AddPlayer inserts a new player, or replaces the connection handle in place
// when the identity is already on the roster (the reconnection path).
func (r *Room) AddPlayer(id, name, connRef string) error {
	if p, ok := r.roster[id]; ok {
		p.ConnRef = connRef
		return nil
	}
	if len(r.roster) >= MaxPlayers {
		return ErrRoomFull
	}
	if r.status != StatusWaiting {
		return ErrGameInProgress
	}
	r.roster[id] = &Player{ID: id, Name: name, ConnRef: connRef, JoinedAt: r.now()}
	r.order = append(r.order, id)
	return nil
}

// RemovePlayer removes the player and returns them. When the host departs
// and members remain, the host role passes to the next-oldest member.
// The room never deletes itself; an empty roster is the caller's signal.
func (r *Room) RemovePlayer(id string) (*Player, bool) {
	p, ok := r.roster[id]
	if !ok {
		return nil, false
	}
	delete(r.roster, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if id == r.hostID && len(r.order) > 0 {
		r.hostID = r.order[0]
	}
	return p, true
}

// Start transitions the room into play with a fixed question sequence.
// All scores and per-question fields are reset.
func (r *Room) Start(questions []model.Question) error {
	if len(r.roster) < 1 {
		return ErrInsufficientPlayers
	}
	if r.status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	r.status = StatusPlaying
	r.questions = questions
	r.currentIndex = 0
	r.questionOpenedAt = r.now()
	for _, p := range r.roster {
		p.Score = 0
		p.Answers = nil
		r.resetPlayer(p)
	}
	return nil
}

func (r *Room) resetPlayer(p *Player) {
	p.HasAnswered = false
	p.SelectedOption = ""
	p.IsCorrect = false
}

const (
	basePoints       = 100
	timeBonusCeiling = 500
)

// SubmitAnswer scores one answer for the current question. Duplicate
// submissions return ErrAlreadyAnswered and never double-score; callers
// treat that as a benign no-op.
func (r *Room) SubmitAnswer(id, option string, timeSpentMs int64) (*AnswerResult, error) {
	if r.status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	p, ok := r.roster[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.HasAnswered {
		return nil, ErrAlreadyAnswered
	}

	q := r.questions[r.currentIndex]
	correct := option == q.Correct

	points := 0
	if correct {
		bonus := timeBonusCeiling - int(timeSpentMs/10)
		if bonus < 0 {
			bonus = 0
		}
		points = basePoints + bonus
	}

	p.HasAnswered = true
	p.SelectedOption = option
	p.IsCorrect = correct
	p.Score += points
	p.Answers = append(p.Answers, AnswerRecord{
		QuestionIndex: r.currentIndex,
		Option:        option,
		Correct:       correct,
		Points:        points,
		TimeSpentMs:   timeSpentMs,
	})

	return &AnswerResult{
		Correct:       correct,
		Points:        points,
		CorrectOption: q.Correct,
		TotalScore:    p.Score,
	}, nil
}

// AdvanceQuestion moves to the next question, resetting every player's
// per-question fields. Past the last question it marks the room finished and
// reports ok=false; that is a sentinel, not an error.
func (r *Room) AdvanceQuestion() (*model.Question, bool, error) {
	if r.status != StatusPlaying {
		return nil, false, ErrNotPlaying
	}
	r.currentIndex++
	if r.currentIndex >= len(r.questions) {
		r.status = StatusFinished
		return nil, false, nil
	}
	for _, p := range r.roster {
		r.resetPlayer(p)
	}
	r.questionOpenedAt = r.now()
	q := r.questions[r.currentIndex]
	return &q, true, nil
}

// MarkQuestionOpened restamps the current question's open time. The
// coordinator calls it when the question is actually shown to players, so
// time-spent scoring does not include announcement or reveal delays.
func (r *Room) MarkQuestionOpened() {
	if r.status == StatusPlaying {
		r.questionOpenedAt = r.now()
	}
}

// CurrentQuestion returns the open question, or ok=false when none is open.
func (r *Room) CurrentQuestion() (*model.Question, bool) {
	if r.status != StatusPlaying || r.currentIndex < 0 || r.currentIndex >= len(r.questions) {
		return nil, false
	}
	q := r.questions[r.currentIndex]
	return &q, true
}

// QuestionElapsed returns how long the current question has been open.
func (r *Room) QuestionElapsed() time.Duration {
	if r.questionOpenedAt.IsZero() {
		return 0
	}
	return r.now().Sub(r.questionOpenedAt)
}

// AllAnswered reports whether every roster member has answered the current
// question; the coordinator uses it to short-circuit the question timer.
func (r *Room) AllAnswered() bool {
	for _, p := range r.roster {
		if !p.HasAnswered {
			return false
		}
	}
	return len(r.roster) > 0
}

// Leaderboard returns players sorted by descending score. The sort is
// stable: ties keep their relative join order.
func (r *Room) Leaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(r.order))
	for _, id := range r.order {
		p := r.roster[id]
		entries = append(entries, LeaderboardEntry{
			PlayerID:       p.ID,
			Username:       p.Name,
			Score:          p.Score,
			CorrectAnswers: p.CorrectCount(),
			TotalAnswers:   len(p.Answers),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Snapshot returns the broadcast-safe view of the room.
func (r *Room) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, 0, len(r.order))
	for _, id := range r.order {
		p := r.roster[id]
		players = append(players, PlayerSnapshot{
			ID:          p.ID,
			Username:    p.Name,
			Score:       p.Score,
			HasAnswered: p.HasAnswered,
			IsHost:      p.ID == r.hostID,
		})
	}
	return Snapshot{
		Code:            r.Code,
		HostID:          r.hostID,
		Status:          r.status,
		Players:         players,
		MaxPlayers:      MaxPlayers,
		CurrentQuestion: r.currentIndex + 1,
		TotalQuestions:  len(r.questions),
		CreatedAt:       r.createdAt,
	}
}
