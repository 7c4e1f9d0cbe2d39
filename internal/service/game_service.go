package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"brainbrawl/internal/game"
	"brainbrawl/internal/model"
)

// QuestionSource supplies an ordered batch of questions for a session.
type QuestionSource interface {
	Fetch(ctx context.Context, count int, category string) ([]model.Question, error)
}

// RewardSink persists end-of-game reward deltas. Failures are non-fatal to
// game flow.
type RewardSink interface {
	ApplyReward(ctx context.Context, userID string, reward model.Reward) error
}

// Timing collects every clock-driven constant of a session so tests can
// compress them.
type Timing struct {
	AnnounceDelay     time.Duration // game_started -> first question
	QuestionLimit     time.Duration // open question window
	ShortCircuitDelay time.Duration // last answer -> close
	RevealDelay       time.Duration // results -> next question
	EndGraceDelay     time.Duration // game_ended -> room_closing
	EvictDelay        time.Duration // room_closing -> eviction
	CleanupInterval   time.Duration // idle-room sweep period
	RoomMaxAge        time.Duration // idle-room threshold
}

// DefaultTiming returns the production constants.
func DefaultTiming() Timing {
	return Timing{
		AnnounceDelay:     3 * time.Second,
		QuestionLimit:     30 * time.Second,
		ShortCircuitDelay: 1 * time.Second,
		RevealDelay:       6 * time.Second,
		EndGraceDelay:     10 * time.Second,
		EvictDelay:        5 * time.Second,
		CleanupInterval:   30 * time.Minute,
		RoomMaxAge:        2 * time.Hour,
	}
}

const (
	questionsPerGame  = 15
	minPlayersToStart = 2
	fetchTimeout      = 10 * time.Second
	rewardTimeout     = 5 * time.Second
)

// roomState is the coordinator-side companion of a live room: the per-room
// lock that serializes every mutation, the outstanding question timer, and
// the close fence.
type roomState struct {
	mu       sync.Mutex
	category string
	timer    *time.Timer
	// lastClosed is the highest question index whose window has been closed.
	// It fences the timer-vs-last-answer race: whichever trigger runs second
	// sees the index already closed and returns.
	lastClosed int
}

func (st *roomState) stopTimer() {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

// GameService is the session coordinator: it translates player actions into
// Room/Registry calls, owns the per-room question timers, and fans results
// out through the Broadcaster.
type GameService struct {
	registry  *game.Registry
	questions QuestionSource
	stats     RewardSink
	b         Broadcaster
	timing    Timing

	mu     sync.Mutex
	states map[string]*roomState

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGameService creates a coordinator over the given registry and
// collaborators.
func NewGameService(registry *game.Registry, questions QuestionSource, stats RewardSink, timing Timing) *GameService {
	return &GameService{
		registry:  registry,
		questions: questions,
		stats:     stats,
		timing:    timing,
		states:    make(map[string]*roomState),
		stop:      make(chan struct{}),
	}
}

// SetBroadcaster injects the transport fan-out.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.b = b
}

// Registry exposes the room directory for read-only REST surfaces.
func (s *GameService) Registry() *game.Registry {
	return s.registry
}

func (s *GameService) state(code string) *roomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[code]
}

func (s *GameService) putState(code, category string) *roomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &roomState{category: category, lastClosed: -1}
	s.states[code] = st
	return st
}

func (s *GameService) dropState(code string) {
	s.mu.Lock()
	st, ok := s.states[code]
	delete(s.states, code)
	s.mu.Unlock()
	if ok {
		st.mu.Lock()
		st.stopTimer()
		st.mu.Unlock()
	}
}

func (s *GameService) errorTo(code, playerID, reason string) {
	s.b.BroadcastToPlayer(code, playerID, EventGameError, GameErrorEvent{Error: reason})
}

// HandleCreateRoom creates a room hosted by the caller. A caller already in
// another room leaves it first.
func (s *GameService) HandleCreateRoom(id, name, connRef, category string) {
	if category == "" {
		category = "all"
	}
	if !model.IsValidCategory(category) {
		s.errorTo("", id, "invalid category")
		return
	}
	s.leaveIfMember(id)

	room, err := s.registry.CreateRoom(id, name, connRef)
	if err != nil {
		log.Printf("create room for %s: %v", id, err)
		s.errorTo("", id, "failed to create room")
		return
	}
	s.putState(room.Code, category)
	s.b.AddToRoom(room.Code, id)
	s.b.BroadcastToPlayer(room.Code, id, EventRoomCreated, RoomEvent{Room: room.Snapshot()})
	log.Printf("room %s created by %s", room.Code, id)
}

// HandleJoinRoom adds the caller to the room with the given code, leaving
// any previous room first. Joining the player's current room again is the
// reconnection path and only replaces the connection handle. The registry
// call runs under the room's coordinator lock so a join can never interleave
// with Start or a question close.
func (s *GameService) HandleJoinRoom(code, id, name, connRef string) {
	if prev, ok := s.registry.RoomByPlayer(id); ok && prev.Code != code {
		s.leaveIfMember(id)
	}

	st := s.state(code)
	if st == nil {
		s.errorTo("", id, joinErrorReason(game.ErrRoomNotFound))
		return
	}

	st.mu.Lock()
	if s.state(code) != st {
		// room torn down between lookup and lock
		st.mu.Unlock()
		s.errorTo("", id, joinErrorReason(game.ErrRoomNotFound))
		return
	}
	room, err := s.registry.JoinRoom(code, id, name, connRef)
	if err != nil {
		st.mu.Unlock()
		s.errorTo("", id, joinErrorReason(err))
		return
	}
	snapshot := room.Snapshot()
	var joined game.PlayerSnapshot
	for _, p := range snapshot.Players {
		if p.ID == id {
			joined = p
		}
	}
	st.mu.Unlock()

	s.b.AddToRoom(code, id)
	s.b.BroadcastToPlayer(code, id, EventRoomJoined, RoomEvent{Room: snapshot})
	s.b.BroadcastToAllPlayers(code, EventPlayerJoined, RosterEvent{Player: joined, Room: snapshot})
	log.Printf("player %s joined room %s (%d/%d)", id, code, len(snapshot.Players), game.MaxPlayers)
}

func joinErrorReason(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, game.ErrRoomFull):
		return "room is full"
	case errors.Is(err, game.ErrGameInProgress):
		return "game already in progress"
	default:
		return "failed to join room"
	}
}

// HandleStartGame starts the caller's room. Only the host may start, and at
// least two players must be present; both are coordinator policy, so a
// rejected start never mutates room state.
func (s *GameService) HandleStartGame(id string) {
	room, ok := s.registry.RoomByPlayer(id)
	if !ok {
		s.errorTo("", id, "not in a room")
		return
	}
	code := room.Code
	st := s.state(code)
	if st == nil {
		return
	}

	st.mu.Lock()
	isHost := room.IsHost(id)
	count := room.PlayerCount()
	category := st.category
	st.mu.Unlock()

	if !isHost {
		s.errorTo(code, id, "only the host can start the game")
		return
	}
	if count < minPlayersToStart {
		s.errorTo(code, id, "need at least 2 players to start")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	batch, err := s.questions.Fetch(ctx, questionsPerGame, category)
	if err != nil {
		log.Printf("room %s: question fetch failed: %v", code, err)
		s.errorTo(code, id, "failed to start game")
		return
	}

	st.mu.Lock()
	if err := room.Start(batch); err != nil {
		st.mu.Unlock()
		s.errorTo(code, id, startErrorReason(err))
		return
	}
	st.mu.Unlock()

	s.b.BroadcastToAllPlayers(code, EventGameStarted, GameStartedEvent{TotalQuestions: len(batch)})
	log.Printf("room %s: game started with %d questions", code, len(batch))

	time.AfterFunc(s.timing.AnnounceDelay, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if s.state(code) != st {
			// room already torn down, possibly with its code reissued
			return
		}
		if room.Status() == game.StatusPlaying && room.CurrentIndex() == 0 && st.lastClosed < 0 {
			s.openQuestionLocked(room, st)
		}
	})
}

func startErrorReason(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyStarted):
		return "game already started"
	case errors.Is(err, game.ErrNoQuestions), errors.Is(err, game.ErrInsufficientPlayers):
		return "failed to start game"
	default:
		return "failed to start game"
	}
}

// openQuestionLocked broadcasts the current question and arms its timer.
// Caller holds st.mu.
func (s *GameService) openQuestionLocked(room *game.Room, st *roomState) {
	q, ok := room.CurrentQuestion()
	if !ok {
		return
	}
	room.MarkQuestionOpened()
	idx := room.CurrentIndex()
	code := room.Code

	s.b.BroadcastToAllPlayers(code, EventNewQuestion, NewQuestionEvent{
		QuestionNumber: idx + 1,
		TotalQuestions: room.TotalQuestions(),
		Prompt:         q.Prompt,
		Options:        q.Options,
		Category:       q.Category,
		TimeLimitSec:   int(s.timing.QuestionLimit / time.Second),
	})

	st.stopTimer()
	st.timer = time.AfterFunc(s.timing.QuestionLimit, func() {
		s.closeQuestion(code, idx, st)
	})
}

// HandleSubmitAnswer scores an answer for the caller's open question.
// Duplicates are dropped silently; when the last player answers, the window
// closes early.
func (s *GameService) HandleSubmitAnswer(id, option string) {
	room, ok := s.registry.RoomByPlayer(id)
	if !ok {
		return
	}
	code := room.Code
	st := s.state(code)
	if st == nil {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if s.state(code) != st {
		return
	}
	idx := room.CurrentIndex()
	if st.lastClosed >= idx {
		// window already closed, late answer dropped
		return
	}
	elapsed := room.QuestionElapsed().Milliseconds()
	res, err := room.SubmitAnswer(id, option, elapsed)
	if errors.Is(err, game.ErrAlreadyAnswered) {
		return
	}
	if err != nil {
		s.errorTo(code, id, "answer rejected")
		return
	}
	log.Printf("room %s: %s answered %s (correct=%t) +%d", code, id, option, res.Correct, res.Points)

	if room.AllAnswered() {
		st.stopTimer()
		time.AfterFunc(s.timing.ShortCircuitDelay, func() {
			s.closeQuestion(code, idx, st)
		})
		return
	}

	answered := 0
	players := room.Players()
	var name string
	for _, p := range players {
		if p.HasAnswered {
			answered++
		}
		if p.ID == id {
			name = p.Name
		}
	}
	s.b.BroadcastToAllPlayers(code, EventPlayerAnswered, PlayerAnsweredEvent{
		PlayerID:        id,
		Username:        name,
		PlayersAnswered: answered,
		TotalPlayers:    len(players),
	})
}

// closeQuestion is the single convergence point for the question timer and
// the all-answered short circuit. It is idempotent: the lastClosed fence and
// the room's current index guard against the double trigger. st is the state
// captured when the trigger was armed; if the code now maps to a different
// state the room was torn down and its code reissued, and the stale trigger
// must not touch the successor.
func (s *GameService) closeQuestion(code string, idx int, st *roomState) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s.state(code) != st {
		return
	}
	room, ok := s.registry.Room(code)
	if !ok {
		return
	}
	if room.Status() != game.StatusPlaying || room.CurrentIndex() != idx || st.lastClosed >= idx {
		return
	}
	st.lastClosed = idx
	st.stopTimer()

	q, ok := room.CurrentQuestion()
	if !ok {
		return
	}

	players := room.Players()
	results := make([]PlayerOutcome, 0, len(players))
	for _, p := range players {
		points := 0
		if n := len(p.Answers); n > 0 && p.Answers[n-1].QuestionIndex == idx {
			points = p.Answers[n-1].Points
		}
		results = append(results, PlayerOutcome{
			PlayerID:       p.ID,
			Username:       p.Name,
			SelectedOption: p.SelectedOption,
			Correct:        p.IsCorrect,
			Points:         points,
			Score:          p.Score,
		})
	}

	s.b.BroadcastToAllPlayers(code, EventQuestionResults, QuestionResultsEvent{
		Prompt:        q.Prompt,
		CorrectOption: q.Correct,
		Options:       q.Options,
		Explanation:   q.Explanation,
		FlavorText:    q.FlavorText,
		Results:       results,
		Leaderboard:   room.Leaderboard(),
	})

	time.AfterFunc(s.timing.RevealDelay, func() {
		s.advance(code, st)
	})
}

// advance moves a room past a revealed question: either the next question
// opens or the game ends. Fenced by state identity like closeQuestion.
func (s *GameService) advance(code string, st *roomState) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s.state(code) != st {
		return
	}
	room, ok := s.registry.Room(code)
	if !ok {
		return
	}
	_, more, err := room.AdvanceQuestion()
	if err != nil {
		return
	}
	if more {
		s.openQuestionLocked(room, st)
		return
	}
	s.endGameLocked(room, st)
}

// endGameLocked computes placements and rewards, hands the deltas to the
// stats collaborator best-effort, and schedules room teardown. Caller holds
// st.mu.
func (s *GameService) endGameLocked(room *game.Room, st *roomState) {
	code := room.Code
	standings := room.Leaderboard()

	final := make([]FinalResult, 0, len(standings))
	for i, entry := range standings {
		placement := i + 1
		xp, gems := placementReward(placement, entry.CorrectAnswers)
		final = append(final, FinalResult{
			PlayerID:       entry.PlayerID,
			Username:       entry.Username,
			Score:          entry.Score,
			Placement:      placement,
			XPReward:       xp,
			GemReward:      gems,
			CorrectAnswers: entry.CorrectAnswers,
		})
	}

	s.b.BroadcastToAllPlayers(code, EventGameEnded, GameEndedEvent{
		FinalResults:   final,
		TotalQuestions: room.TotalQuestions(),
	})
	log.Printf("room %s: game finished, %d players", code, len(final))

	// Reward persistence is best-effort and per-player: one failure is
	// logged and never blocks the others or the broadcast above.
	go func() {
		for _, fr := range final {
			ctx, cancel := context.WithTimeout(context.Background(), rewardTimeout)
			err := s.stats.ApplyReward(ctx, fr.PlayerID, model.Reward{
				XPDelta:    fr.XPReward,
				GemDelta:   fr.GemReward,
				Won:        fr.Placement == 1,
				ScoreDelta: fr.Score,
			})
			cancel()
			if err != nil {
				log.Printf("room %s: reward for %s failed: %v", code, fr.PlayerID, err)
			}
		}
	}()

	time.AfterFunc(s.timing.EndGraceDelay, func() {
		s.b.BroadcastToAllPlayers(code, EventRoomClosing, RoomClosingEvent{Message: "room closing"})
		time.AfterFunc(s.timing.EvictDelay, func() {
			s.teardown(code)
		})
	})
}

// placementReward is the deterministic reward table: escalating bases for
// the podium, a flat base for everyone else, both scaled by the player's
// correct-answer count from the answer log.
func placementReward(placement, correct int) (xp, gems int) {
	switch placement {
	case 1:
		xp, gems = 50, 10
	case 2:
		xp, gems = 30, 6
	case 3:
		xp, gems = 20, 4
	default:
		xp, gems = 10, 1
	}
	xp += correct * 5
	gems += correct / 3
	return xp, gems
}

func (s *GameService) teardown(code string) {
	s.registry.DeleteRoom(code)
	s.b.DisconnectRoom(code)
	s.dropState(code)
	log.Printf("room %s closed", code)
}

// HandleLeaveRoom removes the caller from their room. A disconnect is
// treated identically.
func (s *GameService) HandleLeaveRoom(id string) {
	s.leaveIfMember(id)
}

// HandleDisconnect is the transport-level counterpart of HandleLeaveRoom.
func (s *GameService) HandleDisconnect(id string) {
	s.leaveIfMember(id)
}

func (s *GameService) leaveIfMember(id string) {
	current, ok := s.registry.RoomByPlayer(id)
	if !ok {
		return
	}
	code := current.Code
	st := s.state(code)
	if st == nil {
		s.registry.LeaveRoom(id)
		s.b.RemoveFromRoom(code, id)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room, left, removed := s.registry.LeaveRoom(id)
	s.b.RemoveFromRoom(code, id)
	if !removed || room == nil {
		return
	}
	log.Printf("player %s left room %s", id, code)

	if room.PlayerCount() == 0 {
		st.stopTimer()
		s.mu.Lock()
		delete(s.states, code)
		s.mu.Unlock()
		log.Printf("room %s deleted: no players remaining", code)
		return
	}

	snapshot := room.Snapshot()
	s.b.BroadcastToAllPlayers(code, EventPlayerLeft, RosterEvent{
		Player: game.PlayerSnapshot{ID: left.ID, Username: left.Name, Score: left.Score},
		Room:   snapshot,
	})

	// the departed player may have been the last holdout on the open question
	idx := room.CurrentIndex()
	if room.Status() == game.StatusPlaying && st.lastClosed < idx && room.AllAnswered() {
		st.stopTimer()
		time.AfterFunc(s.timing.ShortCircuitDelay, func() {
			s.closeQuestion(code, idx, st)
		})
	}
}

// HandleRoomInfo sends the caller a snapshot of their current room.
func (s *GameService) HandleRoomInfo(id string) {
	room, ok := s.registry.RoomByPlayer(id)
	if !ok {
		return
	}
	st := s.state(room.Code)
	if st == nil {
		return
	}
	st.mu.Lock()
	snapshot := room.Snapshot()
	st.mu.Unlock()
	s.b.BroadcastToPlayer(room.Code, id, EventRoomInfo, RoomEvent{Room: snapshot})
}

// StartCleanup launches the recurring idle-room sweep. Stop ends it.
func (s *GameService) StartCleanup() {
	go func() {
		ticker := time.NewTicker(s.timing.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := s.registry.CleanupExpired(s.timing.RoomMaxAge)
				for _, code := range removed {
					s.b.DisconnectRoom(code)
					s.dropState(code)
				}
				if len(removed) > 0 {
					log.Printf("cleaned up %d idle rooms", len(removed))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the cleanup loop.
func (s *GameService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
