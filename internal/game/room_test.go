package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbrawl/internal/model"
)

func testQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Prompt:  fmt.Sprintf("question %d", i+1),
			Options: [4]string{"red", "blue", "green", "yellow"},
			Correct: "b",
		}
	}
	return qs
}

func TestRoomCapacity(t *testing.T) {
	room := NewRoom("123456", "host", "Hosty", "c1", nil)

	for i := 2; i <= MaxPlayers; i++ {
		err := room.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), "c")
		require.NoError(t, err)
	}
	assert.Equal(t, MaxPlayers, room.PlayerCount())

	err := room.AddPlayer("p6", "Player6", "c")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, MaxPlayers, room.PlayerCount())
}

func TestRoomRejoinReplacesConnection(t *testing.T) {
	room := NewRoom("123456", "host", "Hosty", "c1", nil)
	require.NoError(t, room.AddPlayer("p2", "Alice", "c2"))

	// same identity with a fresh connection is a reconnect, not a new seat
	require.NoError(t, room.AddPlayer("p2", "Alice", "c3"))
	assert.Equal(t, 2, room.PlayerCount())

	players := room.Players()
	assert.Equal(t, "c3", players[1].ConnRef)
}

func TestRoomRejoinAllowedWhilePlaying(t *testing.T) {
	room := NewRoom("123456", "host", "Hosty", "c1", nil)
	require.NoError(t, room.AddPlayer("p2", "Alice", "c2"))
	require.NoError(t, room.Start(testQuestions(3)))

	assert.NoError(t, room.AddPlayer("p2", "Alice", "c9"))
	assert.ErrorIs(t, room.AddPlayer("p3", "Bob", "c3"), ErrGameInProgress)
}

func TestRoomHostSuccession(t *testing.T) {
	room := NewRoom("123456", "host", "Hosty", "c1", nil)
	require.NoError(t, room.AddPlayer("p2", "Alice", "c2"))
	require.NoError(t, room.AddPlayer("p3", "Bob", "c3"))

	_, ok := room.RemovePlayer("host")
	require.True(t, ok)
	assert.Equal(t, "p2", room.HostID())

	_, ok = room.RemovePlayer("p2")
	require.True(t, ok)
	assert.Equal(t, "p3", room.HostID())

	// non-host departure leaves the host untouched
	room2 := NewRoom("654321", "host", "Hosty", "c1", nil)
	require.NoError(t, room2.AddPlayer("p2", "Alice", "c2"))
	room2.RemovePlayer("p2")
	assert.Equal(t, "host", room2.HostID())
}

func TestRoomStartValidation(t *testing.T) {
	room := NewRoom("123456", "host", "Hosty", "c1", nil)

	assert.ErrorIs(t, room.Start(nil), ErrNoQuestions)
	require.NoError(t, room.Start(testQuestions(3)))
	assert.Equal(t, StatusPlaying, room.Status())
	assert.ErrorIs(t, room.Start(testQuestions(3)), ErrAlreadyStarted)
}

func TestRoomScoring(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	room := NewRoom("123456", "a", "Ann", "c1", func() time.Time { return clock })
	require.NoError(t, room.AddPlayer("b", "Ben", "c2"))
	require.NoError(t, room.Start(testQuestions(3)))

	// correct after 2s: 100 base + (500 - 2000/10) bonus
	res, err := room.SubmitAnswer("a", "b", 2000)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 400, res.Points)
	assert.Equal(t, 400, res.TotalScore)
	assert.Equal(t, "b", res.CorrectOption)

	// wrong answer scores nothing
	res, err = room.SubmitAnswer("b", "c", 1000)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.Points)

	lb := room.Leaderboard()
	require.Len(t, lb, 2)
	assert.Equal(t, "a", lb[0].PlayerID)
	assert.Equal(t, 400, lb[0].Score)
	assert.Equal(t, "b", lb[1].PlayerID)
}

func TestRoomScoringSlowCorrectAnswer(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.Start(testQuestions(1)))

	// past the bonus window only the base remains
	res, err := room.SubmitAnswer("a", "b", 9000)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Points)
}

func TestRoomDuplicateSubmit(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.Start(testQuestions(1)))

	_, err := room.SubmitAnswer("a", "b", 1000)
	require.NoError(t, err)

	_, err = room.SubmitAnswer("a", "c", 1500)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	// the first submission stands
	lb := room.Leaderboard()
	assert.Equal(t, 400, lb[0].Score)
	assert.Equal(t, 1, lb[0].TotalAnswers)
}

func TestRoomSubmitValidation(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)

	_, err := room.SubmitAnswer("a", "b", 1000)
	assert.ErrorIs(t, err, ErrNotPlaying)

	require.NoError(t, room.Start(testQuestions(1)))
	_, err = room.SubmitAnswer("ghost", "b", 1000)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestRoomAdvanceToFinish(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.Start(testQuestions(2)))
	assert.Equal(t, 0, room.CurrentIndex())

	_, err := room.SubmitAnswer("a", "b", 1000)
	require.NoError(t, err)

	q, more, err := room.AdvanceQuestion()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, "q2", q.ID)
	assert.False(t, room.AllAnswered(), "per-question state resets on advance")

	_, more, err = room.AdvanceQuestion()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, StatusFinished, room.Status())

	_, _, err = room.AdvanceQuestion()
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestRoomAllAnswered(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.AddPlayer("b", "Ben", "c2"))
	require.NoError(t, room.Start(testQuestions(1)))

	assert.False(t, room.AllAnswered())
	room.SubmitAnswer("a", "b", 1000)
	assert.False(t, room.AllAnswered())
	room.SubmitAnswer("b", "d", 1500)
	assert.True(t, room.AllAnswered())
}

func TestRoomLeaderboardStableTies(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.AddPlayer("b", "Ben", "c2"))
	require.NoError(t, room.AddPlayer("c", "Cat", "c3"))
	require.NoError(t, room.Start(testQuestions(1)))

	// b and c tie at zero; join order breaks the tie
	room.SubmitAnswer("a", "b", 1000)
	room.SubmitAnswer("b", "d", 1000)
	room.SubmitAnswer("c", "d", 1000)

	lb := room.Leaderboard()
	require.Len(t, lb, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{lb[0].PlayerID, lb[1].PlayerID, lb[2].PlayerID})
}

func TestRoomSnapshot(t *testing.T) {
	room := NewRoom("123456", "a", "Ann", "c1", nil)
	require.NoError(t, room.AddPlayer("b", "Ben", "c2"))

	snap := room.Snapshot()
	assert.Equal(t, "123456", snap.Code)
	assert.Equal(t, "a", snap.HostID)
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Equal(t, MaxPlayers, snap.MaxPlayers)
	assert.Equal(t, 0, snap.CurrentQuestion)
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[0].IsHost)
	assert.False(t, snap.Players[1].IsHost)
}

func TestRoomMarkQuestionOpened(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	room := NewRoom("123456", "a", "Ann", "c1", func() time.Time { return clock })
	require.NoError(t, room.Start(testQuestions(1)))

	clock = clock.Add(3 * time.Second)
	room.MarkQuestionOpened()
	clock = clock.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, room.QuestionElapsed())
}
