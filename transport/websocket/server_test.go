package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-local/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type testEnv struct {
	ctx         context.Context
	conn        *websocket.Conn
	store       *storage.MemoryStorage
	leaderboard repository.LeaderboardRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := scheduler.New(logger)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	store := storage.NewMemoryStorage()
	leaderboard := repository.NewLeaderboardRepository(logger, store)

	server := New(logger, Options{
		Leaderboard:   leaderboard,
		Preferences:   repository.NewPreferencesRepository(store),
		Scheduler:     s,
		ComputerDelay: 10 * time.Millisecond,
	})

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	return &testEnv{
		ctx:         ctx,
		conn:        conn,
		store:       store,
		leaderboard: leaderboard,
	}
}

func (that *testEnv) send(t *testing.T, action string, payload any) {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}

	require.NoError(t, wsjson.Write(that.ctx, that.conn, msg))
}

func (that *testEnv) next(t *testing.T) Message {
	t.Helper()

	var msg Message
	require.NoError(t, wsjson.Read(that.ctx, that.conn, &msg))
	return msg
}

// readUntil skips messages until one with action arrives.
func (that *testEnv) readUntil(t *testing.T, action string) Message {
	t.Helper()

	for {
		msg := that.next(t)
		if msg.Action == action {
			return msg
		}
	}
}

func (that *testEnv) readState(t *testing.T) StatePayload {
	t.Helper()

	var payload StatePayload
	require.NoError(t, json.Unmarshal(that.readUntil(t, ActionGameState).Payload, &payload))
	return payload
}

func (that *testEnv) readLeaderboard(t *testing.T) LeaderboardPayload {
	t.Helper()

	var payload LeaderboardPayload
	require.NoError(t, json.Unmarshal(that.readUntil(t, ActionLeaderboard).Payload, &payload))
	return payload
}

func (that *testEnv) greet(t *testing.T) {
	t.Helper()

	that.readUntil(t, ActionPreferences)
	that.readLeaderboard(t)
	that.readState(t)
}

func cell(i int) *int {
	return &i
}

func TestServer_Greeting(t *testing.T) {
	env := newTestEnv(t)

	// Then: preferences, leaderboard and an inactive game arrive in order
	msg := env.next(t)
	require.Equal(t, ActionPreferences, msg.Action)
	assert.JSONEq(t, `{"dark_mode":false}`, string(msg.Payload))

	msg = env.next(t)
	require.Equal(t, ActionLeaderboard, msg.Action)
	assert.JSONEq(t, `{"leaderboard":[]}`, string(msg.Payload))

	state := env.readState(t)
	assert.Equal(t, entity.StatusInactive, state.State.Game.Status)
}

func TestServer_HumanGame(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	// When: a session starts
	env.send(t, ActionSessionStart, RequestPayload{PlayerX: "Alice", PlayerO: "Bob"})

	// Then: the fresh game and the leaderboard are pushed
	state := env.readState(t)
	assert.Equal(t, entity.StatusOngoing, state.State.Game.Status)
	assert.Equal(t, "Alice's turn", state.State.Message)
	env.readLeaderboard(t)

	// When: X wins along the top row
	for _, i := range []int{0, 3, 1, 4, 2} {
		env.send(t, ActionGameMove, RequestPayload{Cell: cell(i)})
		sound := env.next(t)
		require.Equal(t, ActionSoundMove, sound.Action)
		state = env.readState(t)
	}

	// Then: the win is rendered and the leaderboard follows
	assert.Equal(t, entity.StatusWon, state.State.Game.Status)
	assert.Equal(t, entity.PlayerX, state.State.Game.Winner)
	assert.Equal(t, 1, state.State.Scores[entity.PlayerX])

	leaderboard := env.readLeaderboard(t)
	assert.Equal(t, []entity.LeaderboardEntry{{Rank: 1, Name: "Alice", Wins: 1}}, leaderboard.Leaderboard)
}

func TestServer_IgnoredMoveIsSilent(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	env.send(t, ActionSessionStart, RequestPayload{})
	env.readState(t)
	env.readLeaderboard(t)

	// Given: an accepted move
	env.send(t, ActionGameMove, RequestPayload{Cell: cell(0)})
	require.Equal(t, ActionSoundMove, env.next(t).Action)
	env.readState(t)

	// When: the same cell and an out-of-range cell are played
	env.send(t, ActionGameMove, RequestPayload{Cell: cell(0)})
	env.send(t, ActionGameMove, RequestPayload{Cell: cell(42)})
	env.send(t, ActionLeaderboardGet, nil)

	// Then: nothing is sent back before the leaderboard reply
	assert.Equal(t, ActionLeaderboard, env.next(t).Action)
}

func TestServer_ComputerOpponent(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	env.send(t, ActionSessionStart, RequestPayload{PlayerX: "Alice", Computer: true})
	env.readState(t)
	env.readLeaderboard(t)

	// When: the human plays the center
	env.send(t, ActionGameMove, RequestPayload{Cell: cell(4)})
	state := env.readState(t)
	require.Equal(t, entity.PlayerO, state.State.Game.Turn)

	// Then: the computer answers on its own
	state = env.readState(t)
	assert.Equal(t, 1, state.State.Game.Board.Count(entity.PlayerO))
	assert.Equal(t, entity.PlayerX, state.State.Game.Turn)
	assert.True(t, state.State.Computer)
}

func TestServer_DarkMode(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	// When: dark mode is switched on
	env.send(t, ActionDarkMode, RequestPayload{Enabled: true})

	// Then: the new preference is echoed and stored
	msg := env.readUntil(t, ActionPreferences)
	assert.JSONEq(t, `{"dark_mode":true}`, string(msg.Payload))

	raw, err := env.store.Get(env.ctx, "darkMode")
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
}

func TestServer_LeaderboardClear(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	_, err := env.leaderboard.Increment(env.ctx, "Alice")
	require.NoError(t, err)

	env.send(t, ActionLeaderboardClear, nil)

	leaderboard := env.readLeaderboard(t)
	assert.Empty(t, leaderboard.Leaderboard)
}

func TestServer_UnknownAction(t *testing.T) {
	env := newTestEnv(t)
	env.greet(t)

	env.send(t, "game:explode", nil)

	msg := env.readUntil(t, ActionError)
	assert.JSONEq(t, `{"error":"unknown action: game:explode"}`, string(msg.Payload))

	// And: the connection keeps working
	env.send(t, ActionLeaderboardGet, nil)
	env.readLeaderboard(t)
}
