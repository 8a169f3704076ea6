package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
	"github.com/rocketscienceinc/tictactoe-local/internal/tictactoe"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

const (
	ActionSessionStart     = "session:start"
	ActionGameMove         = "game:move"
	ActionGameRestart      = "game:restart"
	ActionLeaderboardGet   = "leaderboard:get"
	ActionLeaderboardClear = "leaderboard:clear"
	ActionDarkMode         = "preferences:dark_mode"

	ActionGameState   = "game:state"
	ActionSoundMove   = "sound:move"
	ActionLeaderboard = "leaderboard"
	ActionPreferences = "preferences"
	ActionError       = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	PlayerX  string `json:"player_x,omitempty"`
	PlayerO  string `json:"player_o,omitempty"`
	Computer bool   `json:"computer,omitempty"`
	Cell     *int   `json:"cell,omitempty"`
	Enabled  bool   `json:"enabled,omitempty"`
}

type StatePayload struct {
	State tictactoe.Snapshot `json:"state"`
}

type LeaderboardPayload struct {
	Leaderboard []entity.LeaderboardEntry `json:"leaderboard"`
}

type PreferencesPayload struct {
	DarkMode bool `json:"dark_mode"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func sendMessage(ctx context.Context, conn *websocket.Conn, action string, payload any) error {
	response := Message{
		Action: action,
	}

	if payload != nil {
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		response.Payload = payloadJSON
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, conn, response); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func decodePayload(msg *Message) (RequestPayload, error) {
	var payload RequestPayload

	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
