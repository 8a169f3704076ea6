package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-local/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
)

func (that *Server) handleSessionStart(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendError(ctx, c, "malformed payload")
		return err
	}

	c.controller.StartSession(payload.PlayerX, payload.PlayerO, payload.Computer)

	if err = that.sendLeaderboard(ctx, c); err != nil {
		return fmt.Errorf("failed to send leaderboard: %w", err)
	}

	return nil
}

// handleGameMove ignores illegal moves, the client just keeps the last state it got.
func (that *Server) handleGameMove(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendError(ctx, c, "malformed payload")
		return err
	}

	if payload.Cell == nil {
		that.sendError(ctx, c, "cell is required")
		return nil
	}

	_, err = c.controller.ApplyMove(ctx, *payload.Cell)
	if isIgnoredMove(err) {
		c.logger.Debug("move ignored", "cell", *payload.Cell, "reason", err)
		return nil
	}

	return err
}

func (that *Server) handleGameRestart(_ context.Context, c *client, _ *Message) error {
	c.controller.Restart()
	return nil
}

func (that *Server) handleLeaderboardGet(ctx context.Context, c *client, _ *Message) error {
	return that.sendLeaderboard(ctx, c)
}

func (that *Server) handleLeaderboardClear(ctx context.Context, c *client, _ *Message) error {
	if err := that.opts.Leaderboard.Clear(ctx); err != nil {
		that.sendError(ctx, c, "failed to clear leaderboard")
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}

	c.logger.Info("leaderboard cleared")

	return that.sendLeaderboard(ctx, c)
}

func (that *Server) handleDarkMode(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendError(ctx, c, "malformed payload")
		return err
	}

	if err = that.opts.Preferences.SetDarkMode(ctx, payload.Enabled); err != nil {
		that.sendError(ctx, c, "failed to save preferences")
		return fmt.Errorf("failed to set dark mode: %w", err)
	}

	return that.sendPreferences(ctx, c)
}

func (that *Server) sendLeaderboard(ctx context.Context, c *client) error {
	entries, err := that.opts.Leaderboard.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list leaderboard: %w", err)
	}

	return sendMessage(ctx, c.conn, ActionLeaderboard, LeaderboardPayload{Leaderboard: entries})
}

// sendPreferences falls back to light mode when the store cannot be read.
func (that *Server) sendPreferences(ctx context.Context, c *client) error {
	darkMode, err := that.opts.Preferences.DarkMode(ctx)
	if err != nil {
		c.logger.Warn("failed to read dark mode", "error", err)
		darkMode = false
	}

	return sendMessage(ctx, c.conn, ActionPreferences, PreferencesPayload{DarkMode: darkMode})
}

func isIgnoredMove(err error) bool {
	return errors.Is(err, apperror.ErrGameNotActive) ||
		errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, entity.ErrInvalidCell)
}
