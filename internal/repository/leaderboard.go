package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository/storage"
)

const leaderboardKey = "leaderboard"

type LeaderboardRepository interface {
	Increment(ctx context.Context, name string) (int, error)
	GetAll(ctx context.Context) (map[string]int, error)
	List(ctx context.Context) ([]entity.LeaderboardEntry, error)
	Clear(ctx context.Context) error
}

type dbLeaderboard struct {
	logger *slog.Logger
	store  storage.KeyValue

	// serialises read-modify-write within the process
	mu sync.Mutex
}

func NewLeaderboardRepository(logger *slog.Logger, store storage.KeyValue) LeaderboardRepository {
	return &dbLeaderboard{
		logger: logger.With("component", "leaderboard"),
		store:  store,
	}
}

// Increment adds one win for name and returns the new count.
func (that *dbLeaderboard) Increment(ctx context.Context, name string) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	wins, err := that.load(ctx)
	if err != nil {
		return 0, err
	}

	wins[name]++

	leaderboardJSON, err := json.Marshal(wins)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal leaderboard: %w", err)
	}

	if err = that.store.Set(ctx, leaderboardKey, string(leaderboardJSON)); err != nil {
		return 0, fmt.Errorf("failed to save leaderboard: %w", err)
	}

	return wins[name], nil
}

func (that *dbLeaderboard) GetAll(ctx context.Context) (map[string]int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.load(ctx)
}

func (that *dbLeaderboard) List(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	wins, err := that.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return entity.RankLeaderboard(wins), nil
}

func (that *dbLeaderboard) Clear(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.store.Remove(ctx, leaderboardKey); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}

	return nil
}

// load never fails on absent or malformed data, it starts over with an empty board instead.
func (that *dbLeaderboard) load(ctx context.Context) (map[string]int, error) {
	response, err := that.store.Get(ctx, leaderboardKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return make(map[string]int), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	var wins map[string]int
	if err = json.Unmarshal([]byte(response), &wins); err != nil || wins == nil {
		that.logger.Warn("malformed leaderboard, starting empty", "error", err)
		return make(map[string]int), nil
	}

	return wins, nil
}
