package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rocketscienceinc/tictactoe-local/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestWithLeaderboard(t *testing.T) {
	t.Run("Memory driver is refused", func(t *testing.T) {
		// Given: the default in-process store
		path := writeConfig(t, "log-level: error\nstorage:\n  driver: memory\n")

		called := false

		// When
		err := withLeaderboard(path, func(context.Context, repository.LeaderboardRepository) error {
			called = true
			return nil
		})

		// Then: nothing runs against a store that dies with the process
		require.ErrorIs(t, err, errVolatileStorage)
		assert.False(t, called)
	})

	t.Run("SQLite keeps wins between runs", func(t *testing.T) {
		path := writeConfig(t, "log-level: error\nstorage:\n  driver: sqlite\n  sqlite-path: scores.db\n")

		// Given: a win recorded by one run
		err := withLeaderboard(path, func(ctx context.Context, leaderboard repository.LeaderboardRepository) error {
			_, err := leaderboard.Increment(ctx, "Alice")
			return err
		})
		require.NoError(t, err)

		// When: a later run reads the leaderboard
		var wins map[string]int
		err = withLeaderboard(path, func(ctx context.Context, leaderboard repository.LeaderboardRepository) error {
			var getErr error
			wins, getErr = leaderboard.GetAll(ctx)
			return getErr
		})

		// Then
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Alice": 1}, wins)
	})
}
