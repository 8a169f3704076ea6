package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-local/internal/repository/storage"
)

const darkModeKey = "darkMode"

type PreferencesRepository interface {
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, enabled bool) error
}

type dbPreferences struct {
	store storage.KeyValue
}

func NewPreferencesRepository(store storage.KeyValue) PreferencesRepository {
	return &dbPreferences{
		store: store,
	}
}

// DarkMode is enabled only by the exact value "true".
func (that *dbPreferences) DarkMode(ctx context.Context) (bool, error) {
	value, err := that.store.Get(ctx, darkModeKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get dark mode: %w", err)
	}

	return value == "true", nil
}

func (that *dbPreferences) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := that.store.Set(ctx, darkModeKey, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to set dark mode: %w", err)
	}

	return nil
}
