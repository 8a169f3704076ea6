package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	app "github.com/rocketscienceinc/tictactoe-local/internal"
	"github.com/rocketscienceinc/tictactoe-local/internal/config"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository/storage"
)

var errVolatileStorage = errors.New("leaderboard commands need a persistent storage driver (redis or sqlite)")

type cli struct {
	Config string `short:"c" help:"Configuration file path" default:"config.yml" type:"path"`

	Serve       serveCmd       `cmd:"" default:"1" help:"Run the websocket and HTTP servers"`
	Leaderboard leaderboardCmd `cmd:"" help:"Inspect the persisted leaderboard (needs the redis or sqlite storage driver)"`
}

type serveCmd struct{}

func (that *serveCmd) Run(root *cli) error {
	conf := config.MustLoad(root.Config)
	logger := initLogger(conf)

	return app.RunApp(logger, conf)
}

type leaderboardCmd struct {
	Show  leaderboardShowCmd  `cmd:"" default:"1" help:"Print the ranked leaderboard as JSON"`
	Clear leaderboardClearCmd `cmd:"" help:"Delete every recorded win"`
}

type leaderboardShowCmd struct{}

func (that *leaderboardShowCmd) Run(root *cli) error {
	return withLeaderboard(root.Config, func(ctx context.Context, leaderboard repository.LeaderboardRepository) error {
		entries, err := leaderboard.List(ctx)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(entries)
	})
}

type leaderboardClearCmd struct{}

func (that *leaderboardClearCmd) Run(root *cli) error {
	return withLeaderboard(root.Config, func(ctx context.Context, leaderboard repository.LeaderboardRepository) error {
		if err := leaderboard.Clear(ctx); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "leaderboard cleared")
		return nil
	})
}

func withLeaderboard(path string, fn func(ctx context.Context, leaderboard repository.LeaderboardRepository) error) error {
	conf := config.MustLoad(path)
	if conf.Storage.Driver == storage.DriverMemory || conf.Storage.Driver == "" {
		return errVolatileStorage
	}

	logger := initLogger(conf).With("component", "cli")
	ctx := context.Background()

	store, err := app.OpenStorage(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = store.Close(); err != nil {
			logger.Error("could not close storage", "error", err)
		}
	}()

	return fn(ctx, repository.NewLeaderboardRepository(logger, store))
}

// main - is the entry point of the application. It parses the command line and runs the selected command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	var root cli
	ctx := kong.Parse(&root,
		kong.Name("tictactoe"),
		kong.Description("Local two-player tic-tac-toe with an optional computer opponent."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&root); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
