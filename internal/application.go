package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rocketscienceinc/tictactoe-local/internal/config"
	"github.com/rocketscienceinc/tictactoe-local/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository"
	"github.com/rocketscienceinc/tictactoe-local/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-local/internal/scheduler"
	"github.com/rocketscienceinc/tictactoe-local/internal/service"
	"github.com/rocketscienceinc/tictactoe-local/transport/rest"
	"github.com/rocketscienceinc/tictactoe-local/transport/websocket"
)

// OpenStorage - opens the key-value store selected in the config.
func OpenStorage(ctx context.Context, conf *config.Config) (storage.KeyValue, error) {
	store, err := storage.New(ctx, storage.Options{
		Driver:     conf.Storage.Driver,
		RedisAddr:  conf.Redis.GetRedisAddr(),
		SQLitePath: conf.Storage.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %q storage: %w", conf.Storage.Driver, err)
	}

	return store, nil
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, err := OpenStorage(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = store.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	leaderboardRepo := repository.NewLeaderboardRepository(logger, store)
	preferencesRepo := repository.NewPreferencesRepository(store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	taskScheduler, err := scheduler.New(logger)
	if err != nil {
		return err
	}
	taskScheduler.Start()

	defer func() {
		if err = taskScheduler.Stop(); err != nil {
			log.Error("could not stop scheduler", "error", err)
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, leaderboardRepo, preferencesRepo, registry)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "storage", conf.Storage.Driver)
		wsServer := websocket.New(logger, websocket.Options{
			Leaderboard:    leaderboardRepo,
			Preferences:    preferencesRepo,
			Scheduler:      taskScheduler,
			Bot:            service.NewBotService(nil),
			Metrics:        recorder,
			ComputerDelay:  conf.Game.ComputerDelay,
			AllowedOrigins: conf.AllowedOrigins,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
