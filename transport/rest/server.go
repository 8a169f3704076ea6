package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	logger   *slog.Logger
	handlers *handlers
	gatherer prometheus.Gatherer
}

func New(logger *slog.Logger, leaderboard leaderboardService, preferences preferencesService, gatherer prometheus.Gatherer) *Server {
	log := logger.With("component", "rest")

	return &Server{
		logger:   log,
		handlers: newHandlers(log, leaderboard, preferences),
		gatherer: gatherer,
	}
}

func (that *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)
	router.HandleFunc("/leaderboard", that.handlers.ListLeaderboard).Methods(http.MethodGet)
	router.HandleFunc("/leaderboard", that.handlers.ClearLeaderboard).Methods(http.MethodDelete)
	router.HandleFunc("/preferences", that.handlers.GetPreferences).Methods(http.MethodGet)
	router.HandleFunc("/preferences", that.handlers.UpdatePreferences).Methods(http.MethodPut)

	if that.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}

// Start - starts HTTP server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
