package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
	"github.com/rocketscienceinc/tictactoe-local/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-local/internal/scheduler"
	"github.com/rocketscienceinc/tictactoe-local/internal/tictactoe"
	"nhooyr.io/websocket"
)

type leaderboardRepository interface {
	Increment(ctx context.Context, name string) (int, error)
	List(ctx context.Context) ([]entity.LeaderboardEntry, error)
	Clear(ctx context.Context) error
}

type preferencesRepository interface {
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, enabled bool) error
}

type taskScheduler interface {
	After(delay time.Duration, task func()) (scheduler.CancelFunc, error)
}

type botService interface {
	ChooseCell(board entity.Board) (int, error)
}

type Options struct {
	Leaderboard    leaderboardRepository
	Preferences    preferencesRepository
	Scheduler      taskScheduler
	Bot            botService
	Metrics        *metrics.Recorder
	ComputerDelay  time.Duration
	AllowedOrigins []string
}

type handlerFunc func(ctx context.Context, client *client, msg *Message) error

// client is one browser connection with its own local game.
type client struct {
	id         string
	conn       *websocket.Conn
	controller *tictactoe.GameController
	logger     *slog.Logger
}

type Server struct {
	logger *slog.Logger
	opts   Options

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, opts Options) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		opts:   opts,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[ActionSessionStart] = server.handleSessionStart
	server.handlers[ActionGameMove] = server.handleGameMove
	server.handlers[ActionGameRestart] = server.handleGameRestart
	server.handlers[ActionLeaderboardGet] = server.handleLeaderboardGet
	server.handlers[ActionLeaderboardClear] = server.handleLeaderboardClear
	server.handlers[ActionDarkMode] = server.handleDarkMode

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWebSocket)
	return mux
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWebSocket - upgrades the connection and runs one local game on it.
func (that *Server) serveWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	conn, err := websocket.Accept(writer, req, &websocket.AcceptOptions{
		OriginPatterns: that.opts.AllowedOrigins,
	})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
	}
	c.logger = log.With("client", c.id)
	c.controller = that.newController(ctx, c)

	that.opts.Metrics.ConnectionOpened()
	c.logger.Info("WebSocket connection established")

	defer func() {
		c.controller.Close()
		that.opts.Metrics.ConnectionClosed()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		c.logger.Info("WebSocket connection closed")
	}()

	if err = that.sendGreeting(ctx, c); err != nil {
		c.logger.Error("failed to send greeting", "error", err)
		return
	}

	if err = that.handleMessages(ctx, c); err != nil {
		c.logger.Error("error handling messages", "error", err)
	}
}

func (that *Server) newController(ctx context.Context, c *client) *tictactoe.GameController {
	return tictactoe.NewGameController(c.logger, tictactoe.Options{
		Leaderboard:   that.opts.Leaderboard,
		Bot:           that.opts.Bot,
		Scheduler:     that.opts.Scheduler,
		Metrics:       that.opts.Metrics,
		ComputerDelay: that.opts.ComputerDelay,
		Render: func(snapshot tictactoe.Snapshot) {
			if err := sendMessage(ctx, c.conn, ActionGameState, StatePayload{State: snapshot}); err != nil {
				c.logger.Warn("failed to send game state", "error", err)
				return
			}

			if snapshot.Game.Status == entity.StatusWon {
				if err := that.sendLeaderboard(ctx, c); err != nil {
					c.logger.Warn("failed to send leaderboard", "error", err)
				}
			}
		},
		// playback errors on the client side never reach us
		Sound: func() {
			_ = sendMessage(ctx, c.conn, ActionSoundMove, nil)
		},
	})
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			default:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("failed to read message: %w", err)
			}
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			c.logger.Warn("failed to unmarshal message", "error", err)
			that.sendError(ctx, c, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			c.logger.Warn("unknown action", "action", message.Action)
			that.sendError(ctx, c, "unknown action: "+message.Action)
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			c.logger.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sendGreeting(ctx context.Context, c *client) error {
	if err := that.sendPreferences(ctx, c); err != nil {
		return err
	}

	if err := that.sendLeaderboard(ctx, c); err != nil {
		return err
	}

	return sendMessage(ctx, c.conn, ActionGameState, StatePayload{State: c.controller.Snapshot()})
}

func (that *Server) sendError(ctx context.Context, c *client, reason string) {
	if err := sendMessage(ctx, c.conn, ActionError, ErrorPayload{Error: reason}); err != nil {
		c.logger.Warn("failed to send error", "error", err)
	}
}
