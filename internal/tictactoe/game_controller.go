package tictactoe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-local/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
	"github.com/rocketscienceinc/tictactoe-local/internal/scheduler"
	"github.com/rocketscienceinc/tictactoe-local/internal/service"
)

const DefaultComputerDelay = 500 * time.Millisecond

type leaderboardRepository interface {
	Increment(ctx context.Context, name string) (int, error)
}

type botService interface {
	ChooseCell(board entity.Board) (int, error)
}

type taskScheduler interface {
	After(delay time.Duration, task func()) (scheduler.CancelFunc, error)
}

type metricsRecorder interface {
	IncMove(mark string, computer bool)
	IncOutcome(outcome string)
	IncSession()
	IncDroppedComputerMove()
}

// RenderFunc receives the state after every accepted change. It runs while the
// controller is locked and must not call back into it.
type RenderFunc func(snapshot Snapshot)

// SoundFunc is fired after every accepted move.
type SoundFunc func()

type Snapshot struct {
	Game     entity.Game            `json:"game"`
	Players  map[entity.Mark]string `json:"players"`
	Scores   entity.Scores          `json:"scores"`
	Computer bool                   `json:"computer"`
	Message  string                 `json:"message"`
}

type Options struct {
	Leaderboard   leaderboardRepository
	Bot           botService
	Scheduler     taskScheduler
	Metrics       metricsRecorder
	Render        RenderFunc
	Sound         SoundFunc
	ComputerDelay time.Duration
}

// GameController owns one local session: board, turn, scores and the pending computer move.
type GameController struct {
	logger *slog.Logger

	leaderboard   leaderboardRepository
	bot           botService
	scheduler     taskScheduler
	metrics       metricsRecorder
	render        RenderFunc
	sound         SoundFunc
	computerDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	game    entity.Game
	session entity.Session
	pending scheduler.CancelFunc
	closed  bool
}

func NewGameController(logger *slog.Logger, opts Options) *GameController {
	ctx, cancel := context.WithCancel(context.Background())

	controller := &GameController{
		logger: logger.With("component", "game_controller"),

		leaderboard:   opts.Leaderboard,
		bot:           opts.Bot,
		scheduler:     opts.Scheduler,
		metrics:       opts.Metrics,
		render:        opts.Render,
		sound:         opts.Sound,
		computerDelay: opts.ComputerDelay,

		ctx:    ctx,
		cancel: cancel,

		game:    entity.NewGame(),
		session: entity.NewSession("", "", false),
	}

	if controller.bot == nil {
		controller.bot = service.NewBotService(nil)
	}
	if controller.metrics == nil {
		controller.metrics = noopMetrics{}
	}
	if controller.render == nil {
		controller.render = func(Snapshot) {}
	}
	if controller.sound == nil {
		controller.sound = func() {}
	}

	return controller
}

// StartSession configures new players and zeroes the score tally.
func (that *GameController) StartSession(nameX, nameO string, computer bool) Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelPendingLocked()

	generation := that.session.Generation + 1
	that.session = entity.NewSession(nameX, nameO, computer)
	that.session.Generation = generation
	that.game = entity.StartedGame()

	that.metrics.IncSession()
	that.logger.Info("session started",
		"player_x", that.session.PlayerName(entity.PlayerX),
		"player_o", that.session.PlayerName(entity.PlayerO),
		"computer", computer)

	return that.renderLocked()
}

// Restart clears the board but keeps names and scores.
func (that *GameController) Restart() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelPendingLocked()

	that.session.Generation++
	that.game = entity.StartedGame()

	that.logger.Debug("game restarted", "generation", that.session.Generation)

	return that.renderLocked()
}

// ApplyMove plays cell for the human whose turn it is. Rejected moves leave the
// state untouched and return the reason.
func (that *GameController) ApplyMove(ctx context.Context, cell int) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game.IsOngoing() && that.session.IsComputerTurn(that.game.Turn) {
		return that.snapshotLocked(), apperror.ErrNotYourTurn
	}

	if err := that.applyMoveLocked(ctx, cell, false); err != nil {
		return that.snapshotLocked(), err
	}

	return that.snapshotLocked(), nil
}

// ComputerMove plays a random empty cell for whoever is to move.
func (that *GameController) ComputerMove(ctx context.Context) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.computerMoveLocked(ctx); err != nil {
		return that.snapshotLocked(), err
	}

	return that.snapshotLocked(), nil
}

func (that *GameController) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

// Close cancels any pending computer move.
func (that *GameController) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	that.cancelPendingLocked()
	that.cancel()
}

func (that *GameController) computerMoveLocked(ctx context.Context) error {
	if !that.game.IsOngoing() {
		return apperror.ErrGameNotActive
	}

	cell, err := that.bot.ChooseCell(that.game.Board)
	if err != nil {
		return fmt.Errorf("computer failed to choose a cell: %w", err)
	}

	return that.applyMoveLocked(ctx, cell, true)
}

func (that *GameController) applyMoveLocked(ctx context.Context, cell int, computer bool) error {
	mark := that.game.Turn

	next, err := entity.MakeTurn(that.game, cell)
	if err != nil {
		return err
	}

	that.game = next
	that.metrics.IncMove(string(mark), computer)
	that.sound()

	switch next.Status {
	case entity.StatusWon:
		that.session.Scores[next.Winner]++
		that.metrics.IncOutcome(string(next.Winner))
		that.recordWin(ctx, that.session.PlayerName(next.Winner))
	case entity.StatusDraw:
		that.metrics.IncOutcome("draw")
	case entity.StatusOngoing:
		if that.session.IsComputerTurn(next.Turn) {
			that.scheduleComputerMoveLocked()
		}
	}

	that.renderLocked()

	return nil
}

// recordWin keeps playing when the leaderboard store fails.
func (that *GameController) recordWin(ctx context.Context, name string) {
	log := that.logger.With("method", "recordWin")

	if that.leaderboard == nil {
		return
	}

	wins, err := that.leaderboard.Increment(ctx, name)
	if err != nil {
		log.Error("failed to update leaderboard", "player", name, "error", err)
		return
	}

	log.Info("player won", "player", name, "wins", wins)
}

func (that *GameController) scheduleComputerMoveLocked() {
	log := that.logger.With("method", "scheduleComputerMove")

	if that.closed {
		return
	}

	that.cancelPendingLocked()

	if that.scheduler == nil {
		that.computerMoveNowLocked()
		return
	}

	generation := that.session.Generation
	cancel, err := that.scheduler.After(that.computerDelay, func() {
		that.runScheduledComputerMove(generation)
	})
	if err != nil {
		log.Error("failed to schedule computer move, moving now", "error", err)
		that.computerMoveNowLocked()
		return
	}

	that.pending = cancel
}

// computerMoveNowLocked keeps the game from waiting on a move nobody will play.
func (that *GameController) computerMoveNowLocked() {
	if err := that.computerMoveLocked(that.ctx); err != nil {
		that.logger.Error("computer move failed", "method", "computerMoveNow", "error", err)
	}
}

// runScheduledComputerMove drops the move when the game it was scheduled for is gone.
func (that *GameController) runScheduledComputerMove(generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "runScheduledComputerMove")

	if that.closed || generation != that.session.Generation ||
		!that.game.IsOngoing() || !that.session.IsComputerTurn(that.game.Turn) {
		that.metrics.IncDroppedComputerMove()
		log.Debug("dropping stale computer move", "generation", generation, "current", that.session.Generation)
		return
	}

	that.pending = nil

	if err := that.computerMoveLocked(that.ctx); err != nil && !errors.Is(err, apperror.ErrGameNotActive) {
		log.Error("computer move failed", "error", err)
	}
}

func (that *GameController) cancelPendingLocked() {
	if that.pending != nil {
		that.pending()
		that.pending = nil
	}
}

func (that *GameController) renderLocked() Snapshot {
	snapshot := that.snapshotLocked()
	that.render(snapshot)
	return snapshot
}

func (that *GameController) snapshotLocked() Snapshot {
	scores := make(entity.Scores, len(that.session.Scores))
	for mark, score := range that.session.Scores {
		scores[mark] = score
	}

	return Snapshot{
		Game: that.game,
		Players: map[entity.Mark]string{
			entity.PlayerX: that.session.PlayerName(entity.PlayerX),
			entity.PlayerO: that.session.PlayerName(entity.PlayerO),
		},
		Scores:   scores,
		Computer: that.session.Computer,
		Message:  that.messageLocked(),
	}
}

func (that *GameController) messageLocked() string {
	switch that.game.Status {
	case entity.StatusOngoing:
		return that.session.PlayerName(that.game.Turn) + "'s turn"
	case entity.StatusWon:
		return that.session.PlayerName(that.game.Winner) + " wins! 🎉"
	case entity.StatusDraw:
		return "It's a draw!"
	default:
		return ""
	}
}

type noopMetrics struct{}

func (noopMetrics) IncMove(string, bool)    {}
func (noopMetrics) IncOutcome(string)       {}
func (noopMetrics) IncSession()             {}
func (noopMetrics) IncDroppedComputerMove() {}
