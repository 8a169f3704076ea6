package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-local/internal/apperror"
)

type Mark string

type Status string

const (
	StatusInactive Status = "inactive"
	StatusOngoing  Status = "ongoing"
	StatusWon      Status = "won"
	StatusDraw     Status = "draw"

	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
	EmptyCell Mark = ""
)

var (
	ErrInvalidCell = errors.New("invalid cell index")

	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board is a 3x3 grid in row-major order.
type Board [9]Mark

type Game struct {
	Board  Board  `json:"board"`
	Winner Mark   `json:"winner,omitempty"`
	Status Status `json:"status"`
	Turn   Mark   `json:"player_turn"`
}

// NewGame returns a game that accepts no moves until it is started.
func NewGame() Game {
	return Game{
		Turn:   PlayerX,
		Status: StatusInactive,
	}
}

// StartedGame returns an empty board with X to play.
func StartedGame() Game {
	return Game{
		Turn:   PlayerX,
		Status: StatusOngoing,
	}
}

// Opponent returns the other mark.
func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// CheckWin reports whether mark fills at least one winning triple.
func (that Board) CheckWin(mark Mark) bool {
	if mark == EmptyCell {
		return false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return true
		}
	}

	return false
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

func (that Board) EmptyCells() []int {
	cells := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func (that Board) Count(mark Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}
	return count
}

func (that Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that Game) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}

// MakeTurn places the current mark on cell and returns the resulting game.
// A rejected move returns the game unchanged together with the reason.
func MakeTurn(game Game, cell int) (Game, error) {
	if !game.IsOngoing() {
		return game, apperror.ErrGameNotActive
	}

	if cell < 0 || cell >= len(game.Board) {
		return game, fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if game.Board[cell] != EmptyCell {
		return game, apperror.ErrCellOccupied
	}

	next := game
	next.Board[cell] = game.Turn

	switch {
	case next.Board.CheckWin(game.Turn):
		next.Status = StatusWon
		next.Winner = game.Turn
	case next.Board.IsFull():
		next.Status = StatusDraw
	default:
		next.Turn = game.Turn.Opponent()
	}

	return next, nil
}
