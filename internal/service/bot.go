package service

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

type BotService interface {
	ChooseCell(board entity.Board) (int, error)
}

type botService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBotService(rnd *rand.Rand) BotService {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63())) //nolint: gosec // it's ok
	}

	return &botService{
		rnd: rnd,
	}
}

// ChooseCell picks uniformly among the empty cells of board.
func (that *botService) ChooseCell(board entity.Board) (int, error) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return availableCells[that.rnd.Intn(len(availableCells))], nil
}
