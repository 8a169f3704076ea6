package entity

import "strings"

const (
	DefaultNameX = "Player X"
	DefaultNameO = "Player O"

	// ComputerMark is the mark played by the computer when it is enabled.
	ComputerMark = PlayerO
)

type Player struct {
	Name string `json:"name"`
	Mark Mark   `json:"mark"`
	Bot  bool   `json:"bot,omitempty"`
}

// NewPlayer trims name and falls back to the mark's placeholder when it is blank.
func NewPlayer(name string, mark Mark, bot bool) *Player {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(mark)
	}

	return &Player{
		Name: name,
		Mark: mark,
		Bot:  bot,
	}
}

func DefaultName(mark Mark) string {
	if mark == PlayerO {
		return DefaultNameO
	}
	return DefaultNameX
}

func (that *Player) IsBot() bool {
	return that.Bot
}
