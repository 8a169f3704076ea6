package entity

// Scores counts wins per mark within one session.
type Scores map[Mark]int

func NewScores() Scores {
	return Scores{PlayerX: 0, PlayerO: 0}
}

type Session struct {
	Players    map[Mark]*Player `json:"players"`
	Scores     Scores           `json:"scores"`
	Computer   bool             `json:"computer"`
	Generation uint64           `json:"generation"`
}

// NewSession configures two players; with computer enabled O is played by the bot.
func NewSession(nameX, nameO string, computer bool) Session {
	return Session{
		Players: map[Mark]*Player{
			PlayerX: NewPlayer(nameX, PlayerX, false),
			PlayerO: NewPlayer(nameO, PlayerO, computer),
		},
		Scores:   NewScores(),
		Computer: computer,
	}
}

func (that Session) PlayerName(mark Mark) string {
	if player, ok := that.Players[mark]; ok && player != nil {
		return player.Name
	}
	return DefaultName(mark)
}

// IsComputerTurn reports whether the computer plays mark in this session.
func (that Session) IsComputerTurn(mark Mark) bool {
	return that.Computer && mark == ComputerMark
}
