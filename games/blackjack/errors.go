package blackjack

import (
	"errors"
	"fmt"
	"strings"
)

// Every rejection a game operation can produce. All of these are expected,
// recoverable and surfaced to the caller synchronously; none are fatal.
var (
	ErrNoActiveSession       = errors.New("no active game in this chat")
	ErrSessionAlreadyStarted = errors.New("the game has already started")
	ErrSessionFull           = errors.New("the game already has 2 players")
	ErrAlreadyJoined         = errors.New("you are already in this game")
	ErrInsufficientPlayers   = errors.New("the game needs 2 players to start")
	ErrInvalidBet            = errors.New("invalid bet")
	ErrNotYourTurn           = errors.New("it is not your turn")
	ErrNotAParticipant       = errors.New("you are not in this game")
	ErrGameNotStarted        = errors.New("no hand is being played right now")
	ErrGameNotFinished       = errors.New("the game is not finished yet")
	ErrWrongPlayerCount      = errors.New("a rematch needs exactly 2 players")
)

// ShortPlayer names a player whose balance cannot cover their effective bet.
type ShortPlayer struct {
	PlayerID int64
	Name     string
	Need     int64
	Have     int64
}

// InsufficientFundsError is returned by StartGame when one or more players
// cannot cover their effective bet. Nothing is debited and no cards are
// dealt when it is returned.
type InsufficientFundsError struct {
	Short []ShortPlayer
}

func (e *InsufficientFundsError) Error() string {
	names := make([]string, len(e.Short))
	for i, s := range e.Short {
		names[i] = fmt.Sprintf("%s (needs %d, has %d)", s.Name, s.Need, s.Have)
	}
	return "insufficient chips: " + strings.Join(names, ", ")
}
