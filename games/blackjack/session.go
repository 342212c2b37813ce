package blackjack

import (
	"fmt"

	"bjduel-go/ledger"
)

// maxPlayers is fixed: this is a 1v1 duel without a dealer.
const maxPlayers = 2

// PlayerState is one seat in a session.
type PlayerState struct {
	ID     int64
	Name   string
	Hand   []Card
	Bet    int64 // 0 means unset; the house default applies at start
	Stood  bool
	Busted bool
}

// done reports whether the player can no longer act this deal.
func (p *PlayerState) done() bool {
	return p.Stood || p.Busted
}

// Session is one chat's game. It is pure state: it never touches the
// ledger and performs no I/O, so every method runs inside the owning
// chat's critical section without blocking.
type Session struct {
	players []*PlayerState
	turn    int
	phase   Phase
	outcome *Outcome
	draw    func() Card
}

// newSession creates an empty lobby. A nil draw uses the real shoe.
func newSession(draw func() Card) *Session {
	if draw == nil {
		draw = Draw
	}
	return &Session{draw: draw, turn: -1}
}

// Phase returns the session's lifecycle state.
func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) player(id int64) (*PlayerState, int) {
	for i, p := range s.players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// Join seats a player. The lobby moves to betting once both seats fill.
func (s *Session) Join(id int64, name string) error {
	if s.phase == PhaseInProgress || s.phase == PhaseSettled {
		return ErrSessionAlreadyStarted
	}
	if p, _ := s.player(id); p != nil {
		return ErrAlreadyJoined
	}
	if len(s.players) >= maxPlayers {
		return ErrSessionFull
	}

	s.players = append(s.players, &PlayerState{ID: id, Name: name})
	if len(s.players) == maxPlayers {
		s.phase = PhaseBettingOpen
	}
	return nil
}

// SetBet records an explicit wager for the coming deal. The session has no
// ledger access, so the manager reads the player's balance and passes it in;
// all bet validation lives here.
func (s *Session) SetBet(id, amount, balance int64) error {
	if s.phase == PhaseInProgress || s.phase == PhaseSettled {
		return ErrSessionAlreadyStarted
	}
	p, _ := s.player(id)
	if p == nil {
		return ErrNotAParticipant
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBet)
	}
	if amount > balance {
		return fmt.Errorf("%w: %d exceeds your balance of %d", ErrInvalidBet, amount, balance)
	}
	p.Bet = amount
	return nil
}

// checkStartable validates the phase and seat count for a start attempt.
func (s *Session) checkStartable() error {
	if s.phase == PhaseInProgress || s.phase == PhaseSettled {
		return ErrSessionAlreadyStarted
	}
	if len(s.players) < maxPlayers {
		return ErrInsufficientPlayers
	}
	return nil
}

// effectiveBets resolves each seat's wager: the explicit bet if one was
// set, the house default otherwise.
func (s *Session) effectiveBets(defaultBet int64) []int64 {
	bets := make([]int64, len(s.players))
	for i, p := range s.players {
		bets[i] = p.Bet
		if bets[i] == 0 {
			bets[i] = defaultBet
		}
	}
	return bets
}

// start deals the opening hands. The manager has already debited the
// effective bets, so this cannot fail; dealing and the debit together form
// the start transaction.
func (s *Session) start(bets []int64) {
	for i, p := range s.players {
		p.Bet = bets[i]
		p.Hand = []Card{s.draw(), s.draw()}
		p.Stood = false
		p.Busted = false
	}
	s.turn = 0
	s.phase = PhaseInProgress
	s.outcome = nil
}

// Act applies Hit or Stand for the given player. A hit that stays at 21 or
// under keeps the turn with the same player; a stand or a bust passes it
// to the next eligible player. When nobody is left to act, Act returns the
// computed settlement instead of advancing; the manager must commit it to
// the ledger and then call finishSettlement. A rejected action mutates
// nothing.
func (s *Session) Act(id int64, action Action) (*Settlement, error) {
	if s.phase != PhaseInProgress {
		return nil, ErrGameNotStarted
	}
	p, idx := s.player(id)
	if p == nil {
		return nil, ErrNotAParticipant
	}
	if idx != s.turn {
		return nil, ErrNotYourTurn
	}

	switch action {
	case ActionHit:
		p.Hand = append(p.Hand, s.draw())
		if HandScore(p.Hand) > 21 {
			p.Busted = true
		}
	case ActionStand:
		p.Stood = true
	}

	if !p.done() {
		// Same player keeps acting.
		return nil, nil
	}

	next := nextEligible(s.players, s.turn)
	if next < 0 {
		return s.settlement(), nil
	}
	s.turn = next
	return nil, nil
}

// nextEligible returns the index of the first player after from who is
// neither stood nor busted, or -1 when every seat is done. It inspects
// each seat at most once.
func nextEligible(players []*PlayerState, from int) int {
	n := len(players)
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if !players[idx].done() {
			return idx
		}
	}
	return -1
}

// finishSettlement marks the deal settled once the ledger commit went
// through. Settlement state must never be visible before the commit.
func (s *Session) finishSettlement(out Outcome) {
	s.outcome = &out
	s.turn = -1
	s.phase = PhaseSettled
}

// Rematch resets hands, flags and bets for a fresh deal between the same
// two players. Bets are deliberately cleared so each deal re-confirms the
// wager (or falls back to the house default).
func (s *Session) Rematch() error {
	if s.phase != PhaseSettled {
		return ErrGameNotFinished
	}
	if len(s.players) != maxPlayers {
		return ErrWrongPlayerCount
	}
	for _, p := range s.players {
		p.Hand = nil
		p.Bet = 0
		p.Stood = false
		p.Busted = false
	}
	s.turn = -1
	s.outcome = nil
	s.phase = PhaseBettingOpen
	return nil
}

// Snapshot copies the session into a read-only view.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		Phase:   s.phase,
		Players: make([]PlayerView, len(s.players)),
		Turn:    -1,
	}
	if s.phase == PhaseInProgress {
		snap.Turn = s.turn
	}
	if s.outcome != nil {
		out := *s.outcome
		snap.Outcome = &out
	}
	for i, p := range s.players {
		cards := make([]string, len(p.Hand))
		for j, c := range p.Hand {
			cards[j] = c.String()
		}
		snap.Players[i] = PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			Cards:  cards,
			Score:  HandScore(p.Hand),
			Bet:    p.Bet,
			Stood:  p.Stood,
			Busted: p.Busted,
		}
	}
	return snap
}

// Settlement is the computed end of a deal: the outcome for rendering and
// the ledger updates that realize it. The updates must be applied as one
// atomic batch before the session may transition to settled.
type Settlement struct {
	Outcome Outcome
	Updates []ledger.Update
}

// settlement classifies the finished deal.
//
// Both busted: both take a loss and the pot is forfeited. One survivor:
// they win the whole pot. Two survivors: the higher score wins the pot; a
// tie refunds each player their own bet and counts a draw. Every busted
// player's bust counter increments regardless of the hand's outcome.
func (s *Session) settlement() *Settlement {
	a, b := s.players[0], s.players[1]
	pot := a.Bet + b.Bet

	scoreOf := func(p *PlayerState) int { return HandScore(p.Hand) }
	bustBonus := func(p *PlayerState) int {
		if p.Busted {
			return 1
		}
		return 0
	}

	var out Outcome
	var winner, loser *PlayerState

	switch {
	case a.Busted && b.Busted:
		out = Outcome{Kind: OutcomeBothBust, Pot: pot}
	case a.Busted:
		winner, loser = b, a
	case b.Busted:
		winner, loser = a, b
	case scoreOf(a) > scoreOf(b):
		winner, loser = a, b
	case scoreOf(b) > scoreOf(a):
		winner, loser = b, a
	default:
		out = Outcome{Kind: OutcomeDraw, Pot: pot}
	}

	var updates []ledger.Update
	switch {
	case winner != nil:
		out = Outcome{Kind: OutcomeWin, WinnerID: winner.ID, LoserID: loser.ID, Pot: pot}
		updates = []ledger.Update{
			{PlayerID: winner.ID, BalanceDelta: pot, Wins: 1, Busts: bustBonus(winner)},
			{PlayerID: loser.ID, Losses: 1, Busts: bustBonus(loser)},
		}
	case out.Kind == OutcomeDraw:
		updates = []ledger.Update{
			{PlayerID: a.ID, BalanceDelta: a.Bet, Draws: 1},
			{PlayerID: b.ID, BalanceDelta: b.Bet, Draws: 1},
		}
	default: // both bust, pot forfeited
		updates = []ledger.Update{
			{PlayerID: a.ID, Losses: 1, Busts: 1},
			{PlayerID: b.ID, Losses: 1, Busts: 1},
		}
	}

	return &Settlement{Outcome: out, Updates: updates}
}
