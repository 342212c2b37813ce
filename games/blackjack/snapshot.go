package blackjack

// Phase is the session lifecycle state.
type Phase int

const (
	// PhaseForming accepts joins until two seats are taken.
	PhaseForming Phase = iota
	// PhaseBettingOpen has both seats filled and accepts bets until start.
	PhaseBettingOpen
	// PhaseInProgress is a dealt hand being played out.
	PhaseInProgress
	// PhaseSettled is terminal for the deal; only rematch leaves it.
	PhaseSettled
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseForming:
		return "forming"
	case PhaseBettingOpen:
		return "betting open"
	case PhaseInProgress:
		return "in progress"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Action is a player's move on their turn.
type Action int

const (
	// ActionHit draws one more card.
	ActionHit Action = iota
	// ActionStand ends the player's participation in the deal.
	ActionStand
)

// OutcomeKind classifies how a settled deal ended.
type OutcomeKind int

const (
	// OutcomeWin has a single winner taking the pot.
	OutcomeWin OutcomeKind = iota
	// OutcomeDraw refunds each player their own bet.
	OutcomeDraw
	// OutcomeBothBust forfeits the pot entirely.
	OutcomeBothBust
)

// String returns a human-readable outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWin:
		return "win"
	case OutcomeDraw:
		return "draw"
	case OutcomeBothBust:
		return "both bust"
	default:
		return "unknown"
	}
}

// Outcome summarizes a settled deal.
type Outcome struct {
	Kind     OutcomeKind
	WinnerID int64 // set when Kind == OutcomeWin
	LoserID  int64 // set when Kind == OutcomeWin
	Pot      int64
}

// PlayerView is a read-only copy of one seat.
type PlayerView struct {
	ID     int64
	Name   string
	Cards  []string
	Score  int
	Bet    int64
	Stood  bool
	Busted bool
}

// Snapshot is the read-only session view handed to the external caller
// after every operation. The core never renders text from it.
type Snapshot struct {
	Phase   Phase
	Players []PlayerView
	// Turn is the index into Players of the current mover, or -1 when no
	// hand is being played.
	Turn int
	// Outcome is set once the deal has settled.
	Outcome *Outcome
	// Replaced reports that NewGame threw away an unfinished session.
	Replaced bool
}

// CurrentPlayer returns the view of the player whose turn it is, or nil.
func (s *Snapshot) CurrentPlayer() *PlayerView {
	if s.Turn < 0 || s.Turn >= len(s.Players) {
		return nil
	}
	return &s.Players[s.Turn]
}
