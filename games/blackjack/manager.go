package blackjack

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"bjduel-go/ledger"
)

// Config tunes a Manager.
type Config struct {
	// DefaultBet is the house wager applied at start to any player who
	// never set one explicitly.
	DefaultBet int64
	// Draw overrides the shoe; tests inject deterministic cards here.
	// Nil means the real uniform draw.
	Draw func() Card
}

// Manager exposes the per-chat operation surface: one method per command
// or button the external dispatcher can deliver. Every operation on a chat
// runs inside that chat's exclusive critical section, which also covers
// the chat's ledger entries, so at most one mutation is ever in flight per
// chat while distinct chats proceed concurrently.
type Manager struct {
	cfg   Config
	reg   *Registry
	store ledger.Store
	log   *log.Logger
}

// NewManager wires the injected stores together. Nothing here is global;
// construct once in main and pass the handle around.
func NewManager(cfg Config, reg *Registry, store ledger.Store, logger *log.Logger) *Manager {
	if cfg.DefaultBet <= 0 {
		cfg.DefaultBet = 50
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{cfg: cfg, reg: reg, store: store, log: logger}
}

// NewGame replaces the chat's session with a fresh lobby. The snapshot
// reports whether an unfinished game was discarded so the caller can warn
// the chat instead of losing it silently.
func (m *Manager) NewGame(ctx context.Context, chatID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		replaced := cs.session != nil && cs.session.Phase() != PhaseSettled
		cs.session = newSession(m.cfg.Draw)
		snap = cs.session.Snapshot()
		snap.Replaced = replaced
		m.log.Info("new game created", "chat", chatID, "replaced", replaced)
		return nil
	})
	return snap, err
}

// Join seats a player in the chat's lobby and lazily creates their ledger
// entry so balance checks and later settlement have something to act on.
func (m *Manager) Join(ctx context.Context, chatID, playerID int64, name string) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		if err := cs.session.Join(playerID, name); err != nil {
			return err
		}
		if _, err := m.store.Get(ctx, chatID, playerID, name); err != nil {
			return fmt.Errorf("ledger lookup failed: %w", err)
		}
		snap = cs.session.Snapshot()
		m.log.Debug("player joined", "chat", chatID, "player", playerID, "name", name)
		return nil
	})
	return snap, err
}

// SetBet records an explicit wager after checking it against the player's
// current balance.
func (m *Manager) SetBet(ctx context.Context, chatID, playerID, amount int64) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		entry, err := m.store.Get(ctx, chatID, playerID, "")
		if err != nil {
			return fmt.Errorf("ledger lookup failed: %w", err)
		}
		if err := cs.session.SetBet(playerID, amount, entry.Balance); err != nil {
			return err
		}
		snap = cs.session.Snapshot()
		m.log.Debug("bet set", "chat", chatID, "player", playerID, "amount", amount)
		return nil
	})
	return snap, err
}

// StartGame resolves effective bets, debits both players and deals the
// opening hands as one all-or-nothing transaction. If any player cannot
// cover their bet, nothing is debited, no cards are dealt, and the error
// names everyone who is short.
func (m *Manager) StartGame(ctx context.Context, chatID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		s := cs.session
		if err := s.checkStartable(); err != nil {
			return err
		}

		bets := s.effectiveBets(m.cfg.DefaultBet)

		var short []ShortPlayer
		updates := make([]ledger.Update, len(s.players))
		for i, p := range s.players {
			entry, err := m.store.Get(ctx, chatID, p.ID, p.Name)
			if err != nil {
				return fmt.Errorf("ledger lookup failed: %w", err)
			}
			if bets[i] > entry.Balance {
				short = append(short, ShortPlayer{PlayerID: p.ID, Name: p.Name, Need: bets[i], Have: entry.Balance})
			}
			updates[i] = ledger.Update{PlayerID: p.ID, Name: p.Name, BalanceDelta: -bets[i]}
		}
		if len(short) > 0 {
			return &InsufficientFundsError{Short: short}
		}

		if err := m.store.Apply(ctx, chatID, updates); err != nil {
			return fmt.Errorf("failed to debit bets: %w", err)
		}
		s.start(bets)
		snap = s.Snapshot()
		m.log.Info("game started", "chat", chatID, "bets", bets)
		return nil
	})
	return snap, err
}

// Act plays a Hit or Stand for the given player. When the action ends the
// deal, the settlement is committed to the ledger atomically before the
// session transitions to settled; a commit failure leaves the session in
// progress and surfaces as an internal-consistency error.
func (m *Manager) Act(ctx context.Context, chatID, playerID int64, action Action) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		s := cs.session

		settle, err := s.Act(playerID, action)
		if err != nil {
			return err
		}
		if settle != nil {
			if err := m.store.Apply(ctx, chatID, settle.Updates); err != nil {
				return fmt.Errorf("settlement commit failed: %w", err)
			}
			s.finishSettlement(settle.Outcome)
			m.log.Info("game settled", "chat", chatID,
				"outcome", settle.Outcome.Kind, "pot", settle.Outcome.Pot)
		}
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Status returns a read-only view of the chat's session.
func (m *Manager) Status(ctx context.Context, chatID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		snap = cs.session.Snapshot()
		return nil
	})
	return snap, err
}

// Cancel removes the chat's session entirely. Bets already debited at
// start are not refunded; the ledger is untouched.
func (m *Manager) Cancel(ctx context.Context, chatID int64) error {
	return m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		cs.session = nil
		m.log.Info("game cancelled", "chat", chatID)
		return nil
	})
}

// Rematch resets a settled session for another deal between the same
// players, returning it to the betting phase.
func (m *Manager) Rematch(ctx context.Context, chatID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		if cs.session == nil {
			return ErrNoActiveSession
		}
		if err := cs.session.Rematch(); err != nil {
			return err
		}
		snap = cs.session.Snapshot()
		m.log.Info("rematch", "chat", chatID)
		return nil
	})
	return snap, err
}

// Balance reports the player's chip balance, creating their ledger entry
// with the starting amount on first sight.
func (m *Manager) Balance(ctx context.Context, chatID, playerID int64, name string) (int64, error) {
	var balance int64
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		entry, err := m.store.Get(ctx, chatID, playerID, name)
		if err != nil {
			return fmt.Errorf("ledger lookup failed: %w", err)
		}
		balance = entry.Balance
		return nil
	})
	return balance, err
}

// Stats returns the player's lifetime counters for this chat.
func (m *Manager) Stats(ctx context.Context, chatID, playerID int64, name string) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		e, err := m.store.Get(ctx, chatID, playerID, name)
		if err != nil {
			return fmt.Errorf("ledger lookup failed: %w", err)
		}
		entry = e
		return nil
	})
	return entry, err
}

// Leaderboard lists the chat's players ordered by wins descending.
func (m *Manager) Leaderboard(ctx context.Context, chatID int64) ([]*ledger.Entry, error) {
	var board []*ledger.Entry
	err := m.reg.withChat(chatID, func(cs *chatState) error {
		b, err := m.store.Leaderboard(ctx, chatID, 10)
		if err != nil {
			return fmt.Errorf("ledger lookup failed: %w", err)
		}
		board = b
		return nil
	})
	return board, err
}
