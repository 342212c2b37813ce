package blackjack

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"bjduel-go/ledger"
)

// testManager builds a manager over an in-memory ledger with the given
// starting chips and a scripted shoe.
func testManager(t *testing.T, startingChips int64, ranks ...string) *Manager {
	t.Helper()
	cfg := Config{DefaultBet: 50}
	if len(ranks) > 0 {
		cfg.Draw = queueDraw(t, ranks...)
	}
	return NewManager(cfg, NewRegistry(), ledger.NewMemoryStore(startingChips), log.New(io.Discard))
}

func setupLobby(t *testing.T, m *Manager, chatID int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := m.NewGame(ctx, chatID); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := m.Join(ctx, chatID, 1, "Alice"); err != nil {
		t.Fatalf("Join(Alice): %v", err)
	}
	if _, err := m.Join(ctx, chatID, 2, "Bob"); err != nil {
		t.Fatalf("Join(Bob): %v", err)
	}
}

func balanceOf(t *testing.T, m *Manager, chatID, playerID int64) int64 {
	t.Helper()
	bal, err := m.Balance(context.Background(), chatID, playerID, "")
	if err != nil {
		t.Fatalf("Balance(%d): %v", playerID, err)
	}
	return bal
}

func TestOperationsWithoutSession(t *testing.T) {
	m := testManager(t, 1000)
	ctx := context.Background()

	if _, err := m.Join(ctx, 7, 1, "Alice"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Join error = %v, want ErrNoActiveSession", err)
	}
	if _, err := m.Status(ctx, 7); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Status error = %v, want ErrNoActiveSession", err)
	}
	if err := m.Cancel(ctx, 7); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Cancel error = %v, want ErrNoActiveSession", err)
	}
}

func TestNewGameReportsReplaced(t *testing.T) {
	m := testManager(t, 1000)
	ctx := context.Background()

	snap, err := m.NewGame(ctx, 7)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if snap.Replaced {
		t.Error("first game must not report a replaced session")
	}

	snap, err = m.NewGame(ctx, 7)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if !snap.Replaced {
		t.Error("replacing an unfinished lobby must set Replaced")
	}
}

func TestStartDebitsBets(t *testing.T) {
	m := testManager(t, 1000, "10", "8", "10", "J")
	ctx := context.Background()
	setupLobby(t, m, 7)

	if _, err := m.SetBet(ctx, 7, 1, 30); err != nil {
		t.Fatalf("SetBet: %v", err)
	}
	snap, err := m.StartGame(ctx, 7)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if snap.Phase != PhaseInProgress {
		t.Errorf("phase = %v, want in progress", snap.Phase)
	}
	// Alice bet 30 explicitly, Bob fell back to the house default of 50.
	if got := balanceOf(t, m, 7, 1); got != 970 {
		t.Errorf("Alice balance = %d, want 970", got)
	}
	if got := balanceOf(t, m, 7, 2); got != 950 {
		t.Errorf("Bob balance = %d, want 950", got)
	}
}

func TestStartInsufficientFunds(t *testing.T) {
	// 40 chips cover Alice's explicit 30 but not Bob's default 50.
	m := testManager(t, 40)
	ctx := context.Background()
	setupLobby(t, m, 7)

	if _, err := m.SetBet(ctx, 7, 1, 30); err != nil {
		t.Fatalf("SetBet: %v", err)
	}
	_, err := m.StartGame(ctx, 7)
	var ife *InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("StartGame error = %v, want InsufficientFundsError", err)
	}
	if len(ife.Short) != 1 || ife.Short[0].PlayerID != 2 {
		t.Errorf("short list = %+v, want only Bob", ife.Short)
	}
	if ife.Short[0].Need != 50 || ife.Short[0].Have != 40 {
		t.Errorf("short detail = %+v, want need 50 have 40", ife.Short[0])
	}

	// Nothing was debited and no cards were dealt.
	if got := balanceOf(t, m, 7, 1); got != 40 {
		t.Errorf("Alice balance after failed start = %d, want 40", got)
	}
	snap, _ := m.Status(ctx, 7)
	if snap.Phase != PhaseBettingOpen {
		t.Errorf("phase after failed start = %v, want betting open", snap.Phase)
	}
	for _, p := range snap.Players {
		if len(p.Cards) != 0 {
			t.Errorf("player %d holds cards after failed start", p.ID)
		}
	}
}

func TestSetBetExceedingBalance(t *testing.T) {
	m := testManager(t, 100)
	ctx := context.Background()
	setupLobby(t, m, 7)

	if _, err := m.SetBet(ctx, 7, 1, 500); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("overdrawn bet error = %v, want ErrInvalidBet", err)
	}
}

func TestFullGameWin(t *testing.T) {
	// Alice 18 vs Bob 20, both stand: Bob takes the 100 pot.
	m := testManager(t, 1000, "10", "8", "10", "J")
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if _, err := m.Act(ctx, 7, 1, ActionStand); err != nil {
		t.Fatalf("Act(Alice): %v", err)
	}
	snap, err := m.Act(ctx, 7, 2, ActionStand)
	if err != nil {
		t.Fatalf("Act(Bob): %v", err)
	}

	if snap.Phase != PhaseSettled {
		t.Fatalf("phase = %v, want settled", snap.Phase)
	}
	if snap.Outcome == nil || snap.Outcome.Kind != OutcomeWin || snap.Outcome.WinnerID != 2 {
		t.Fatalf("outcome = %+v, want Bob winning", snap.Outcome)
	}
	if got := balanceOf(t, m, 7, 2); got != 1050 {
		t.Errorf("winner balance = %d, want 1050", got)
	}
	if got := balanceOf(t, m, 7, 1); got != 950 {
		t.Errorf("loser balance = %d, want 950", got)
	}

	stats, err := m.Stats(ctx, 7, 2, "Bob")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Wins != 1 || stats.Losses != 0 {
		t.Errorf("winner stats = %d wins %d losses, want 1/0", stats.Wins, stats.Losses)
	}
}

func TestFullGameDraw(t *testing.T) {
	// 19 vs 19 refunds both bets.
	m := testManager(t, 1000, "10", "9", "10", "9")
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	m.Act(ctx, 7, 1, ActionStand)
	snap, err := m.Act(ctx, 7, 2, ActionStand)
	if err != nil {
		t.Fatalf("Act: %v", err)
	}

	if snap.Outcome == nil || snap.Outcome.Kind != OutcomeDraw {
		t.Fatalf("outcome = %+v, want draw", snap.Outcome)
	}
	for _, id := range []int64{1, 2} {
		if got := balanceOf(t, m, 7, id); got != 1000 {
			t.Errorf("player %d balance = %d, want refund to 1000", id, got)
		}
	}
}

func TestFullGameBothBust(t *testing.T) {
	// Both hit a king and bust; the pot stays gone.
	m := testManager(t, 1000, "10", "9", "10", "9", "K", "K")
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := m.Act(ctx, 7, 1, ActionHit); err != nil {
		t.Fatalf("Act(Alice): %v", err)
	}
	snap, err := m.Act(ctx, 7, 2, ActionHit)
	if err != nil {
		t.Fatalf("Act(Bob): %v", err)
	}

	if snap.Outcome == nil || snap.Outcome.Kind != OutcomeBothBust {
		t.Fatalf("outcome = %+v, want both bust", snap.Outcome)
	}
	for _, id := range []int64{1, 2} {
		if got := balanceOf(t, m, 7, id); got != 950 {
			t.Errorf("player %d balance = %d, want 950 (pot forfeited)", id, got)
		}
	}
}

func TestCancelKeepsDebits(t *testing.T) {
	m := testManager(t, 1000, "10", "9", "10", "9")
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := m.Cancel(ctx, 7); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := m.Status(ctx, 7); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Status after cancel error = %v, want ErrNoActiveSession", err)
	}
	// No refund on cancel.
	if got := balanceOf(t, m, 7, 1); got != 950 {
		t.Errorf("balance after cancel = %d, want 950", got)
	}
}

func TestRematchFlow(t *testing.T) {
	m := testManager(t, 1000, "10", "8", "10", "J", "10", "8", "10", "J")
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.SetBet(ctx, 7, 1, 200); err != nil {
		t.Fatalf("SetBet: %v", err)
	}
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	m.Act(ctx, 7, 1, ActionStand)
	if _, err := m.Act(ctx, 7, 2, ActionStand); err != nil {
		t.Fatalf("Act: %v", err)
	}

	snap, err := m.Rematch(ctx, 7)
	if err != nil {
		t.Fatalf("Rematch: %v", err)
	}
	if snap.Phase != PhaseBettingOpen {
		t.Errorf("phase after rematch = %v, want betting open", snap.Phase)
	}
	for _, p := range snap.Players {
		if p.Bet != 0 || len(p.Cards) != 0 {
			t.Errorf("player %d not reset after rematch: %+v", p.ID, p)
		}
	}

	// The fresh deal falls back to the default bet for both players.
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame after rematch: %v", err)
	}
	if got := balanceOf(t, m, 7, 1); got != 750 {
		t.Errorf("Alice balance on second deal = %d, want 750", got)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	m := testManager(t, 1000,
		"10", "8", "10", "J", // deal 1: Bob wins
		"10", "8", "10", "J") // deal 2: Bob wins again
	ctx := context.Background()
	setupLobby(t, m, 7)

	for deal := 0; deal < 2; deal++ {
		if _, err := m.StartGame(ctx, 7); err != nil {
			t.Fatalf("StartGame deal %d: %v", deal, err)
		}
		m.Act(ctx, 7, 1, ActionStand)
		if _, err := m.Act(ctx, 7, 2, ActionStand); err != nil {
			t.Fatalf("Act deal %d: %v", deal, err)
		}
		if deal == 0 {
			if _, err := m.Rematch(ctx, 7); err != nil {
				t.Fatalf("Rematch: %v", err)
			}
		}
	}

	board, err := m.Leaderboard(ctx, 7)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("leaderboard has %d entries, want 2", len(board))
	}
	if board[0].PlayerID != 2 || board[0].Wins != 2 {
		t.Errorf("leader = %+v, want Bob with 2 wins", board[0])
	}
	if board[1].PlayerID != 1 || board[1].Losses != 2 {
		t.Errorf("runner-up = %+v, want Alice with 2 losses", board[1])
	}
}

// flakyStore delegates to the memory store until armed, at which point
// Apply starts failing. It simulates the ledger backend going away between
// the start debit and the settlement commit.
type flakyStore struct {
	*ledger.MemoryStore
	failApply bool
}

func (fs *flakyStore) Apply(ctx context.Context, chatID int64, updates []ledger.Update) error {
	if fs.failApply {
		return errors.New("ledger unavailable")
	}
	return fs.MemoryStore.Apply(ctx, chatID, updates)
}

func TestSettlementCommitFailureKeepsHandLive(t *testing.T) {
	store := &flakyStore{MemoryStore: ledger.NewMemoryStore(1000)}
	m := NewManager(
		Config{DefaultBet: 50, Draw: queueDraw(t, "10", "8", "10", "J")},
		NewRegistry(), store, log.New(io.Discard))
	ctx := context.Background()
	setupLobby(t, m, 7)
	if _, err := m.StartGame(ctx, 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := m.Act(ctx, 7, 1, ActionStand); err != nil {
		t.Fatalf("Act(Alice): %v", err)
	}

	// The final stand ends the deal, but the ledger commit fails.
	store.failApply = true
	if _, err := m.Act(ctx, 7, 2, ActionStand); err == nil {
		t.Fatal("Act must surface the failed settlement commit")
	}

	// The session must not have moved to settled and no outcome may leak.
	snap, err := m.Status(ctx, 7)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if snap.Phase != PhaseInProgress {
		t.Errorf("phase after failed commit = %v, want still in progress", snap.Phase)
	}
	if snap.Outcome != nil {
		t.Errorf("outcome visible after failed commit: %+v", snap.Outcome)
	}
	if got := balanceOf(t, m, 7, 2); got != 950 {
		t.Errorf("winner balance after failed commit = %d, want the debited 950", got)
	}

	// Once the store recovers, repeating the stand settles the deal.
	store.failApply = false
	snap, err = m.Act(ctx, 7, 2, ActionStand)
	if err != nil {
		t.Fatalf("Act after recovery: %v", err)
	}
	if snap.Phase != PhaseSettled {
		t.Errorf("phase after recovery = %v, want settled", snap.Phase)
	}
	if got := balanceOf(t, m, 7, 2); got != 1050 {
		t.Errorf("winner balance after recovery = %d, want 1050", got)
	}
}

func TestChatsAreIsolated(t *testing.T) {
	m := testManager(t, 1000)
	ctx := context.Background()

	if _, err := m.NewGame(ctx, 1); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := m.Status(ctx, 2); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("other chat sees a session it never created: %v", err)
	}
}
