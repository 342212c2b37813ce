// Package ledger keeps the per-chat, per-player chip balances and lifetime
// game statistics. Entries outlive any single game session: cancelling or
// rematching a game never touches them, only start-time debits and
// settlement do.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entry is one player's persistent record within one chat.
type Entry struct {
	ChatID    int64
	PlayerID  int64
	Name      string
	Balance   int64
	Wins      int
	Losses    int
	Draws     int
	Busts     int
	CreatedAt time.Time
}

// Update describes an incremental mutation to a single entry. Balance
// deltas may be negative (start-time debits); counter increments never are.
type Update struct {
	PlayerID     int64
	Name         string
	BalanceDelta int64
	Wins         int
	Losses       int
	Draws        int
	Busts        int
}

// Store is the ledger backend. Get creates the entry on first sight with
// the configured starting balance. Apply commits every update in the batch
// atomically: either all of them land or none do, and no update may drive a
// balance below zero (callers pre-validate bets, so a failure here is a
// programming error, not a user error).
type Store interface {
	Get(ctx context.Context, chatID, playerID int64, name string) (*Entry, error)
	Apply(ctx context.Context, chatID int64, updates []Update) error
	Leaderboard(ctx context.Context, chatID int64, limit int) ([]*Entry, error)
	Close()
}

// MemoryStore is the default process-lifetime Store. It is safe for
// concurrent use across chats; callers already serialize per chat.
type MemoryStore struct {
	startingChips int64

	mu      sync.RWMutex
	entries map[int64]map[int64]*Entry // chatID -> playerID -> entry
}

// NewMemoryStore creates an empty in-memory ledger. Every first-seen
// (chat, player) pair starts with startingChips.
func NewMemoryStore(startingChips int64) *MemoryStore {
	return &MemoryStore{
		startingChips: startingChips,
		entries:       make(map[int64]map[int64]*Entry),
	}
}

// Get returns the entry for (chatID, playerID), creating it lazily. The
// display name is refreshed on every touch so renames show up.
func (ms *MemoryStore) Get(_ context.Context, chatID, playerID int64, name string) (*Entry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := ms.lookup(chatID, playerID)
	if entry == nil {
		entry = &Entry{
			ChatID:    chatID,
			PlayerID:  playerID,
			Name:      name,
			Balance:   ms.startingChips,
			CreatedAt: time.Now(),
		}
		ms.entries[chatID][playerID] = entry
	}
	if name != "" {
		entry.Name = name
	}

	copied := *entry
	return &copied, nil
}

// Apply validates the whole batch against current balances before mutating
// anything, so a bad update leaves the ledger untouched.
func (ms *MemoryStore) Apply(_ context.Context, chatID int64, updates []Update) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	targets := make([]*Entry, len(updates))
	for i, u := range updates {
		entry := ms.lookup(chatID, u.PlayerID)
		if entry == nil {
			return fmt.Errorf("ledger: no entry for player %d in chat %d", u.PlayerID, chatID)
		}
		if entry.Balance+u.BalanceDelta < 0 {
			return fmt.Errorf("ledger: update would drive player %d below zero (balance %d, delta %d)",
				u.PlayerID, entry.Balance, u.BalanceDelta)
		}
		targets[i] = entry
	}

	for i, u := range updates {
		entry := targets[i]
		entry.Balance += u.BalanceDelta
		entry.Wins += u.Wins
		entry.Losses += u.Losses
		entry.Draws += u.Draws
		entry.Busts += u.Busts
		if u.Name != "" {
			entry.Name = u.Name
		}
	}
	return nil
}

// Leaderboard returns the chat's entries ordered by wins descending, ties
// broken by balance then player ID for a stable order.
func (ms *MemoryStore) Leaderboard(_ context.Context, chatID int64, limit int) ([]*Entry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	chat := ms.entries[chatID]
	board := make([]*Entry, 0, len(chat))
	for _, entry := range chat {
		copied := *entry
		board = append(board, &copied)
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].Wins != board[j].Wins {
			return board[i].Wins > board[j].Wins
		}
		if board[i].Balance != board[j].Balance {
			return board[i].Balance > board[j].Balance
		}
		return board[i].PlayerID < board[j].PlayerID
	})

	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// Close is a no-op for the in-memory store.
func (ms *MemoryStore) Close() {}

// lookup returns the live entry or nil, creating the chat bucket as a side
// effect. Callers hold ms.mu.
func (ms *MemoryStore) lookup(chatID, playerID int64) *Entry {
	chat, ok := ms.entries[chatID]
	if !ok {
		chat = make(map[int64]*Entry)
		ms.entries[chatID] = chat
	}
	return chat[playerID]
}
