package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps ledger entries in a chat_ledger table so balances and
// stats survive restarts. It satisfies the same contract as MemoryStore;
// Apply runs the whole batch in one transaction.
type PostgresStore struct {
	pool          *pgxpool.Pool
	startingChips int64
}

// OpenPostgres connects to databaseURL, tunes the pool for a bot workload
// and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string, startingChips int64) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "bjduel-bot",
		"timezone":         "UTC",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	store := &PostgresStore{pool: pool, startingChips: startingChips}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS chat_ledger (
		chat_id BIGINT NOT NULL,
		player_id BIGINT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		balance BIGINT NOT NULL,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		draws INTEGER NOT NULL DEFAULT 0,
		busts INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (chat_id, player_id)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_ledger_wins ON chat_ledger(chat_id, wins DESC);`

	if _, err := ps.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create chat_ledger table: %w", err)
	}
	return nil
}

// Get fetches the entry, inserting a fresh one with the starting balance if
// the player has never been seen in this chat.
func (ps *PostgresStore) Get(ctx context.Context, chatID, playerID int64, name string) (*Entry, error) {
	entry := &Entry{}
	query := `
		INSERT INTO chat_ledger (chat_id, player_id, name, balance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id, player_id)
			DO UPDATE SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE chat_ledger.name END
		RETURNING chat_id, player_id, name, balance, wins, losses, draws, busts, created_at`

	err := ps.pool.QueryRow(ctx, query, chatID, playerID, name, ps.startingChips).Scan(
		&entry.ChatID,
		&entry.PlayerID,
		&entry.Name,
		&entry.Balance,
		&entry.Wins,
		&entry.Losses,
		&entry.Draws,
		&entry.Busts,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

// Apply commits every update in a single transaction.
func (ps *PostgresStore) Apply(ctx context.Context, chatID int64, updates []Update) error {
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE chat_ledger
		SET balance = balance + $3,
		    wins = wins + $4,
		    losses = losses + $5,
		    draws = draws + $6,
		    busts = busts + $7
		WHERE chat_id = $1 AND player_id = $2 AND balance + $3 >= 0`

	for _, u := range updates {
		tag, err := tx.Exec(ctx, query, chatID, u.PlayerID, u.BalanceDelta, u.Wins, u.Losses, u.Draws, u.Busts)
		if err != nil {
			return fmt.Errorf("failed to update ledger entry for player %d: %w", u.PlayerID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("ledger: no entry for player %d in chat %d or balance would go negative", u.PlayerID, chatID)
		}
	}
	return tx.Commit(ctx)
}

// Leaderboard returns the chat's entries ordered by wins descending.
func (ps *PostgresStore) Leaderboard(ctx context.Context, chatID int64, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT chat_id, player_id, name, balance, wins, losses, draws, busts, created_at
		FROM chat_ledger
		WHERE chat_id = $1
		ORDER BY wins DESC, balance DESC, player_id
		LIMIT $2`

	rows, err := ps.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var board []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(
			&entry.ChatID,
			&entry.PlayerID,
			&entry.Name,
			&entry.Balance,
			&entry.Wins,
			&entry.Losses,
			&entry.Draws,
			&entry.Busts,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		board = append(board, entry)
	}
	return board, rows.Err()
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() {
	ps.pool.Close()
}
