// Package persistence implements coordinator.PersistenceAdapter
// against Postgres: the same save/load shape as the teacher's
// PersistenceManager, generalized from SQLite's "INSERT OR REPLACE"
// to Postgres's ON CONFLICT upsert and from a single-struct blob to a
// JSONB column pgx can query if the need ever arises.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizhost/internal/coordinator"
	"quizhost/internal/quiz"
)

// PgAdapter is the Postgres-backed coordinator.PersistenceAdapter.
type PgAdapter struct {
	pool *pgxpool.Pool
}

func NewPgAdapter(pool *pgxpool.Pool) *PgAdapter {
	return &PgAdapter{pool: pool}
}

// Load returns coordinator.ErrNotFound when no row exists for gameID,
// matching the sentinel NewCoordinator checks for.
func (a *PgAdapter) Load(ctx context.Context, gameID string) (*quiz.GameState, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx,
		`SELECT state_data FROM games WHERE game_id = $1`, gameID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, coordinator.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: loading game %s: %w", gameID, err)
	}

	var state quiz.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("persistence: decoding game %s: %w", gameID, err)
	}
	return &state, nil
}

// Save upserts the game's full snapshot as one JSONB blob, on the
// same "whole-struct serialize" philosophy as the teacher's
// PersistenceManager.SaveGame, with game_pin and phase pulled out
// into their own columns for lookup (game_pin carries a unique index).
func (a *PgAdapter) Save(ctx context.Context, gameID string, state *quiz.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("persistence: encoding game %s: %w", gameID, err)
	}

	_, err = a.pool.Exec(ctx, `
		INSERT INTO games (game_id, game_pin, phase, state_data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (game_id) DO UPDATE SET
			game_pin   = EXCLUDED.game_pin,
			phase      = EXCLUDED.phase,
			state_data = EXCLUDED.state_data,
			updated_at = now()
	`, gameID, state.GamePin, string(state.Phase), raw)
	if err != nil {
		return fmt.Errorf("persistence: saving game %s: %w", gameID, err)
	}
	return nil
}

// FindGameIDByPin resolves a join PIN to its game id from the games
// table. The gateway's /join/:pin route does not call it; that route
// resolves PINs through the in-memory PinIndex, which also owns the
// 24h TTL. It never expires a row itself.
func (a *PgAdapter) FindGameIDByPin(ctx context.Context, pin string) (string, error) {
	var gameID string
	err := a.pool.QueryRow(ctx,
		`SELECT game_id FROM games WHERE game_pin = $1`, pin,
	).Scan(&gameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", coordinator.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("persistence: resolving pin %s: %w", pin, err)
	}
	return gameID, nil
}

// LoadAllActive returns the ids of every game not yet in its terminal
// phase, most recently updated first; the caller restarts them on
// startup, mirroring the teacher's LoadAllActiveGames restore-on-boot
// behavior.
func (a *PgAdapter) LoadAllActive(ctx context.Context) ([]string, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT game_id FROM games WHERE phase != $1 ORDER BY updated_at DESC`,
		string(quiz.PhaseFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("persistence: querying active games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("persistence: scanning active game row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterating active games: %w", err)
	}
	return ids, nil
}
