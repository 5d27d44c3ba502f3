package store

import (
	"context"
	"database/sql"

	"holdemsim-server/pkg/db"
	"holdemsim-server/pkg/deck"
	"holdemsim-server/pkg/engine"
)

const playerColumns = `
players.id,
players.game_id,
players.seat,
players.stack,
players.hole_cards,
players.current_bet,
players.hand_contribution,
players.has_folded,
players.has_acted,
players.is_connected`

func playerByRow(row db.Scanner) (*engine.Player, error) {
	var p engine.Player
	var holeCards string

	if err := row.Scan(
		&p.ID,
		&p.GameID,
		&p.Seat,
		&p.Stack,
		&holeCards,
		&p.CurrentBet,
		&p.HandContribution,
		&p.HasFolded,
		&p.HasActed,
		&p.IsConnected,
	); err != nil {
		return nil, err
	}

	p.HoleCards = deck.CardsFromString(holeCards)

	return &p, nil
}

// AddPlayer seats a new player at the game with the given buy-in. Seats are
// assigned in join order.
func (s *Store) AddPlayer(ctx context.Context, gameID string, buyIn int) (*engine.Player, error) {
	const query = `
INSERT INTO players (game_id, seat, stack)
SELECT $1, COALESCE(MAX(seat) + 1, 0), $2
FROM players
WHERE game_id = $1
RETURNING ` + playerColumns

	return playerByRow(s.db.QueryRowContext(ctx, query, gameID, buyIn))
}

// GetPlayers returns the players seated at the game in seat order
func (s *Store) GetPlayers(ctx context.Context, gameID string) ([]*engine.Player, error) {
	return queryPlayers(ctx, s.db.QueryContext, gameID, "")
}

// playersForUpdate loads the game's players under their row locks
func playersForUpdate(ctx context.Context, tx *sql.Tx, gameID string) ([]*engine.Player, error) {
	return queryPlayers(ctx, tx.QueryContext, gameID, "FOR UPDATE")
}

type queryContextFn func(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

func queryPlayers(ctx context.Context, queryContext queryContextFn, gameID, suffix string) ([]*engine.Player, error) {
	query := `
SELECT ` + playerColumns + `
FROM players
WHERE game_id = $1
ORDER BY seat ` + suffix

	rows, err := queryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*engine.Player, 0)
	for rows.Next() {
		p, err := playerByRow(rows)
		if err != nil {
			return nil, err
		}

		players = append(players, p)
	}

	return players, rows.Err()
}

// SavePlayers writes every player's state back inside the hand transaction
func (h *HandTx) SavePlayers(ctx context.Context) error {
	const query = `
UPDATE players
SET stack = $2,
    hole_cards = $3,
    current_bet = $4,
    hand_contribution = $5,
    has_folded = $6,
    has_acted = $7,
    is_connected = $8
WHERE id = $1`

	stmt, err := h.tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range h.players {
		if _, err := stmt.ExecContext(ctx,
			p.ID,
			p.Stack,
			deck.CardsToString(p.HoleCards),
			p.CurrentBet,
			p.HandContribution,
			p.HasFolded,
			p.HasActed,
			p.IsConnected,
		); err != nil {
			return err
		}
	}

	return nil
}

// SetConnected flips a player's connected flag
func (s *Store) SetConnected(ctx context.Context, playerID int64, connected bool) error {
	const query = `
UPDATE players
SET is_connected = $2
WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, playerID, connected)
	return err
}
