package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"holdemsim-server/pkg/db"
	"holdemsim-server/pkg/deck"
	"holdemsim-server/pkg/engine"

	"github.com/google/uuid"
)

const gameColumns = `
games.id,
games.status,
games.current_round,
games.current_highest_bet,
games.current_player_turn,
games.pot,
games.community_cards,
games.hand_id,
games.dealer_seat,
games.small_blind,
games.big_blind,
games.simulator_config`

func gameByRow(row db.Scanner) (*engine.Game, error) {
	var g engine.Game
	var turn sql.NullInt64
	var community string
	var config []byte

	if err := row.Scan(
		&g.ID,
		&g.Status,
		&g.CurrentRound,
		&g.CurrentHighestBet,
		&turn,
		&g.Pot,
		&community,
		&g.HandID,
		&g.DealerSeat,
		&g.SmallBlind,
		&g.BigBlind,
		&config,
	); err != nil {
		return nil, err
	}

	if turn.Valid {
		g.CurrentPlayerTurn = &turn.Int64
	}

	g.CommunityCards = deck.CardsFromString(community)
	g.SimulatorConfig = config

	return &g, nil
}

// CreateGame creates a new waiting game
func (s *Store) CreateGame(ctx context.Context, smallBlind, bigBlind int, simulatorConfig json.RawMessage) (*engine.Game, error) {
	const query = `
INSERT INTO games (id, status, current_round, small_blind, big_blind, simulator_config)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + gameColumns

	if simulatorConfig == nil {
		simulatorConfig = json.RawMessage(`{}`)
	}

	row := s.db.QueryRowContext(ctx, query,
		uuid.New().String(), engine.StatusWaiting, engine.RoundPreFlop, smallBlind, bigBlind, []byte(simulatorConfig))
	return gameByRow(row)
}

// GetGame returns a game by its ID
func (s *Store) GetGame(ctx context.Context, id string) (*engine.Game, error) {
	const query = `
SELECT ` + gameColumns + `
FROM games
WHERE id = $1`

	return gameByRow(s.db.QueryRowContext(ctx, query, id))
}

// gameForUpdate loads the game under its row lock
func gameForUpdate(ctx context.Context, tx *sql.Tx, id string) (*engine.Game, error) {
	const query = `
SELECT ` + gameColumns + `
FROM games
WHERE id = $1
FOR UPDATE`

	return gameByRow(tx.QueryRowContext(ctx, query, id))
}

// SaveGame writes the game back inside the hand transaction. The update is
// conditional on the hand and turn observed at load time, so a racing writer
// that slipped in first surfaces as ErrConflict instead of a double-apply.
func (h *HandTx) SaveGame(ctx context.Context, prevHandID int64, prevTurn *int64) error {
	const query = `
UPDATE games
SET status = $2,
    current_round = $3,
    current_highest_bet = $4,
    current_player_turn = $5,
    pot = $6,
    community_cards = $7,
    hand_id = $8,
    dealer_seat = $9,
    updated = NOW() AT TIME ZONE 'UTC'
WHERE id = $1
  AND hand_id = $10
  AND current_player_turn IS NOT DISTINCT FROM $11`

	g := h.game

	var turn sql.NullInt64
	if g.CurrentPlayerTurn != nil {
		turn = sql.NullInt64{Int64: *g.CurrentPlayerTurn, Valid: true}
	}

	var prev sql.NullInt64
	if prevTurn != nil {
		prev = sql.NullInt64{Int64: *prevTurn, Valid: true}
	}

	res, err := h.tx.ExecContext(ctx, query,
		g.ID,
		g.Status,
		g.CurrentRound,
		g.CurrentHighestBet,
		turn,
		g.Pot,
		deck.CardsToString(g.CommunityCards),
		g.HandID,
		g.DealerSeat,
		prevHandID,
		prev,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrConflict
	}

	return nil
}
