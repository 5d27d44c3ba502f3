package store

import (
	"context"

	"holdemsim-server/pkg/db"
	"holdemsim-server/pkg/engine"
)

const actionColumns = `
actions.id,
actions.game_id,
actions.player_id,
actions.action_type,
actions.amount,
actions.created`

func actionByRow(row db.Scanner) (*engine.Action, error) {
	var a engine.Action

	if err := row.Scan(
		&a.ID,
		&a.GameID,
		&a.PlayerID,
		&a.Type,
		&a.Amount,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &a, nil
}

// AppendAction appends to the game's action log inside the hand transaction
// and fills in the generated ID and timestamp. The log is append-only; rows
// are never updated or deleted.
func (h *HandTx) AppendAction(ctx context.Context, a *engine.Action) error {
	const query = `
INSERT INTO actions (game_id, player_id, action_type, amount)
VALUES ($1, $2, $3, $4)
RETURNING id, created`

	row := h.tx.QueryRowContext(ctx, query, a.GameID, a.PlayerID, a.Type, a.Amount)
	return row.Scan(&a.ID, &a.CreatedAt)
}

// GetActions returns the game's action history, oldest first
func (s *Store) GetActions(ctx context.Context, gameID string, limit int) ([]*engine.Action, error) {
	const query = `
SELECT ` + actionColumns + `
FROM actions
WHERE game_id = $1
ORDER BY id
LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]*engine.Action, 0)
	for rows.Next() {
		a, err := actionByRow(rows)
		if err != nil {
			return nil, err
		}

		actions = append(actions, a)
	}

	return actions, rows.Err()
}
