package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"holdemsim-server/pkg/engine"

	"github.com/sirupsen/logrus"
)

// Store persists games, players, actions, and simulator jobs
type Store struct {
	db *sql.DB
}

// New returns a Store backed by the database handle
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ErrConflict is returned when a conditional update lost a race; the caller
// should re-fetch and decide whether the work is still relevant
var ErrConflict = errors.New("conflicting update")

// Hand is the write surface available while a game's row lock is held
type Hand interface {
	Game() *engine.Game
	Players() []*engine.Player
	SaveGame(ctx context.Context, prevHandID int64, prevTurn *int64) error
	SavePlayers(ctx context.Context) error
	AppendAction(ctx context.Context, a *engine.Action) error
	EnqueueJob(ctx context.Context, gameID string, playerID *int64, handID int64, runAt time.Time, payload json.RawMessage) error
}

// HandTx is a transaction holding the row lock for a single game. All
// writes to the game, its players, and its action log go through it, so an
// action is either fully applied or not at all.
type HandTx struct {
	tx      *sql.Tx
	game    *engine.Game
	players []*engine.Player
}

// Game returns the locked game row
func (h *HandTx) Game() *engine.Game {
	return h.game
}

// Players returns the locked player rows in seat order
func (h *HandTx) Players() []*engine.Player {
	return h.players
}

// WithHand runs fn inside a transaction that holds the game's row lock.
// Mutations of a game are serialized through here: two concurrent actions
// against the same turn can never both succeed.
func (s *Store) WithHand(ctx context.Context, gameID string, fn func(h Hand) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	h := &HandTx{tx: tx}

	if h.game, err = gameForUpdate(ctx, tx, gameID); err != nil {
		rollback(tx)
		return err
	}

	if h.players, err = playersForUpdate(ctx, tx, gameID); err != nil {
		rollback(tx)
		return err
	}

	if err := fn(h); err != nil {
		rollback(tx)
		return err
	}

	return tx.Commit()
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logrus.WithError(err).Error("could not rollback transaction")
	}
}
