package room

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"holdemsim-server/pkg/engine"
	"holdemsim-server/pkg/events"
	"holdemsim-server/pkg/store"
	"holdemsim-server/pkg/strategy"
	"holdemsim-server/pkg/turntimer"
)

// Store is what the dealer needs from persistence
type Store interface {
	CreateGame(ctx context.Context, smallBlind, bigBlind int, simulatorConfig json.RawMessage) (*engine.Game, error)
	GetGame(ctx context.Context, id string) (*engine.Game, error)
	GetPlayers(ctx context.Context, gameID string) ([]*engine.Player, error)
	AddPlayer(ctx context.Context, gameID string, buyIn int) (*engine.Player, error)
	SetConnected(ctx context.Context, playerID int64, connected bool) error
	WithHand(ctx context.Context, gameID string, fn func(h store.Hand) error) error
}

// Dealer orchestrates a game: it runs actions through the betting engine
// inside the game's row lock, persists the outcome, publishes events, arms
// the turn timeout, and schedules the next bot decision.
type Dealer struct {
	store        Store
	publisher    events.Publisher
	timer        *turntimer.Coordinator
	turnDuration time.Duration
	logger       logrus.FieldLogger
}

// NewDealer returns a new Dealer
func NewDealer(s Store, publisher events.Publisher, timer *turntimer.Coordinator, turnDuration time.Duration, logger logrus.FieldLogger) *Dealer {
	return &Dealer{
		store:        s,
		publisher:    publisher,
		timer:        timer,
		turnDuration: turnDuration,
		logger:       logger,
	}
}

// CreateGame creates a new game in the waiting state. The simulator
// configuration is validated here, at the boundary, and stored opaquely.
func (d *Dealer) CreateGame(ctx context.Context, smallBlind, bigBlind int, simulatorConfig json.RawMessage) (*engine.Game, error) {
	if _, err := strategy.ParseConfig(simulatorConfig); err != nil {
		return nil, err
	}

	return d.store.CreateGame(ctx, smallBlind, bigBlind, simulatorConfig)
}

// Join seats a new player while the game is still waiting
func (d *Dealer) Join(ctx context.Context, gameID string, buyIn int) (*engine.Player, error) {
	g, err := d.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if g.Status != engine.StatusWaiting {
		return nil, errGameAlreadyStarted
	}

	if buyIn <= 0 {
		return nil, errInvalidBuyIn
	}

	return d.store.AddPlayer(ctx, gameID, buyIn)
}

// StartGame deals the first hand and puts the first player on the clock.
// A hand with no decisions to make resolves immediately, so the published
// events can include a showdown before anyone acted.
func (d *Dealer) StartGame(ctx context.Context, gameID string) (*engine.Snapshot, error) {
	var (
		snap   *engine.Snapshot
		result *engine.Result
	)

	err := d.store.WithHand(ctx, gameID, func(h store.Hand) error {
		g, players := h.Game(), h.Players()
		prevHandID, prevTurn := g.HandID, g.CurrentPlayerTurn

		cfg, err := strategy.ParseConfig(g.SimulatorConfig)
		if err != nil {
			return err
		}

		result, err = engine.StartGame(g, players, d.rand(cfg, g))
		if err != nil {
			return err
		}

		if err := h.SaveGame(ctx, prevHandID, prevTurn); err != nil {
			return err
		}

		if err := h.SavePlayers(ctx); err != nil {
			return err
		}

		if err := d.scheduleBot(ctx, h, cfg); err != nil {
			return err
		}

		snap = engine.NewSnapshot(g, players, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.afterTurnChange(gameID, snap)
	d.publish(events.TypeHandStarted, snap, 0)
	d.publishResult(snap, result)
	return snap, nil
}

// ApplyAction runs one player action through the betting engine. It is the
// single write path for human input, bot decisions, and timeouts alike.
func (d *Dealer) ApplyAction(ctx context.Context, gameID string, playerID int64, actionType engine.ActionType, amount int) (*engine.Snapshot, error) {
	var (
		snap   *engine.Snapshot
		result *engine.Result
		before turntimer.TurnKey
	)

	err := d.store.WithHand(ctx, gameID, func(h store.Hand) error {
		g, players := h.Game(), h.Players()
		prevHandID, prevTurn := g.HandID, g.CurrentPlayerTurn
		before = turnKey(g)

		cfg, err := strategy.ParseConfig(g.SimulatorConfig)
		if err != nil {
			return err
		}

		result, err = engine.Apply(g, players, playerID, actionType, amount, d.rand(cfg, g))
		if err != nil {
			return err
		}

		if err := h.AppendAction(ctx, result.Action); err != nil {
			return err
		}

		if err := h.SaveGame(ctx, prevHandID, prevTurn); err != nil {
			return err
		}

		if err := h.SavePlayers(ctx); err != nil {
			return err
		}

		if err := d.scheduleBot(ctx, h, cfg); err != nil {
			return err
		}

		snap = engine.NewSnapshot(g, players, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.timer.Resolve(before)
	d.afterTurnChange(gameID, snap)
	d.publishResult(snap, result)

	return snap, nil
}

// Snapshot returns the game as seen by the viewer
func (d *Dealer) Snapshot(ctx context.Context, gameID string, viewerID int64) (*engine.Snapshot, error) {
	g, err := d.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	players, err := d.store.GetPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return engine.NewSnapshot(g, players, viewerID), nil
}

// SetConnected records a player's connection state
func (d *Dealer) SetConnected(ctx context.Context, playerID int64, connected bool) error {
	return d.store.SetConnected(ctx, playerID, connected)
}

// handleTimeout is the timer callback. It submits a timeout action, which
// the engine turns into a check when legal and a fold otherwise. A conflict
// means the player acted in the meantime, which is not an error.
func (d *Dealer) handleTimeout(key turntimer.TurnKey) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := d.ApplyAction(ctx, key.GameID, key.PlayerID, engine.ActionTimeout, 0); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"gameId":   key.GameID,
			"playerId": key.PlayerID,
		}).Warn("could not apply timeout")
	}
}

// afterTurnChange arms the timeout for whoever now holds the turn
func (d *Dealer) afterTurnChange(gameID string, snap *engine.Snapshot) {
	if snap.CurrentPlayerTurn == nil || snap.Status != engine.StatusActive {
		return
	}

	key := turntimer.TurnKey{
		GameID:   gameID,
		HandID:   snap.HandID,
		PlayerID: *snap.CurrentPlayerTurn,
	}
	d.timer.Observe(key, d.turnDuration, func() {
		d.handleTimeout(key)
	})
}

// ObserveTurn arms the turn timeout on behalf of an event stream subscriber.
// If this observer is the one that armed the timer, the returned cancel
// releases it on teardown; for every later observer the cancel is a no-op
// and the original timer stands.
func (d *Dealer) ObserveTurn(ctx context.Context, gameID string) (func(), error) {
	g, err := d.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if g.Status != engine.StatusActive || g.CurrentPlayerTurn == nil {
		return func() {}, nil
	}

	key := turnKey(g)
	token, armed := d.timer.Observe(key, d.turnDuration, func() {
		d.handleTimeout(key)
	})
	if !armed {
		return func() {}, nil
	}

	return func() {
		d.timer.Cancel(key, token)
	}, nil
}

// scheduleBot enqueues a simulator job inside the hand transaction when a
// bot-controlled seat now holds the turn. The enqueue commits or rolls back
// with the action itself.
func (d *Dealer) scheduleBot(ctx context.Context, h store.Hand, cfg *strategy.Config) error {
	g := h.Game()
	if g.Status != engine.StatusActive || g.CurrentPlayerTurn == nil {
		return nil
	}

	playerID := *g.CurrentPlayerTurn
	if !cfg.Automated(playerID) {
		return nil
	}

	runAt := time.Now().Add(cfg.Delay(d.rand(cfg, g)))
	return h.EnqueueJob(ctx, g.ID, &playerID, g.HandID, runAt, nil)
}

// rand derives the random source for this point in the game. With a
// configured seed the source depends only on the seed, hand, and round, so
// replaying the same actions deals the same cards.
func (d *Dealer) rand(cfg *strategy.Config, g *engine.Game) *rand.Rand {
	if cfg.Seed == 0 {
		return cfg.Rand()
	}

	seed := cfg.Seed ^ (g.HandID << 20) ^ int64(len(g.CommunityCards)+1)
	return rand.New(rand.NewSource(seed))
}

func (d *Dealer) publishResult(snap *engine.Snapshot, result *engine.Result) {
	var lastActionID int64
	if result.Action != nil {
		lastActionID = result.Action.ID
		d.publish(actionEventType(result), snap, lastActionID)
	}

	if result.Showdown {
		d.publish(events.TypeShowdown, snap, lastActionID)
	}

	if result.NextHandStarted {
		d.publish(events.TypeHandStarted, snap, lastActionID)
	}

	if snap.Status == engine.StatusCompleted {
		d.publish(events.TypeGameEnded, snap, lastActionID)
	}

	d.publish(events.TypeStateUpdated, snap, lastActionID)
}

func (d *Dealer) publish(eventType events.Type, snap *engine.Snapshot, lastActionID int64) {
	payload, err := json.Marshal(snap)
	if err != nil {
		d.logger.WithError(err).Error("could not marshal snapshot")
		return
	}

	d.publisher.Publish(snap.GameID, events.Event{
		Type:         eventType,
		GameID:       snap.GameID,
		LastActionID: lastActionID,
		UpdatedAt:    time.Now(),
		Payload:      payload,
	})
}

// actionEventType maps the applied action to its event. A timeout has
// already resolved to a check or a fold by the time it gets here.
func actionEventType(result *engine.Result) events.Type {
	switch result.Resolved {
	case engine.ActionBet:
		return events.TypeBetPlaced
	case engine.ActionCall:
		return events.TypeCallMade
	case engine.ActionRaise:
		return events.TypeRaiseMade
	case engine.ActionFold:
		return events.TypePlayerFolded
	}

	return events.TypeCheckMade
}

func turnKey(g *engine.Game) turntimer.TurnKey {
	key := turntimer.TurnKey{GameID: g.ID, HandID: g.HandID}
	if g.CurrentPlayerTurn != nil {
		key.PlayerID = *g.CurrentPlayerTurn
	}

	return key
}
