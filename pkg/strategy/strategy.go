package strategy

import (
	"fmt"
	"math/rand"

	"holdemsim-server/pkg/engine"
)

// ID selects a strategy implementation
type ID string

// known strategies
const (
	Human       ID = "human"
	CallAny     ID = "call-any"
	TightCaller ID = "tight-caller"
	Aggressor   ID = "aggressor"
	Random      ID = "random"
)

// Valid returns true for a known strategy ID
func (id ID) Valid() bool {
	switch id {
	case Human, CallAny, TightCaller, Aggressor, Random:
		return true
	}

	return false
}

// Decision is a proposed action. It is always re-validated by the betting
// engine before being applied.
type Decision struct {
	Type   engine.ActionType
	Amount int
}

// Strategy decides what a bot should do when it holds the turn. A nil
// decision with a nil error means the strategy abstains and a human must act.
type Strategy interface {
	Decide(snap *engine.Snapshot, playerID int64) (*Decision, error)
}

// New returns the strategy for the ID. Strategies with a random component
// draw from rng, which the caller seeds for reproducible play.
func New(id ID, rng *rand.Rand) (Strategy, error) {
	switch id {
	case Human:
		return human{}, nil
	case CallAny:
		return callAny{}, nil
	case TightCaller:
		return tightCaller{}, nil
	case Aggressor:
		return aggressor{}, nil
	case Random:
		return &random{rng: rng}, nil
	}

	return nil, fmt.Errorf("unknown strategy: %s", id)
}
