package strategy

import (
	"math/rand"

	"holdemsim-server/pkg/engine"
)

// human abstains from every turn
type human struct{}

func (human) Decide(_ *engine.Snapshot, _ int64) (*Decision, error) {
	return nil, nil
}

// callAny checks when it can and calls everything else
type callAny struct{}

func (callAny) Decide(snap *engine.Snapshot, playerID int64) (*Decision, error) {
	if snap.ToCall(playerID) == 0 {
		return &Decision{Type: engine.ActionCheck}, nil
	}

	return &Decision{Type: engine.ActionCall}, nil
}

// tightCaller checks when free and calls only cheap bets, up to two big
// blinds, folding to anything larger.
type tightCaller struct{}

func (tightCaller) Decide(snap *engine.Snapshot, playerID int64) (*Decision, error) {
	toCall := snap.ToCall(playerID)
	if toCall == 0 {
		return &Decision{Type: engine.ActionCheck}, nil
	}

	if toCall <= snap.BigBlind*2 {
		return &Decision{Type: engine.ActionCall}, nil
	}

	return &Decision{Type: engine.ActionFold}, nil
}

// aggressor opens for two big blinds and min-raises any bet it faces,
// calling only when its stack cannot cover a legal raise.
type aggressor struct{}

func (aggressor) Decide(snap *engine.Snapshot, playerID int64) (*Decision, error) {
	p := snap.Viewer(playerID)
	if p == nil {
		return nil, engine.ErrPlayerNotInGame
	}

	if snap.CurrentHighestBet == 0 {
		amount := snap.BigBlind * 2
		if amount > p.Stack {
			amount = p.Stack
		}

		return &Decision{Type: engine.ActionBet, Amount: amount}, nil
	}

	raiseTo := snap.CurrentHighestBet + snap.BigBlind
	wager := raiseTo - p.CurrentBet
	if wager >= p.Stack {
		return &Decision{Type: engine.ActionCall}, nil
	}

	return &Decision{Type: engine.ActionRaise, Amount: raiseTo}, nil
}

// random picks uniformly between the passive and aggressive legal options
type random struct {
	rng *rand.Rand
}

func (s *random) Decide(snap *engine.Snapshot, playerID int64) (*Decision, error) {
	p := snap.Viewer(playerID)
	if p == nil {
		return nil, engine.ErrPlayerNotInGame
	}

	toCall := snap.ToCall(playerID)
	if toCall == 0 {
		if s.rng.Intn(2) == 0 {
			return &Decision{Type: engine.ActionCheck}, nil
		}

		amount := snap.BigBlind
		if amount > p.Stack {
			amount = p.Stack
		}

		if snap.CurrentHighestBet > 0 {
			// big blind option: raising requires a to-amount
			raiseTo := snap.CurrentHighestBet + snap.BigBlind
			if raiseTo-p.CurrentBet >= p.Stack {
				return &Decision{Type: engine.ActionCheck}, nil
			}

			return &Decision{Type: engine.ActionRaise, Amount: raiseTo}, nil
		}

		return &Decision{Type: engine.ActionBet, Amount: amount}, nil
	}

	switch s.rng.Intn(3) {
	case 0:
		return &Decision{Type: engine.ActionFold}, nil
	case 1:
		return &Decision{Type: engine.ActionCall}, nil
	}

	raiseTo := snap.CurrentHighestBet + snap.BigBlind
	if raiseTo-p.CurrentBet >= p.Stack {
		return &Decision{Type: engine.ActionCall}, nil
	}

	return &Decision{Type: engine.ActionRaise, Amount: raiseTo}, nil
}
