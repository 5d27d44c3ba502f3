package engine

import (
	"fmt"
	"math/rand"

	"holdemsim-server/pkg/deck"
)

// StartGame moves a waiting game into active play and deals the first hand.
// The result reports whether the hand already resolved, which happens when
// the blinds leave no decisions to make.
func StartGame(g *Game, players []*Player, rng *rand.Rand) (*Result, error) {
	if g.Status != StatusWaiting {
		return nil, newValidationError("game already started")
	}

	if len(playersWithChips(players)) < 2 {
		return nil, newValidationError("at least two players with chips are required")
	}

	if g.BigBlind <= 0 {
		return nil, newValidationError("big blind must be greater than zero")
	}

	g.Status = StatusActive

	result := &Result{}
	if err := startHand(g, players, result, rng); err != nil {
		return nil, err
	}

	return result, nil
}

// startHand deals a fresh hand: increments the hand counter, rotates the
// dealer, deals hole cards, and posts the blinds. Players without chips sit
// out as folded for the hand.
func startHand(g *Game, players []*Player, result *Result, rng *rand.Rand) error {
	active := playersWithChips(players)
	if len(active) < 2 {
		return fmt.Errorf("%w: cannot deal a hand with fewer than two stacks", ErrInvariant)
	}

	if g.Pot != 0 {
		return fmt.Errorf("%w: pot is %d at hand start", ErrInvariant, g.Pot)
	}

	g.HandID++
	g.CurrentRound = RoundPreFlop
	g.CurrentHighestBet = 0
	g.CommunityCards = deck.Hand{}

	for _, p := range players {
		p.HoleCards = deck.Hand{}
		p.CurrentBet = 0
		p.HandContribution = 0
		p.HasActed = false
		p.HasFolded = p.Stack == 0
	}

	rotateDealer(g, players)

	d := deck.New()
	d.Shuffle(deckSeed(rng))

	ordered := seatOrder(players)
	for i := 0; i < 2; i++ {
		for _, p := range ordered {
			if p.HasFolded {
				continue
			}

			card, err := d.Draw()
			if err != nil {
				return fmt.Errorf("dealing hole cards: %w", err)
			}

			p.HoleCards.AddCard(card)
		}
	}

	small, big, first := blindSeats(g, players)
	postBlind(small, g.SmallBlind)
	postBlind(big, g.BigBlind)
	g.CurrentHighestBet = big.CurrentBet
	if small.CurrentBet > g.CurrentHighestBet {
		g.CurrentHighestBet = small.CurrentBet
	}

	// the blinds can put all but one stack in the middle, leaving nobody
	// with a decision; the turn must never land on a player who cannot
	// act, so the board runs out to showdown instead
	if countCanAct(players) < 2 {
		g.CurrentPlayerTurn = nil
		return advanceRound(g, players, result, rng)
	}

	g.CurrentPlayerTurn = &first.ID
	return nil
}

// finishHand either rolls into the next hand or completes the game when
// fewer than two players still have chips
func finishHand(g *Game, players []*Player, result *Result, rng *rand.Rand) error {
	if len(playersWithChips(players)) < 2 {
		g.Status = StatusCompleted
		g.CurrentRound = RoundShowdown
		g.CurrentPlayerTurn = nil
		return nil
	}

	result.NextHandStarted = true
	return startHand(g, players, result, rng)
}

// rotateDealer moves the button to the next seat that still has chips
func rotateDealer(g *Game, players []*Player) {
	next := nextActor(players, g.DealerSeat)
	if next != nil {
		g.DealerSeat = next.Seat
	}
}

// blindSeats determines the small blind, big blind, and first player to act
// pre-flop. Heads-up, the dealer posts the small blind and acts first.
func blindSeats(g *Game, players []*Player) (small, big, first *Player) {
	if len(playersWithChips(players)) == 2 {
		small = actorAtOrAfter(players, g.DealerSeat)
		big = nextActor(players, small.Seat)
		return small, big, small
	}

	small = nextActor(players, g.DealerSeat)
	big = nextActor(players, small.Seat)
	first = nextActor(players, big.Seat)
	return small, big, first
}

// actorAtOrAfter returns the player at the seat if they can act, otherwise
// the next player who can
func actorAtOrAfter(players []*Player, seat int) *Player {
	for _, p := range players {
		if p.Seat == seat && p.CanAct() {
			return p
		}
	}

	return nextActor(players, seat)
}

// postBlind posts a forced bet, going all-in if the blind covers the stack
func postBlind(p *Player, amount int) {
	if amount > p.Stack {
		amount = p.Stack
	}

	wager(p, amount)
}

func playersWithChips(players []*Player) []*Player {
	active := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.Stack > 0 {
			active = append(active, p)
		}
	}

	return active
}

// freshDeck builds an unshuffled deck excluding every card already dealt
func freshDeck(g *Game, players []*Player) *deck.Deck {
	exclude := make([]*deck.Card, 0, 5+2*len(players))
	exclude = append(exclude, g.CommunityCards...)
	for _, p := range players {
		exclude = append(exclude, p.HoleCards...)
	}

	return deck.NewWithout(exclude)
}

// deckSeed derives a shuffle seed from the injected rng, or lets the deck
// seed itself from the clock when no rng is configured
func deckSeed(rng *rand.Rand) int64 {
	if rng == nil {
		return 0
	}

	for {
		if seed := rng.Int63(); seed > 0 {
			return seed
		}
	}
}
