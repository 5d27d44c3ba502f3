package engine

import (
	"fmt"
	"math/rand"
	"sort"
)

// Result describes what an applied action did to the game
type Result struct {
	// Action is the record to append to the action log
	Action *Action

	// RoundAdvanced is true if the betting round completed
	RoundAdvanced bool

	// Resolved is the action that was actually applied. It differs from
	// Action.Type only when a timeout was converted into a check or a fold.
	Resolved ActionType

	// HandComplete is true if the hand ended, either by folds or at showdown
	HandComplete bool

	// Showdown is true if the hand was resolved by evaluating hands
	Showdown bool

	// Payouts maps player ID to chips won, set when HandComplete is true
	Payouts map[int64]int

	// NextHandStarted is true if a fresh hand was dealt after this one completed
	NextHandStarted bool
}

// Apply validates and applies a single betting action for the player.
// On success the game and players are mutated in place and a Result is
// returned; on a ValidationError nothing is changed. The rng is only used
// when the action completes a round and community cards must be dealt.
func Apply(g *Game, players []*Player, playerID int64, actionType ActionType, amount int, rng *rand.Rand) (*Result, error) {
	if g.Status != StatusActive {
		return nil, newValidationError("game is not active")
	}

	if g.CurrentPlayerTurn == nil || g.CurrentRound == RoundShowdown {
		return nil, newValidationError("no player is on the clock")
	}

	if *g.CurrentPlayerTurn != playerID {
		return nil, newValidationError("it is not your turn")
	}

	actor := playerByID(players, playerID)
	if actor == nil {
		return nil, ErrPlayerNotInGame
	}

	if actor.HasFolded {
		return nil, newValidationError("you already folded")
	}

	chipsBefore := chipTotal(g, players)

	recordedType := actionType
	recordedAmount := 0

	if actionType == ActionTimeout {
		// a timed-out player checks when legal, otherwise folds. A player
		// with no chips behind has no decision left and never folds.
		if actor.CurrentBet == g.CurrentHighestBet || actor.Stack == 0 {
			actionType = ActionCheck
		} else {
			actionType = ActionFold
		}
	}

	switch actionType {
	case ActionCheck:
		if actor.CurrentBet < g.CurrentHighestBet && actor.Stack > 0 {
			return nil, newValidationError("you cannot check with an active bet of %d", g.CurrentHighestBet)
		}

		actor.HasActed = true
	case ActionFold:
		actor.HasFolded = true
	case ActionCall:
		shortfall := g.CurrentHighestBet - actor.CurrentBet
		if shortfall <= 0 {
			return nil, newValidationError("you cannot call without an active bet")
		}

		// calling with a short stack puts the player all-in
		if shortfall > actor.Stack {
			shortfall = actor.Stack
		}

		wager(actor, shortfall)
		recordedAmount = shortfall
		actor.HasActed = true
	case ActionBet:
		if g.CurrentHighestBet > 0 {
			return nil, newValidationError("you cannot bet with an active bet; raise instead")
		}

		if amount > actor.Stack {
			return nil, newValidationError("bet of %d exceeds your stack of %d", amount, actor.Stack)
		}

		if amount < g.BigBlind && amount != actor.Stack {
			return nil, newValidationError("bet must be at least %d", g.BigBlind)
		}

		if amount <= 0 {
			return nil, newValidationError("bet must be greater than zero")
		}

		wager(actor, amount)
		g.CurrentHighestBet = actor.CurrentBet
		recordedAmount = amount
		startNewBettingCycle(players, actor)
	case ActionRaise:
		if g.CurrentHighestBet == 0 {
			return nil, newValidationError("you cannot raise without an active bet; bet instead")
		}

		if amount <= g.CurrentHighestBet {
			return nil, newValidationError("your raise to %d must be greater than the current bet of %d", amount, g.CurrentHighestBet)
		}

		toWager := amount - actor.CurrentBet
		if toWager > actor.Stack {
			return nil, newValidationError("raise of %d exceeds your stack of %d", toWager, actor.Stack)
		}

		// a raise must be at least one big blind more, unless it puts the player all-in
		if amount < g.CurrentHighestBet+g.BigBlind && toWager != actor.Stack {
			return nil, newValidationError("raise must be to at least %d", g.CurrentHighestBet+g.BigBlind)
		}

		wager(actor, toWager)
		g.CurrentHighestBet = actor.CurrentBet
		recordedAmount = amount
		startNewBettingCycle(players, actor)
	default:
		return nil, newValidationError("%s is not a valid action", actionType)
	}

	result := &Result{
		Action: &Action{
			GameID:   g.ID,
			PlayerID: playerID,
			Type:     recordedType,
			Amount:   recordedAmount,
		},
		Resolved: actionType,
	}

	if err := advanceGame(g, players, actor, result, rng); err != nil {
		return nil, err
	}

	if chipsAfter := chipTotal(g, players); chipsAfter != chipsBefore {
		return nil, fmt.Errorf("%w: chip total changed from %d to %d", ErrInvariant, chipsBefore, chipsAfter)
	}

	return result, nil
}

// advanceGame decides what happens after a successfully applied action:
// hand over by folds, round completion, or simply the next player's turn.
func advanceGame(g *Game, players []*Player, actor *Player, result *Result, rng *rand.Rand) error {
	remaining := nonFoldedPlayers(players)
	if len(remaining) == 0 {
		return fmt.Errorf("%w: no players remain in the hand", ErrInvariant)
	}

	// hand ends without evaluation when only one player remains
	if len(remaining) == 1 {
		sweepBets(g, players)
		addPayout(result, remaining[0].ID, g.Pot)
		remaining[0].Stack += g.Pot
		g.Pot = 0

		result.HandComplete = true
		return finishHand(g, players, result, rng)
	}

	if roundComplete(g, players) {
		result.RoundAdvanced = true
		return advanceRound(g, players, result, rng)
	}

	next := nextActor(players, actor.Seat)
	if next == nil {
		return fmt.Errorf("%w: betting continues but no player can act", ErrInvariant)
	}

	g.CurrentPlayerTurn = &next.ID
	return nil
}

// roundComplete returns true when every non-folded player who still has chips
// has acted since the last bet or raise and all active contributions are equal
func roundComplete(g *Game, players []*Player) bool {
	for _, p := range players {
		if !p.CanAct() {
			continue
		}

		if !p.HasActed || p.CurrentBet != g.CurrentHighestBet {
			return false
		}
	}

	return true
}

// advanceRound sweeps bets into the pot and moves to the next round, dealing
// community cards as needed. Rounds with fewer than two players able to act
// are skipped so an all-in board runs out to showdown.
func advanceRound(g *Game, players []*Player, result *Result, rng *rand.Rand) error {
	for {
		sweepBets(g, players)

		next, ok := g.CurrentRound.Next()
		if !ok {
			return fmt.Errorf("%w: cannot advance past %s", ErrInvariant, g.CurrentRound)
		}

		g.CurrentRound = next

		if next == RoundShowdown {
			g.CurrentPlayerTurn = nil
			return resolveShowdown(g, players, result, rng)
		}

		if err := dealCommunity(g, players, rng); err != nil {
			return err
		}

		if countCanAct(players) >= 2 {
			break
		}
	}

	first := nextActor(players, g.DealerSeat)
	if first == nil {
		return fmt.Errorf("%w: new round started with no actor", ErrInvariant)
	}

	g.CurrentPlayerTurn = &first.ID
	return nil
}

// dealCommunity brings the board up to the card count for the current round.
// The deck is rebuilt excluding every card already dealt, so a draw can never
// duplicate a hole or board card.
func dealCommunity(g *Game, players []*Player, rng *rand.Rand) error {
	want := g.CurrentRound.CommunityCount() - len(g.CommunityCards)
	if want <= 0 {
		return nil
	}

	d := freshDeck(g, players)
	d.Shuffle(deckSeed(rng))

	for i := 0; i < want; i++ {
		card, err := d.Draw()
		if err != nil {
			return fmt.Errorf("dealing community cards: %w", err)
		}

		g.CommunityCards.AddCard(card)
	}

	return nil
}

// sweepBets moves every player's round contribution into the pot
func sweepBets(g *Game, players []*Player) {
	for _, p := range players {
		if p.CurrentBet > 0 {
			g.Pot += p.CurrentBet
			p.HandContribution += p.CurrentBet
			p.CurrentBet = 0
		}

		p.HasActed = false
	}

	g.CurrentHighestBet = 0
}

// wager moves chips from the player's stack into their round contribution
func wager(p *Player, amount int) {
	p.Stack -= amount
	p.CurrentBet += amount
}

// startNewBettingCycle marks the aggressor as acted and reopens the action
// for everyone else who can still make a decision
func startNewBettingCycle(players []*Player, aggressor *Player) {
	for _, p := range players {
		p.HasActed = p.ID == aggressor.ID
	}
}

// nextActor returns the next player in seat order after the given seat who
// can still act, wrapping around the table. Returns nil if nobody can.
func nextActor(players []*Player, afterSeat int) *Player {
	ordered := seatOrder(players)
	n := len(ordered)

	start := 0
	for i, p := range ordered {
		if p.Seat > afterSeat {
			start = i
			break
		}

		if i == n-1 {
			start = 0
		}
	}

	for i := 0; i < n; i++ {
		p := ordered[(start+i)%n]
		if p.CanAct() {
			return p
		}
	}

	return nil
}

// seatOrder returns the players sorted by seat
func seatOrder(players []*Player) []*Player {
	ordered := make([]*Player, len(players))
	copy(ordered, players)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Seat < ordered[j].Seat
	})

	return ordered
}

func playerByID(players []*Player, id int64) *Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func nonFoldedPlayers(players []*Player) []*Player {
	remaining := make([]*Player, 0, len(players))
	for _, p := range players {
		if !p.HasFolded {
			remaining = append(remaining, p)
		}
	}

	return remaining
}

func countCanAct(players []*Player) int {
	count := 0
	for _, p := range players {
		if p.CanAct() {
			count++
		}
	}

	return count
}

// addPayout credits chips won to the result, accumulating across a hand that
// rolls straight into another resolved hand
func addPayout(result *Result, playerID int64, amount int) {
	if result.Payouts == nil {
		result.Payouts = make(map[int64]int)
	}

	result.Payouts[playerID] += amount
}

// chipTotal is the conserved quantity: no action may create or destroy chips
func chipTotal(g *Game, players []*Player) int {
	total := g.Pot
	for _, p := range players {
		total += p.Stack + p.CurrentBet
	}

	return total
}
