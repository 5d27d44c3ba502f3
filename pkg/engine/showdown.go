package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"holdemsim-server/pkg/handrank"
)

// sidePot is a slice of the total pot with its own set of eligible winners,
// formed whenever a player is all-in for less than the final bet level
type sidePot struct {
	amount   int
	eligible []*Player
}

// resolveShowdown evaluates the remaining hands, splits each pot among its
// winners, and pays the chips out. Ties split evenly; remainder chips are
// paid one each in seat order starting left of the dealer.
func resolveShowdown(g *Game, players []*Player, result *Result, rng *rand.Rand) error {
	remaining := nonFoldedPlayers(players)
	if len(remaining) < 2 {
		return fmt.Errorf("%w: showdown with %d players", ErrInvariant, len(remaining))
	}

	ranks := make(map[int64]handrank.Rank, len(remaining))
	for _, p := range remaining {
		cards := append(p.HoleCards.Clone(), g.CommunityCards...)
		rank, err := handrank.Evaluate(cards)
		if err != nil {
			return fmt.Errorf("%w: evaluating player %d: %v", ErrInvariant, p.ID, err)
		}

		ranks[p.ID] = rank
	}

	for _, pot := range buildPots(players) {
		winners := potWinners(pot, ranks)
		if len(winners) == 0 {
			return fmt.Errorf("%w: pot of %d has no winner", ErrInvariant, pot.amount)
		}

		sortBySeatAfterDealer(winners, g.DealerSeat)

		share := pot.amount / len(winners)
		remainder := pot.amount % len(winners)

		for i, winner := range winners {
			won := share
			if i < remainder {
				won++
			}

			winner.Stack += won
			addPayout(result, winner.ID, won)
			g.Pot -= won
		}
	}

	if g.Pot != 0 {
		return fmt.Errorf("%w: %d chips left in the pot after payout", ErrInvariant, g.Pot)
	}

	result.HandComplete = true
	result.Showdown = true

	return finishHand(g, players, result, rng)
}

// buildPots slices the hand's contributions into a main pot and side pots.
// Pot boundaries are the distinct contribution levels of the non-folded
// players; folded contributions are dead money in whichever slice they fall.
func buildPots(players []*Player) []*sidePot {
	levels := make([]int, 0, len(players))
	seen := make(map[int]bool)
	for _, p := range players {
		if !p.HasFolded && p.HandContribution > 0 && !seen[p.HandContribution] {
			seen[p.HandContribution] = true
			levels = append(levels, p.HandContribution)
		}
	}

	sort.Ints(levels)

	pots := make([]*sidePot, 0, len(levels))
	prev := 0
	for _, level := range levels {
		pot := &sidePot{}
		for _, p := range players {
			contribution := p.HandContribution
			if contribution > level {
				contribution = level
			}

			if contribution > prev {
				pot.amount += contribution - prev
			}

			if !p.HasFolded && p.HandContribution >= level {
				pot.eligible = append(pot.eligible, p)
			}
		}

		if pot.amount > 0 {
			pots = append(pots, pot)
		}

		prev = level
	}

	return pots
}

// potWinners returns the eligible players holding the best hand for the pot
func potWinners(pot *sidePot, ranks map[int64]handrank.Rank) []*Player {
	var winners []*Player
	var best handrank.Rank

	for _, p := range pot.eligible {
		rank, ok := ranks[p.ID]
		if !ok {
			continue
		}

		switch {
		case len(winners) == 0 || rank.Beats(best):
			winners = []*Player{p}
			best = rank
		case rank.Ties(best):
			winners = append(winners, p)
		}
	}

	return winners
}

// sortBySeatAfterDealer orders players by seat, wrapping so the first seat
// after the dealer comes first. Used to assign odd chips deterministically.
func sortBySeatAfterDealer(players []*Player, dealerSeat int) {
	sort.Slice(players, func(i, j int) bool {
		return seatDistance(players[i].Seat, dealerSeat) < seatDistance(players[j].Seat, dealerSeat)
	})
}

// seatDistance is how many seats past the dealer a seat is, wrapping around
func seatDistance(seat, dealerSeat int) int {
	const tableSize = 1 << 16

	return ((seat-dealerSeat-1)%tableSize + tableSize) % tableSize
}
