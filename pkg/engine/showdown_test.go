package engine

import (
	"testing"

	"holdemsim-server/pkg/deck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_headsUpAllInSidePot(t *testing.T) {
	a := assert.New(t)
	g, players, rng := testGame(500, 1000)

	// A shoves 500, B re-shoves to 1000. The 500 excess forms a side pot
	// only B can win.
	_, err := Apply(g, players, 1, ActionBet, 500, rng)
	a.NoError(err)

	res, err := Apply(g, players, 2, ActionRaise, 1000, rng)
	require.NoError(t, err)

	// nobody can act, so the board runs out to showdown
	a.True(res.HandComplete)
	a.True(res.Showdown)
	a.True(res.NextHandStarted)

	// main pot is 1000, side pot is 500 and always returns to B
	won := res.Payouts[1] + res.Payouts[2]
	a.Equal(1500, won)
	a.GreaterOrEqual(res.Payouts[2], 500, "B wins at least the uncontested side pot")
	a.True(res.Payouts[1] == 0 || res.Payouts[1]%500 == 0 || res.Payouts[1] == 750,
		"A can only win a share of the main pot, got %d", res.Payouts[1])

	a.Equal(1500, players[0].Stack+players[1].Stack+players[0].CurrentBet+players[1].CurrentBet+g.Pot)
}

// riverGame builds a game already on the river with a known board, so the
// final check resolves a fully deterministic showdown.
func riverGame(community string, pot int) (*Game, []*Player) {
	g := &Game{
		ID:             "11111111-2222-3333-4444-555555555555",
		Status:         StatusActive,
		CurrentRound:   RoundRiver,
		HandID:         7,
		DealerSeat:     2,
		SmallBlind:     25,
		BigBlind:       50,
		Pot:            pot,
		CommunityCards: deck.CardsFromString(community),
	}

	return g, nil
}

func TestApply_showdownSidePots(t *testing.T) {
	a := assert.New(t)

	g, _ := riverGame("2c,7d,9h,11s,13c", 1500)
	players := []*Player{
		// A is all-in for 500 with the best hand
		{ID: 1, Seat: 0, GameID: g.ID, Stack: 0, HandContribution: 500, HoleCards: deck.CardsFromString("14c,14d")},
		// B covered everyone with 1000 in the middle
		{ID: 2, Seat: 1, GameID: g.ID, Stack: 100, HandContribution: 1000, HoleCards: deck.CardsFromString("10c,10d")},
		// C folded; unseen cards stay out of evaluation
		{ID: 3, Seat: 2, GameID: g.ID, Stack: 400, HasFolded: true, HandContribution: 0},
	}
	g.CurrentPlayerTurn = &players[1].ID

	res, err := Apply(g, players, 2, ActionCheck, 0, nil)
	require.NoError(t, err)

	a.True(res.HandComplete)
	a.True(res.Showdown)

	// A's aces win the 1000 main pot; B's side pot of 500 comes back
	a.Equal(1000, res.Payouts[1])
	a.Equal(500, res.Payouts[2])
	a.Equal(0, g.Pot)
}

func TestApply_showdownTieSplitsWithOddChip(t *testing.T) {
	a := assert.New(t)

	g, _ := riverGame("2c,3d,9h,11s,13c", 1001)
	g.DealerSeat = 1
	players := []*Player{
		// A and B hold identical ace-high hands
		{ID: 1, Seat: 0, GameID: g.ID, Stack: 100, HandContribution: 500, HoleCards: deck.CardsFromString("14c,5d")},
		{ID: 2, Seat: 1, GameID: g.ID, Stack: 100, HandContribution: 500, HoleCards: deck.CardsFromString("14d,5c")},
		// C folded a chip into the pot earlier in the hand
		{ID: 3, Seat: 2, GameID: g.ID, Stack: 0, HasFolded: true, HandContribution: 1},
	}
	g.CurrentPlayerTurn = &players[0].ID

	_, err := Apply(g, players, 1, ActionCheck, 0, nil)
	require.NoError(t, err)

	res, err := Apply(g, players, 2, ActionCheck, 0, nil)
	require.NoError(t, err)

	a.True(res.Showdown)

	// 1001 splits 500/500 with the odd chip going to the first tied winner
	// left of the dealer: seat 2 is folded, so seat 0 is first
	a.Equal(501, res.Payouts[1])
	a.Equal(500, res.Payouts[2])
}

func TestBuildPots(t *testing.T) {
	a := assert.New(t)

	players := []*Player{
		{ID: 1, Seat: 0, HandContribution: 500},
		{ID: 2, Seat: 1, HandContribution: 1000},
		{ID: 3, Seat: 2, HandContribution: 1000},
		{ID: 4, Seat: 3, HandContribution: 200, HasFolded: true},
	}

	pots := buildPots(players)
	require.Len(t, pots, 2)

	// main pot: 500 from each live player plus 200 dead money
	a.Equal(1700, pots[0].amount)
	a.Len(pots[0].eligible, 3)

	// side pot: the two larger stacks' excess
	a.Equal(1000, pots[1].amount)
	a.Len(pots[1].eligible, 2)
	a.Equal(int64(2), pots[1].eligible[0].ID)
	a.Equal(int64(3), pots[1].eligible[1].ID)
}

func TestSeatDistance(t *testing.T) {
	a := assert.New(t)

	// dealer at seat 2 of three seats: order is 0, 1, 2
	a.Less(seatDistance(0, 2), seatDistance(1, 2))
	a.Less(seatDistance(1, 2), seatDistance(2, 2))

	// dealer mid-table wraps
	a.Less(seatDistance(2, 1), seatDistance(0, 1))
	a.Less(seatDistance(0, 1), seatDistance(1, 1))
}
