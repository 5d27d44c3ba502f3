package handrank

import (
	"testing"

	"holdemsim-server/pkg/deck"

	"github.com/stretchr/testify/assert"
)

func rank(t *testing.T, cards string) Rank {
	t.Helper()

	r, err := Evaluate(deck.CardsFromString(cards))
	assert.NoError(t, err)
	return r
}

func TestEvaluate_categories(t *testing.T) {
	a := assert.New(t)

	a.Equal(HighCard, rank(t, "2c,4d,6h,8s,10c").Category)
	a.Equal(OnePair, rank(t, "2c,2d,6h,8s,10c").Category)
	a.Equal(TwoPair, rank(t, "2c,2d,8h,8s,10c").Category)
	a.Equal(ThreeOfAKind, rank(t, "2c,2d,2h,8s,10c").Category)
	a.Equal(Straight, rank(t, "2c,3d,4h,5s,6c").Category)
	a.Equal(Flush, rank(t, "2c,4c,6c,8c,10c").Category)
	a.Equal(FullHouse, rank(t, "2c,2d,2h,8s,8c").Category)
	a.Equal(FourOfAKind, rank(t, "2c,2d,2h,2s,10c").Category)
	a.Equal(StraightFlush, rank(t, "2c,3c,4c,5c,6c").Category)
}

func TestEvaluate_bestFiveOfSeven(t *testing.T) {
	a := assert.New(t)

	// pair of aces plus a board flush
	r := rank(t, "14c,14d,2h,5h,9h,11h,13h")
	a.Equal(Flush, r.Category)

	// hole cards complete a straight
	r = rank(t, "6c,7d,8h,9s,10c,2d,2h")
	a.Equal(Straight, r.Category)

	// board pair upgrades trips to a full house
	r = rank(t, "9c,9d,9h,4s,4c,13d,2h")
	a.Equal(FullHouse, r.Category)
}

func TestEvaluate_wheel(t *testing.T) {
	a := assert.New(t)

	wheel := rank(t, "14c,2d,3h,4s,5c")
	a.Equal(Straight, wheel.Category)

	sixHigh := rank(t, "2c,3d,4h,5s,6c")
	a.True(sixHigh.Beats(wheel), "six-high straight beats the wheel")

	aceHigh := rank(t, "14c,13d,11h,8s,2c")
	a.Equal(HighCard, aceHigh.Category)
	a.True(wheel.Beats(aceHigh), "wheel beats any high card hand")

	// ace does not wrap around
	notStraight := rank(t, "13c,14d,2h,3s,4c")
	a.NotEqual(Straight, notStraight.Category)
}

func TestEvaluate_tiebreaks(t *testing.T) {
	a := assert.New(t)

	// higher kicker wins within a pair
	pairKing := rank(t, "8c,8d,13h,5s,2c")
	pairQueen := rank(t, "8h,8s,12h,5d,2d")
	a.True(pairKing.Beats(pairQueen))

	// higher second pair wins within two pair
	a.True(rank(t, "10c,10d,9h,9s,2c").Beats(rank(t, "10h,10s,8h,8s,14c")))

	// exact ties split
	a.True(rank(t, "8c,8d,13h,5s,2c").Ties(rank(t, "8h,8s,13d,5c,2d")))

	// full house compares trips before the pair
	a.True(rank(t, "9c,9d,9h,2s,2c").Beats(rank(t, "8c,8d,8h,14s,14c")))
}

func TestEvaluate_totalOrder(t *testing.T) {
	a := assert.New(t)

	hands := []string{
		"2c,4d,6h,8s,10c",
		"14c,13d,11h,8s,2c",
		"2c,2d,6h,8s,10c",
		"14c,14d,6h,8s,10c",
		"2c,2d,8h,8s,10c",
		"2c,2d,2h,8s,10c",
		"14c,2d,3h,4s,5c",
		"2c,3d,4h,5s,6c",
		"10c,11d,12h,13s,14c",
		"2c,4c,6c,8c,10c",
		"2c,2d,2h,8s,8c",
		"2c,2d,2h,2s,10c",
		"2c,3c,4c,5c,6c",
		"10s,11s,12s,13s,14s",
	}

	for i, weaker := range hands {
		for j, stronger := range hands {
			w, s := rank(t, weaker), rank(t, stronger)
			switch {
			case i < j:
				a.True(s.Beats(w), "%s should beat %s", stronger, weaker)
				a.False(w.Beats(s))
			case i == j:
				a.True(w.Ties(s))
			}
		}
	}
}

func TestEvaluate_notEnoughCards(t *testing.T) {
	_, err := Evaluate(deck.CardsFromString("2c,3c,4c,5c"))
	assert.Equal(t, ErrNotEnoughCards, err)
}
