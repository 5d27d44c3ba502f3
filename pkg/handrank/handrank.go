package handrank

import (
	"errors"
	"sort"

	"holdemsim-server/pkg/deck"
)

// ErrNotEnoughCards is an error when fewer than five cards are evaluated
var ErrNotEnoughCards = errors.New("at least five cards are required")

// Rank is the comparable strength of the best five-card hand in a set of cards.
// Comparison is by Strength(): the category always dominates, and within a
// category the tiebreak encodes the deciding ranks as five 4-bit nibbles,
// most significant first. Equal strengths denote a split-eligible tie.
type Rank struct {
	Category Category
	Tiebreak int
}

// Strength returns a single comparable value for the rank
func (r Rank) Strength() int {
	return int(r.Category)<<20 | r.Tiebreak
}

// Beats returns true if r is strictly stronger than other
func (r Rank) Beats(other Rank) bool {
	return r.Strength() > other.Strength()
}

// Ties returns true if the two ranks are exactly equal
func (r Rank) Ties(other Rank) bool {
	return r.Strength() == other.Strength()
}

func (r Rank) String() string {
	return r.Category.String()
}

// Evaluate returns the rank of the best five-card hand that can be made from
// the cards (hole cards plus community). Deterministic and side effect-free.
func Evaluate(cards []*deck.Card) (Rank, error) {
	if len(cards) < 5 {
		return Rank{}, ErrNotEnoughCards
	}

	var best Rank
	found := false

	combo := make([]*deck.Card, 5)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			r := rankFive(combo)
			if !found || r.Beats(best) {
				best = r
				found = true
			}
			return
		}

		for i := start; i <= len(cards)-(5-depth); i++ {
			combo[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)

	return best, nil
}

// rankFive ranks exactly five cards
func rankFive(cards []*deck.Card) Rank {
	ranks := make([]int, 5)
	flush := true
	for i, card := range cards {
		ranks[i] = card.Rank
		if card.Suit != cards[0].Suit {
			flush = false
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	straightHigh := straightHighCard(ranks)

	if straightHigh > 0 && flush {
		return Rank{StraightFlush, pack(straightHigh)}
	}

	// group ranks by count, then order groups by count desc, rank desc
	counts := make(map[int]int)
	for _, rank := range ranks {
		counts[rank]++
	}

	groups := make([]int, 0, len(counts))
	for rank := range counts {
		groups = append(groups, rank)
	}
	sort.Slice(groups, func(i, j int) bool {
		if counts[groups[i]] != counts[groups[j]] {
			return counts[groups[i]] > counts[groups[j]]
		}

		return groups[i] > groups[j]
	})

	switch counts[groups[0]] {
	case 4:
		return Rank{FourOfAKind, pack(groups[0], groups[1])}
	case 3:
		if counts[groups[1]] == 2 {
			return Rank{FullHouse, pack(groups[0], groups[1])}
		}

		return Rank{ThreeOfAKind, pack(groups[0], groups[1], groups[2])}
	case 2:
		if counts[groups[1]] == 2 {
			return Rank{TwoPair, pack(groups[0], groups[1], groups[2])}
		}

		return Rank{OnePair, pack(groups[0], groups[1], groups[2], groups[3])}
	}

	if flush {
		return Rank{Flush, pack(ranks...)}
	}

	if straightHigh > 0 {
		return Rank{Straight, pack(straightHigh)}
	}

	return Rank{HighCard, pack(ranks...)}
}

// straightHighCard returns the high card of a straight, or 0 if the five
// ranks (sorted descending) do not form one. The wheel (A-2-3-4-5) is the
// lowest straight and returns 5.
func straightHighCard(ranks []int) int {
	for i := 1; i < 5; i++ {
		if ranks[i-1]-ranks[i] != 1 {
			// ace can play low under a 5-high run
			if i == 1 && ranks[0] == deck.Ace && ranks[1] == 5 {
				continue
			}

			return 0
		}
	}

	if ranks[0] == deck.Ace && ranks[1] == 5 {
		return 5
	}

	return ranks[0]
}

// pack encodes up to five ranks as 4-bit nibbles, most significant first
func pack(ranks ...int) int {
	tiebreak := 0
	for i := 0; i < 5; i++ {
		tiebreak <<= 4
		if i < len(ranks) {
			tiebreak |= ranks[i]
		}
	}

	return tiebreak
}
