package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemsim-server/pkg/engine"
)

// snapshotWith builds a three-handed snapshot with the given highest bet.
// Player 1 holds the turn with no chips committed yet this round.
func snapshotWith(highestBet int) *engine.Snapshot {
	turn := int64(1)
	g := &engine.Game{
		ID:                "game-1",
		Status:            engine.StatusActive,
		CurrentRound:      engine.RoundFlop,
		CurrentHighestBet: highestBet,
		CurrentPlayerTurn: &turn,
		Pot:               150,
		HandID:            1,
		SmallBlind:        25,
		BigBlind:          50,
	}

	players := []*engine.Player{
		{ID: 1, GameID: g.ID, Seat: 0, Stack: 1000},
		{ID: 2, GameID: g.ID, Seat: 1, Stack: 1000, CurrentBet: highestBet},
		{ID: 3, GameID: g.ID, Seat: 2, Stack: 1000, HasFolded: true},
	}

	return engine.NewSnapshot(g, players, 1)
}

func decide(t *testing.T, id ID, snap *engine.Snapshot) *Decision {
	t.Helper()

	s, err := New(id, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	d, err := s.Decide(snap, 1)
	require.NoError(t, err)
	return d
}

func TestHuman_Abstains(t *testing.T) {
	assert.Nil(t, decide(t, Human, snapshotWith(100)))
}

func TestCallAny(t *testing.T) {
	assert.Equal(t, &Decision{Type: engine.ActionCheck}, decide(t, CallAny, snapshotWith(0)))
	assert.Equal(t, &Decision{Type: engine.ActionCall}, decide(t, CallAny, snapshotWith(500)))
}

func TestTightCaller(t *testing.T) {
	assert.Equal(t, &Decision{Type: engine.ActionCheck}, decide(t, TightCaller, snapshotWith(0)))
	assert.Equal(t, &Decision{Type: engine.ActionCall}, decide(t, TightCaller, snapshotWith(100)))
	assert.Equal(t, &Decision{Type: engine.ActionFold}, decide(t, TightCaller, snapshotWith(101)))
}

func TestAggressor(t *testing.T) {
	assert.Equal(t, &Decision{Type: engine.ActionBet, Amount: 100}, decide(t, Aggressor, snapshotWith(0)))
	assert.Equal(t, &Decision{Type: engine.ActionRaise, Amount: 150}, decide(t, Aggressor, snapshotWith(100)))

	// cannot cover a legal raise, so call for the rest of the stack
	assert.Equal(t, &Decision{Type: engine.ActionCall}, decide(t, Aggressor, snapshotWith(975)))
}

func TestRandom_Deterministic(t *testing.T) {
	run := func() []*Decision {
		s, err := New(Random, rand.New(rand.NewSource(42)))
		require.NoError(t, err)

		decisions := make([]*Decision, 0, 10)
		for i := 0; i < 10; i++ {
			d, err := s.Decide(snapshotWith(100), 1)
			require.NoError(t, err)
			require.NotNil(t, d)
			decisions = append(decisions, d)
		}
		return decisions
	}

	assert.Equal(t, run(), run())
}

func TestRandom_LegalDecisions(t *testing.T) {
	s, err := New(Random, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		d, err := s.Decide(snapshotWith(100), 1)
		require.NoError(t, err)
		require.NotNil(t, d)

		switch d.Type {
		case engine.ActionFold, engine.ActionCall:
		case engine.ActionRaise:
			assert.Equal(t, 150, d.Amount)
		default:
			t.Fatalf("unexpected decision facing a bet: %s", d.Type)
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(ID("card-counter"), rand.New(rand.NewSource(1)))
	assert.EqualError(t, err, "unknown strategy: card-counter")
}
