package engine

import (
	"encoding/json"
	"time"

	"holdemsim-server/pkg/deck"
)

// Status is the lifecycle state of a game
type Status string

// statuses a game moves through
const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Round is a betting phase within a hand
type Round string

// rounds in play order
const (
	RoundPreFlop  Round = "pre-flop"
	RoundFlop     Round = "flop"
	RoundTurn     Round = "turn"
	RoundRiver    Round = "river"
	RoundShowdown Round = "showdown"
)

// Next returns the round that follows, or false if the round is showdown
func (r Round) Next() (Round, bool) {
	switch r {
	case RoundPreFlop:
		return RoundFlop, true
	case RoundFlop:
		return RoundTurn, true
	case RoundTurn:
		return RoundRiver, true
	case RoundRiver:
		return RoundShowdown, true
	}

	return r, false
}

// CommunityCount returns how many community cards are on the board during the round
func (r Round) CommunityCount() int {
	switch r {
	case RoundPreFlop:
		return 0
	case RoundFlop:
		return 3
	case RoundTurn:
		return 4
	case RoundRiver, RoundShowdown:
		return 5
	}

	return 0
}

// ActionType is a kind of betting action
type ActionType string

// action types recorded in the action log
const (
	ActionBet     ActionType = "bet"
	ActionCheck   ActionType = "check"
	ActionCall    ActionType = "call"
	ActionRaise   ActionType = "raise"
	ActionFold    ActionType = "fold"
	ActionTimeout ActionType = "timeout"
)

// Game is the authoritative state of a single table
type Game struct {
	ID                string `json:"id"`
	Status            Status `json:"status"`
	CurrentRound      Round  `json:"currentRound"`
	CurrentHighestBet int    `json:"currentHighestBet"`
	// CurrentPlayerTurn is nil when no hand is active or the hand reached showdown
	CurrentPlayerTurn *int64          `json:"currentPlayerTurn"`
	Pot               int             `json:"pot"`
	CommunityCards    deck.Hand       `json:"communityCards"`
	HandID            int64           `json:"handId"`
	DealerSeat        int             `json:"dealerSeat"`
	SmallBlind        int             `json:"smallBlind"`
	BigBlind          int             `json:"bigBlind"`
	SimulatorConfig   json.RawMessage `json:"simulatorConfig,omitempty"`
}

// Player is a seated player's state within a game
type Player struct {
	ID        int64     `json:"id"`
	GameID    string    `json:"gameId"`
	Seat      int       `json:"seat"`
	Stack     int       `json:"stack"`
	HoleCards deck.Hand `json:"holeCards,omitempty"`
	// CurrentBet is this round's contribution, reset to zero each new round
	CurrentBet int `json:"currentBet"`
	// HandContribution is the chips this player has moved into the pot this hand
	HandContribution int  `json:"handContribution"`
	HasFolded        bool `json:"hasFolded"`
	// HasActed is cleared at the start of each round and whenever the bet is raised
	HasActed    bool `json:"hasActed"`
	IsConnected bool `json:"isConnected"`
}

// CanAct returns true if the player can still make a betting decision
func (p *Player) CanAct() bool {
	return !p.HasFolded && p.Stack > 0
}

// IsAllIn returns true if the player is still in the hand with no chips behind
func (p *Player) IsAllIn() bool {
	return !p.HasFolded && p.Stack == 0 && p.HandContribution+p.CurrentBet > 0
}

// Action is one row in the append-only action log
type Action struct {
	ID        int64      `json:"id"`
	GameID    string     `json:"gameId"`
	PlayerID  int64      `json:"playerId"`
	Type      ActionType `json:"actionType"`
	Amount    int        `json:"amount"`
	CreatedAt time.Time  `json:"createdAt"`
}
