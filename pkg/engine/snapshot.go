package engine

import (
	"encoding/json"

	"holdemsim-server/pkg/deck"
)

// Snapshot is an immutable, read-only projection of a game used by
// strategies and clients. Hole cards other than the viewer's are redacted.
type Snapshot struct {
	GameID            string           `json:"gameId"`
	Status            Status           `json:"status"`
	CurrentRound      Round            `json:"currentRound"`
	CurrentHighestBet int              `json:"currentHighestBet"`
	CurrentPlayerTurn *int64           `json:"currentPlayerTurn"`
	Pot               int              `json:"pot"`
	CommunityCards    deck.Hand        `json:"communityCards"`
	HandID            int64            `json:"handId"`
	DealerSeat        int              `json:"dealerSeat"`
	SmallBlind        int              `json:"smallBlind"`
	BigBlind          int              `json:"bigBlind"`
	SimulatorConfig   json.RawMessage  `json:"simulatorConfig,omitempty"`
	Players           []SnapshotPlayer `json:"players"`
}

// SnapshotPlayer is a player's public state within a snapshot
type SnapshotPlayer struct {
	ID          int64     `json:"id"`
	Seat        int       `json:"seat"`
	Stack       int       `json:"stack"`
	HoleCards   deck.Hand `json:"holeCards,omitempty"`
	CurrentBet  int       `json:"currentBet"`
	HasFolded   bool      `json:"hasFolded"`
	IsConnected bool      `json:"isConnected"`
}

// NewSnapshot builds a snapshot for the viewer. A viewer of 0 sees no hole
// cards at all.
func NewSnapshot(g *Game, players []*Player, viewerID int64) *Snapshot {
	snap := &Snapshot{
		GameID:            g.ID,
		Status:            g.Status,
		CurrentRound:      g.CurrentRound,
		CurrentHighestBet: g.CurrentHighestBet,
		Pot:               g.Pot,
		CommunityCards:    g.CommunityCards.Clone(),
		HandID:            g.HandID,
		DealerSeat:        g.DealerSeat,
		SmallBlind:        g.SmallBlind,
		BigBlind:          g.BigBlind,
		SimulatorConfig:   g.SimulatorConfig,
		Players:           make([]SnapshotPlayer, 0, len(players)),
	}

	if g.CurrentPlayerTurn != nil {
		turn := *g.CurrentPlayerTurn
		snap.CurrentPlayerTurn = &turn
	}

	for _, p := range seatOrder(players) {
		sp := SnapshotPlayer{
			ID:          p.ID,
			Seat:        p.Seat,
			Stack:       p.Stack,
			CurrentBet:  p.CurrentBet,
			HasFolded:   p.HasFolded,
			IsConnected: p.IsConnected,
		}

		if p.ID == viewerID {
			sp.HoleCards = p.HoleCards.Clone()
		}

		snap.Players = append(snap.Players, sp)
	}

	return snap
}

// Viewer returns the snapshot player for the given ID, or nil
func (s *Snapshot) Viewer(playerID int64) *SnapshotPlayer {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return &s.Players[i]
		}
	}

	return nil
}

// ToCall returns how many chips the player must add to match the current bet
func (s *Snapshot) ToCall(playerID int64) int {
	p := s.Viewer(playerID)
	if p == nil {
		return 0
	}

	shortfall := s.CurrentHighestBet - p.CurrentBet
	if shortfall < 0 {
		return 0
	}

	return shortfall
}
