package events

import (
	"encoding/json"
	"time"
)

// Type identifies what happened in a game.
type Type string

// event types
const (
	TypeStateUpdated Type = "state-updated"
	TypeHandStarted  Type = "hand-started"
	TypeBetPlaced    Type = "bet-placed"
	TypeCallMade     Type = "call-made"
	TypeCheckMade    Type = "check-made"
	TypeRaiseMade    Type = "raise-made"
	TypePlayerFolded Type = "player-folded"
	TypeShowdown     Type = "showdown"
	TypeGameEnded    Type = "game-ended"
)

// Event is a single game notification. Payload is the redacted game state
// or a type-specific document, depending on the event type.
type Event struct {
	Type         Type            `json:"type"`
	GameID       string          `json:"gameId"`
	LastActionID int64           `json:"lastActionId,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Publisher sends events to whoever is listening on a topic.
type Publisher interface {
	Publish(topic string, event Event)
}
