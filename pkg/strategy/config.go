package strategy

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// delay defaults, in milliseconds
const (
	defaultMinDelayMs = 500
	defaultMaxDelayMs = 2000
)

// StrategyConfig names a strategy for a seat
type StrategyConfig struct {
	ID     ID              `json:"id"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Delays controls how long a bot waits before acting
type Delays struct {
	MinMs           int     `json:"minMs"`
	MaxMs           int     `json:"maxMs"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
}

// Config is the simulator configuration stored with a game
type Config struct {
	Enabled         bool                     `json:"enabled"`
	Paused          bool                     `json:"paused"`
	Seed            int64                    `json:"seed,omitempty"`
	DefaultStrategy *StrategyConfig          `json:"defaultStrategy,omitempty"`
	PerSeatStrategy map[int64]StrategyConfig `json:"perSeatStrategy,omitempty"`
	Delays          *Delays                  `json:"delays,omitempty"`
}

// ParseConfig validates raw simulator configuration. An empty document yields
// a disabled config.
func ParseConfig(raw json.RawMessage) (*Config, error) {
	cfg := &Config{}
	if len(raw) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("could not parse simulator config: %w", err)
	}

	if cfg.DefaultStrategy != nil && !cfg.DefaultStrategy.ID.Valid() {
		return nil, fmt.Errorf("unknown strategy: %s", cfg.DefaultStrategy.ID)
	}

	for playerID, sc := range cfg.PerSeatStrategy {
		if !sc.ID.Valid() {
			return nil, fmt.Errorf("unknown strategy for player %d: %s", playerID, sc.ID)
		}
	}

	if d := cfg.Delays; d != nil {
		if d.MinMs < 0 || d.MaxMs < d.MinMs {
			return nil, fmt.Errorf("invalid delay window: min=%d max=%d", d.MinMs, d.MaxMs)
		}

		if d.SpeedMultiplier < 0 {
			return nil, fmt.Errorf("invalid speed multiplier: %f", d.SpeedMultiplier)
		}
	}

	return cfg, nil
}

// ForPlayer resolves the strategy ID for a player, falling back to the
// default strategy and finally to Human.
func (c *Config) ForPlayer(playerID int64) ID {
	if sc, found := c.PerSeatStrategy[playerID]; found {
		return sc.ID
	}

	if c.DefaultStrategy != nil {
		return c.DefaultStrategy.ID
	}

	return Human
}

// Automated returns true if the simulator should act for the player
func (c *Config) Automated(playerID int64) bool {
	return c.Enabled && !c.Paused && c.ForPlayer(playerID) != Human
}

// Delay picks the wait before a bot acts, drawn uniformly from the
// configured window and divided by the speed multiplier.
func (c *Config) Delay(rng *rand.Rand) time.Duration {
	minMs, maxMs := defaultMinDelayMs, defaultMaxDelayMs
	multiplier := 1.0
	if d := c.Delays; d != nil {
		if d.MaxMs > 0 {
			minMs, maxMs = d.MinMs, d.MaxMs
		}

		if d.SpeedMultiplier > 0 {
			multiplier = d.SpeedMultiplier
		}
	}

	ms := minMs
	if maxMs > minMs {
		ms += rng.Intn(maxMs - minMs + 1)
	}

	return time.Duration(float64(ms)/multiplier) * time.Millisecond
}

// Rand returns a deterministic random source when a seed is configured, and
// a time-seeded one otherwise.
func (c *Config) Rand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewSource(seed))
}
