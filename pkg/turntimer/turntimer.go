package turntimer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TurnKey identifies a single player turn within a hand.
type TurnKey struct {
	GameID   string
	HandID   int64
	PlayerID int64
}

// Token proves ownership of an armed timer.
type Token int64

type armed struct {
	token Token
	timer *time.Timer
}

// Coordinator arms at most one timeout per turn. Many observers may see the
// same turn start; only the first call to Observe arms a timer, so the
// timeout fires exactly once no matter how many observers raced.
type Coordinator struct {
	logger logrus.FieldLogger
	mu     sync.Mutex
	timers map[TurnKey]*armed
	next   Token
}

// New returns a new Coordinator.
func New(logger logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		logger: logger,
		timers: make(map[TurnKey]*armed),
	}
}

// Observe registers interest in a turn. The first observer arms a timer that
// calls fire after d and is returned an owning token with ok=true. Later
// observers for the same key get the existing token with ok=false.
func (c *Coordinator) Observe(key TurnKey, d time.Duration, fire func()) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, found := c.timers[key]; found {
		return a.token, false
	}

	c.next++
	token := c.next
	a := &armed{token: token}
	a.timer = time.AfterFunc(d, func() {
		if !c.release(key, token) {
			return
		}

		c.logger.WithFields(logrus.Fields{
			"gameId":   key.GameID,
			"handId":   key.HandID,
			"playerId": key.PlayerID,
		}).Info("turn timed out")
		fire()
	})
	c.timers[key] = a

	return token, true
}

// Cancel stops the timer for the key if token still owns it.
func (c *Coordinator) Cancel(key TurnKey, token Token) {
	c.release(key, token)
}

// Resolve stops any timer for the key. Call it when the turn changes for any
// reason so a stale timeout cannot fire.
func (c *Coordinator) Resolve(key TurnKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, found := c.timers[key]; found {
		a.timer.Stop()
		delete(c.timers, key)
	}
}

// Armed returns true if a timer is outstanding for the key.
func (c *Coordinator) Armed(key TurnKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, found := c.timers[key]
	return found
}

// release removes the key if token owns it, returning true if it did.
func (c *Coordinator) release(key TurnKey, token Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, found := c.timers[key]
	if !found || a.token != token {
		return false
	}

	a.timer.Stop()
	delete(c.timers, key)
	return true
}
