package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemsim-server/pkg/engine"
	"holdemsim-server/pkg/store"
)

type fakeJobStore struct {
	jobs      []*store.SimulatorJob
	game      *engine.Game
	players   []*engine.Player
	completed []int64
	retried   []int64
	retryAt   []time.Time
	failed    []int64
	claimErr  error
}

func (f *fakeJobStore) ClaimDue(_ context.Context, limit int, _ time.Duration) ([]*store.SimulatorJob, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}

	if limit > len(f.jobs) {
		limit = len(f.jobs)
	}

	claimed := f.jobs[:limit]
	f.jobs = f.jobs[limit:]
	for _, j := range claimed {
		j.Attempts++
		j.Status = store.JobProcessing
	}

	return claimed, nil
}

func (f *fakeJobStore) CompleteJob(_ context.Context, id int64) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeJobStore) RetryJob(_ context.Context, id int64, _ string, runAt time.Time) error {
	f.retried = append(f.retried, id)
	f.retryAt = append(f.retryAt, runAt)
	return nil
}

func (f *fakeJobStore) FailJob(_ context.Context, id int64, _ string) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeJobStore) GetGame(_ context.Context, _ string) (*engine.Game, error) {
	return f.game, nil
}

func (f *fakeJobStore) GetPlayers(_ context.Context, _ string) ([]*engine.Player, error) {
	return f.players, nil
}

type fakeApplier struct {
	applied []engine.ActionType
	err     error
}

func (f *fakeApplier) ApplyAction(_ context.Context, _ string, _ int64, actionType engine.ActionType, _ int) (*engine.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.applied = append(f.applied, actionType)
	return &engine.Snapshot{}, nil
}

func botGame(config string) (*engine.Game, []*engine.Player) {
	turn := int64(1)
	g := &engine.Game{
		ID:                "game-1",
		Status:            engine.StatusActive,
		CurrentRound:      engine.RoundFlop,
		CurrentPlayerTurn: &turn,
		HandID:            3,
		SmallBlind:        25,
		BigBlind:          50,
		SimulatorConfig:   json.RawMessage(config),
	}

	players := []*engine.Player{
		{ID: 1, GameID: g.ID, Seat: 0, Stack: 1000},
		{ID: 2, GameID: g.ID, Seat: 1, Stack: 1000},
	}

	return g, players
}

func jobFor(playerID, handID int64) *store.SimulatorJob {
	return &store.SimulatorJob{
		ID:       100,
		GameID:   "game-1",
		PlayerID: &playerID,
		HandID:   handID,
		RunAt:    time.Now(),
		Status:   store.JobPending,
	}
}

func TestRunner_AppliesBotDecision(t *testing.T) {
	fs := &fakeJobStore{jobs: []*store.SimulatorJob{jobFor(1, 3)}}
	fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
	applier := &fakeApplier{}

	applied, err := NewRunner(fs, applier, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, applied)
	assert.Equal(t, []engine.ActionType{engine.ActionCheck}, applier.applied)
	assert.Equal(t, []int64{100}, fs.completed)
	assert.Empty(t, fs.retried)
}

func TestRunner_StaleJobCompletesWithoutActing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(g *engine.Game, job *store.SimulatorJob)
	}{
		{"hand moved on", func(g *engine.Game, job *store.SimulatorJob) {
			job.HandID = 2
		}},
		{"turn moved on", func(g *engine.Game, job *store.SimulatorJob) {
			turn := int64(2)
			g.CurrentPlayerTurn = &turn
		}},
		{"game completed", func(g *engine.Game, job *store.SimulatorJob) {
			g.Status = engine.StatusCompleted
		}},
		{"automation paused", func(g *engine.Game, job *store.SimulatorJob) {
			g.SimulatorConfig = json.RawMessage(`{"enabled":true,"paused":true,"defaultStrategy":{"id":"call-any"}}`)
		}},
		{"seat is human", func(g *engine.Game, job *store.SimulatorJob) {
			g.SimulatorConfig = json.RawMessage(`{"enabled":true}`)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			job := jobFor(1, 3)
			fs := &fakeJobStore{jobs: []*store.SimulatorJob{job}}
			fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
			test.setup(fs.game, job)
			applier := &fakeApplier{}

			applied, err := NewRunner(fs, applier, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
			require.NoError(t, err)

			assert.Zero(t, applied)
			assert.Empty(t, applier.applied)
			assert.Equal(t, []int64{100}, fs.completed)
			assert.Empty(t, fs.retried)
			assert.Empty(t, fs.failed)
		})
	}
}

func TestRunner_RejectedDecisionCompletes(t *testing.T) {
	fs := &fakeJobStore{jobs: []*store.SimulatorJob{jobFor(1, 3)}}
	fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
	applier := &fakeApplier{err: engine.ValidationError("it is not your turn")}

	applied, err := NewRunner(fs, applier, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Zero(t, applied)
	assert.Equal(t, []int64{100}, fs.completed)
	assert.Empty(t, fs.retried)
}

func TestRunner_ConflictCompletesWithoutRetry(t *testing.T) {
	fs := &fakeJobStore{jobs: []*store.SimulatorJob{jobFor(1, 3)}}
	fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
	applier := &fakeApplier{err: store.ErrConflict}

	// losing the write race means someone else played the turn; the job
	// is spent, not broken
	applied, err := NewRunner(fs, applier, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Zero(t, applied)
	assert.Equal(t, []int64{100}, fs.completed)
	assert.Empty(t, fs.retried)
	assert.Empty(t, fs.failed)
}

func TestRunner_InfraFailureRetriesWithBackoff(t *testing.T) {
	fs := &fakeJobStore{jobs: []*store.SimulatorJob{jobFor(1, 3)}}
	fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
	applier := &fakeApplier{err: errors.New("connection reset")}

	r := NewRunner(fs, applier, logrus.StandardLogger())
	before := time.Now()
	applied, err := r.ProcessDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Zero(t, applied)
	assert.Empty(t, fs.completed)
	require.Equal(t, []int64{100}, fs.retried)

	// first attempt backs off by the minimum
	delay := fs.retryAt[0].Sub(before)
	assert.GreaterOrEqual(t, delay, time.Second)
	assert.Less(t, delay, 3*time.Second)
}

func TestRunner_ExhaustedAttemptsFail(t *testing.T) {
	job := jobFor(1, 3)
	job.Attempts = 4 // claim bumps it to the limit
	fs := &fakeJobStore{jobs: []*store.SimulatorJob{job}}
	fs.game, fs.players = botGame(`{"enabled":true,"seed":42,"defaultStrategy":{"id":"call-any"}}`)
	applier := &fakeApplier{err: errors.New("connection reset")}

	_, err := NewRunner(fs, applier, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{100}, fs.failed)
	assert.Empty(t, fs.retried)
}

func TestRunner_ClaimErrorPropagates(t *testing.T) {
	fs := &fakeJobStore{claimErr: errors.New("database is down")}

	_, err := NewRunner(fs, &fakeApplier{}, logrus.StandardLogger()).ProcessDue(context.Background(), 10)
	assert.EqualError(t, err, "database is down")
}

func TestRunner_BackoffGrows(t *testing.T) {
	r := NewRunner(&fakeJobStore{}, &fakeApplier{}, logrus.StandardLogger())

	assert.Equal(t, time.Second, r.backoff.ForAttempt(0))
	assert.Equal(t, 2*time.Second, r.backoff.ForAttempt(1))
	assert.Equal(t, 4*time.Second, r.backoff.ForAttempt(2))
	assert.Equal(t, time.Minute, r.backoff.ForAttempt(10))
}
