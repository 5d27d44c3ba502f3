package simulator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"

	"holdemsim-server/pkg/engine"
	"holdemsim-server/pkg/store"
	"holdemsim-server/pkg/strategy"
)

// claim and retry defaults
const (
	defaultLease       = 30 * time.Second
	defaultMaxAttempts = 5
)

// JobStore is what the runner needs from persistence
type JobStore interface {
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]*store.SimulatorJob, error)
	CompleteJob(ctx context.Context, id int64) error
	RetryJob(ctx context.Context, id int64, jobErr string, runAt time.Time) error
	FailJob(ctx context.Context, id int64, jobErr string) error
	GetGame(ctx context.Context, id string) (*engine.Game, error)
	GetPlayers(ctx context.Context, gameID string) ([]*engine.Player, error)
}

// ActionApplier feeds a bot decision back through the betting engine, which
// re-validates it exactly as it would a human action.
type ActionApplier interface {
	ApplyAction(ctx context.Context, gameID string, playerID int64, actionType engine.ActionType, amount int) (*engine.Snapshot, error)
}

// Runner claims due simulator jobs and plays the bot turns they represent.
// A successful bot action re-enqueues the next bot's job through the dealer,
// so an all-bot game keeps itself moving as long as something periodically
// calls ProcessDue.
type Runner struct {
	store       JobStore
	dealer      ActionApplier
	logger      logrus.FieldLogger
	lease       time.Duration
	maxAttempts int
	backoff     *backoff.Backoff
}

// NewRunner returns a new Runner
func NewRunner(s JobStore, dealer ActionApplier, logger logrus.FieldLogger) *Runner {
	return &Runner{
		store:       s,
		dealer:      dealer,
		logger:      logger,
		lease:       defaultLease,
		maxAttempts: defaultMaxAttempts,
		backoff: &backoff.Backoff{
			Min:    time.Second,
			Max:    time.Minute,
			Factor: 2,
		},
	}
}

// ProcessDue claims up to limit due jobs and processes each one. It returns
// the number of jobs that resulted in an applied action. A job that turned
// out to be stale completes without error; only infrastructure failures
// count against a job's attempts.
func (r *Runner) ProcessDue(ctx context.Context, limit int) (int, error) {
	jobs, err := r.store.ClaimDue(ctx, limit, r.lease)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, job := range jobs {
		ok, err := r.process(ctx, job)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"jobId":  job.ID,
				"gameId": job.GameID,
			}).Warn("simulator job failed")
			r.retryOrFail(ctx, job, err)
			continue
		}

		if err := r.store.CompleteJob(ctx, job.ID); err != nil {
			r.logger.WithError(err).WithField("jobId", job.ID).Error("could not complete job")
		}

		if ok {
			applied++
		}
	}

	return applied, nil
}

// Run processes due jobs on the interval until the context is canceled
func (r *Runner) Run(ctx context.Context, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := r.ProcessDue(ctx, limit); err != nil {
			r.logger.WithError(err).Error("could not process due jobs")
		}
	}
}

// process plays one claimed job. It returns true if an action was applied,
// and false with a nil error when the job is stale or abstained.
func (r *Runner) process(ctx context.Context, job *store.SimulatorJob) (bool, error) {
	if job.PlayerID == nil {
		return false, nil
	}
	playerID := *job.PlayerID

	g, err := r.store.GetGame(ctx, job.GameID)
	if err != nil {
		return false, err
	}

	// the world may have moved on since this job was enqueued
	if g.Status != engine.StatusActive || g.HandID != job.HandID {
		return false, nil
	}

	if g.CurrentPlayerTurn == nil || *g.CurrentPlayerTurn != playerID {
		return false, nil
	}

	cfg, err := strategy.ParseConfig(g.SimulatorConfig)
	if err != nil {
		return false, err
	}

	if !cfg.Automated(playerID) {
		return false, nil
	}

	players, err := r.store.GetPlayers(ctx, job.GameID)
	if err != nil {
		return false, err
	}

	strat, err := strategy.New(cfg.ForPlayer(playerID), r.rand(cfg, g, playerID))
	if err != nil {
		return false, err
	}

	snap := engine.NewSnapshot(g, players, playerID)
	decision, err := strat.Decide(snap, playerID)
	if err != nil {
		return false, err
	}

	if decision == nil {
		return false, nil
	}

	if _, err := r.dealer.ApplyAction(ctx, job.GameID, playerID, decision.Type, decision.Amount); err != nil {
		// a rejected decision or a lost write race both mean the turn is
		// no longer ours to play; the winner scheduled any follow-up job
		var validation engine.ValidationError
		if errors.As(err, &validation) || errors.Is(err, store.ErrConflict) {
			r.logger.WithField("jobId", job.ID).WithError(err).Info("bot decision rejected")
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// retryOrFail schedules another attempt with growing delay, or marks the job
// failed once its attempts are spent
func (r *Runner) retryOrFail(ctx context.Context, job *store.SimulatorJob, jobErr error) {
	if job.Attempts >= r.maxAttempts {
		if err := r.store.FailJob(ctx, job.ID, jobErr.Error()); err != nil {
			r.logger.WithError(err).WithField("jobId", job.ID).Error("could not fail job")
		}

		return
	}

	runAt := time.Now().Add(r.backoff.ForAttempt(float64(job.Attempts)))
	if err := r.store.RetryJob(ctx, job.ID, jobErr.Error(), runAt); err != nil {
		r.logger.WithError(err).WithField("jobId", job.ID).Error("could not schedule job retry")
	}
}

// rand derives the strategy's random source. With a configured seed the
// source depends only on the seed and the decision point, so replays are
// reproducible.
func (r *Runner) rand(cfg *strategy.Config, g *engine.Game, playerID int64) *rand.Rand {
	if cfg.Seed == 0 {
		return cfg.Rand()
	}

	seed := cfg.Seed ^ (g.HandID << 24) ^ (playerID << 8) ^ int64(len(g.CommunityCards))
	return rand.New(rand.NewSource(seed))
}
