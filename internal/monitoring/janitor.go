package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/roshansubedi/apphub-auth/internal/store"
)

// Janitor periodically cleans up verification state: expired codes are
// cleared, and unverified accounts older than the retention window are
// deleted. A retention of 0 disables account deletion.
type Janitor struct {
	store     store.UserStore
	schedule  cron.Schedule
	retention time.Duration
	nextRun   time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewJanitor creates a janitor running on a standard cron expression.
func NewJanitor(st store.UserStore, scheduleExpr string, retention time.Duration) (*Janitor, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", scheduleExpr, err)
	}
	return &Janitor{
		store:     st,
		schedule:  schedule,
		retention: retention,
		done:      make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Msg("starting account janitor")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	// Run once immediately on start
	j.sweep()
	j.nextRun = j.schedule.Next(time.Now())

	for {
		select {
		case <-j.done:
			log.Info().Msg("stopping account janitor")
			return
		case now := <-j.ticker.C:
			if now.After(j.nextRun) {
				j.sweep()
				j.nextRun = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	pruned, err := j.store.PruneExpiredCodes(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("janitor: failed to prune expired verification codes")
	} else if pruned > 0 {
		log.Info().Int64("count", pruned).Msg("janitor: cleared expired verification codes")
	}

	if j.retention <= 0 {
		return
	}
	deleted, err := j.store.DeleteStaleUnverified(ctx, now.Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("janitor: failed to delete stale unverified accounts")
	} else if deleted > 0 {
		log.Info().Int64("count", deleted).Msg("janitor: deleted stale unverified accounts")
	}
}
