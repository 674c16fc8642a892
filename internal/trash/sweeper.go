package trash

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is the retention job: on a fixed interval it permanently purges
// never-recovered ledger entries older than the retention window, across all
// workspaces. It bypasses the service's admin check by talking to the
// repository directly; it is process-internal, not a caller.
type Sweeper struct {
	repo      Repository
	retention time.Duration
	interval  time.Duration
	clock     func() time.Time
	log       *slog.Logger
}

func NewSweeper(repo Repository, retention, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		repo:      repo,
		retention: retention,
		interval:  interval,
		clock:     time.Now,
		log:       log,
	}
}

// Run blocks until ctx is canceled. One sweep runs immediately on start so a
// long-down instance catches up without waiting a full interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.clock().UTC().Add(-s.retention)
	n, err := s.repo.Purge(ctx, "", cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("trash retention sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.log.Info("trash retention sweep", "purged", n, "cutoff", cutoff)
	}
}
