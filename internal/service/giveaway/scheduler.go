package giveaway

import (
	"context"
	"sync"
	"time"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

// Start reconciles every open giveaway and then sweeps every SweepInterval
// until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Dur("sweep_interval", s.opts.SweepInterval).Msg("Starting giveaway scheduler")
	if err := s.ReconcileAll(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Initial reconcile failed")
	}

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop cancels pending timers and waits for running resolutions.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, a := range s.timers {
		a.t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.log.Info().Msg("Stopping giveaway scheduler")
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("Giveaway scheduler stopped")
}

func (s *Service) sweep() {
	if err := s.ReconcileAll(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Sweep failed")
	}

	cutoff := s.now().Add(-s.opts.HistoryRetention)
	n, err := s.store.PurgeResolvedBefore(s.ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to purge giveaway history")
		return
	}
	if n > 0 {
		s.log.Info().Int64("purged", n).Time("before", cutoff).Msg("Purged giveaway history")
	}
}

// Arm schedules resolution of g at g.EndsAt, replacing any timer already
// armed for the same id. A deadline in the past fires immediately.
func (s *Service) Arm(g *dg.Giveaway) {
	d := g.EndsAt.Sub(s.now())
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.timers[g.ID]; ok {
		prev.t.Stop()
	}
	s.gen++
	id, gen := g.ID, s.gen
	s.timers[id] = armedTimer{t: time.AfterFunc(d, func() { s.fire(id, gen) }), gen: gen}
}

// Armed reports how many timers are pending.
func (s *Service) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Service) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.timers[id]; ok {
		a.t.Stop()
		delete(s.timers, id)
	}
}

func (s *Service) fire(id string, gen uint64) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if a, ok := s.timers[id]; ok && a.gen == gen {
		delete(s.timers, id)
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	select {
	case s.sem <- struct{}{}:
	case <-s.ctx.Done():
		return
	}
	defer func() { <-s.sem }()
	s.resolveGuarded(s.ctx, id)
}

// ReconcileAll arms every pending giveaway and resolves every overdue one,
// returning once those resolutions have finished.
func (s *Service) ReconcileAll(ctx context.Context) error {
	list, err := s.store.ListOpenGiveaways(ctx)
	s.metrics.ObserveSweep(len(list), err)
	if err != nil {
		return err
	}

	now := s.now()
	var (
		wg      sync.WaitGroup
		overdue int
	)
loop:
	for _, g := range list {
		if !g.Overdue(now) {
			s.Arm(g)
			continue
		}
		s.disarm(g.ID)

		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		overdue++
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer func() { <-s.sem }()
			s.resolveGuarded(ctx, id)
		}(g.ID)
	}
	wg.Wait()

	s.log.Debug().Int("open", len(list)).Int("overdue", overdue).Msg("Reconciled giveaways")
	return ctx.Err()
}

// resolveGuarded runs Resolve unless the same id is already being resolved
// by this process or, through the locker, by another one.
func (s *Service) resolveGuarded(ctx context.Context, id string) {
	if _, busy := s.inflight.LoadOrStore(id, struct{}{}); busy {
		return
	}
	defer s.inflight.Delete(id)

	unlock, err := s.locker.TryLock(ctx, resolveLockPrefix+id)
	if err != nil {
		s.log.Debug().Err(err).Str("giveaway_id", id).Msg("Resolution lock not acquired")
		return
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ResolutionTimeout)
	defer cancel()
	if err := s.Resolve(ctx, id); err != nil {
		s.log.Error().Err(err).Str("giveaway_id", id).Msg("Failed to resolve giveaway")
	}
}
