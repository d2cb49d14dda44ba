package giveaway

import (
	"context"
	"fmt"
	"time"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-bot/internal/metrics"
	"github.com/open-builders/giveaway-bot/internal/utils/random"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

// retireTimeout bounds the archive step. It runs detached from the caller's
// context: once the outcome is sent the record must not stay open.
const retireTimeout = 10 * time.Second

// RerollResult is the outcome of a redraw.
type RerollResult struct {
	GiveawayID string   `json:"giveaway_id"`
	Prize      string   `json:"prize"`
	Winners    []string `json:"winners"`
	Text       string   `json:"text"`
}

// Resolve ends the giveaway id: draw winners, announce them, archive the
// record. Calling it for a record that is already gone is a no-op, which
// makes repeated firings harmless.
//
// A missing channel or announcement deletes the record without sending
// anything. A send failure is logged and the record is archived anyway.
func (s *Service) Resolve(ctx context.Context, id string) error {
	started := time.Now()
	log := s.log.With().Str("giveaway_id", id).Logger()

	g, err := s.store.GetGiveaway(ctx, id)
	if isNotFound(err) {
		log.Debug().Msg("Giveaway already resolved")
		return nil
	}
	if err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("load giveaway: %w", err)
	}

	dest, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (*Destination, error) {
		return s.messenger.ResolveChannel(ctx, g.Scope())
	})
	if err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("resolve channel: %w", err)
	}
	if dest == nil {
		log.Warn().Str("channel_id", g.ChannelID).Err(ErrChannelNotFound).Msg("Dropping giveaway")
		return s.cleanup(ctx, g, started)
	}

	ann, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (*Announcement, error) {
		return s.messenger.ResolveAnnouncement(ctx, dest, g.MessageID)
	})
	if err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("resolve announcement: %w", err)
	}
	if ann == nil {
		log.Warn().Str("message_id", g.MessageID).Err(ErrAnnouncementNotFound).Msg("Dropping giveaway")
		return s.cleanup(ctx, g, started)
	}

	winners, err := random.SampleFrom(s.opts.Random, []string(g.Participants), g.DrawSize())
	if err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("draw winners: %w", err)
	}

	text := OutcomeText(g.Prize, winners)
	if _, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return s.messenger.SendMessage(ctx, dest, text)
	}); err != nil {
		log.Error().Err(err).Msg("Failed to announce giveaway outcome")
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retireTimeout)
	defer cancel()
	if err := s.store.RetireGiveaway(rctx, &dg.Resolved{Giveaway: *g, Winners: winners, ResolvedAt: s.now()}); err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("retire giveaway: %w", err)
	}

	outcome := metrics.OutcomeWinners
	if len(winners) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveResolution(outcome, time.Since(started))
	log.Info().
		Int("participants", len(g.Participants)).
		Strs("winners", winners).
		Msg("Giveaway resolved")
	return nil
}

func (s *Service) cleanup(ctx context.Context, g *dg.Giveaway, started time.Time) error {
	if err := s.store.DeleteGiveaway(ctx, g.ID); err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeError, time.Since(started))
		return fmt.Errorf("delete giveaway: %w", err)
	}
	s.metrics.ObserveResolution(metrics.OutcomeCleanup, time.Since(started))
	return nil
}

// Reroll redraws the winners of the guild's most recently ended giveaway
// and posts them to its channel. History is left untouched, so it can be
// repeated.
func (s *Service) Reroll(ctx context.Context, guildID string) (*RerollResult, error) {
	res, err := s.store.LatestResolved(ctx, guildID)
	if isNotFound(err) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	dest, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (*Destination, error) {
		return s.messenger.ResolveChannel(ctx, res.Scope())
	})
	if err != nil {
		return nil, fmt.Errorf("resolve channel: %w", err)
	}
	if dest == nil {
		return nil, ErrChannelNotFound
	}

	winners, err := random.SampleFrom(s.opts.Random, []string(res.Participants), res.DrawSize())
	if err != nil {
		return nil, fmt.Errorf("draw winners: %w", err)
	}
	text := RerollText(res.Prize, winners)
	if _, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return s.messenger.SendMessage(ctx, dest, text)
	}); err != nil {
		return nil, fmt.Errorf("send reroll: %w", err)
	}

	s.log.Info().
		Str("giveaway_id", res.ID).
		Str("guild_id", guildID).
		Strs("winners", winners).
		Msg("Winners rerolled")
	return &RerollResult{GiveawayID: res.ID, Prize: res.Prize, Winners: winners, Text: text}, nil
}
