package giveaway

import (
	"context"
	"fmt"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

// Join adds userID to the giveaway announced by messageID. It reports whether
// the participant set changed; an unknown message is a no-op.
func (s *Service) Join(ctx context.Context, messageID, userID string) (bool, error) {
	return s.mutate(ctx, messageID, userID, dg.Participants.Add)
}

// Leave removes userID from the giveaway announced by messageID.
func (s *Service) Leave(ctx context.Context, messageID, userID string) (bool, error) {
	return s.mutate(ctx, messageID, userID, dg.Participants.Remove)
}

func (s *Service) mutate(ctx context.Context, messageID, userID string, op func(dg.Participants, string) (dg.Participants, bool)) (bool, error) {
	if messageID == "" || userID == "" {
		return false, nil
	}

	// serializes the read-modify-write below per announcement
	unlock, err := s.locker.Lock(ctx, participantLockPrefix+messageID)
	if err != nil {
		return false, fmt.Errorf("lock participants: %w", err)
	}
	defer unlock()

	g, err := s.store.GetGiveawayByMessage(ctx, messageID)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load giveaway: %w", err)
	}

	next, changed := op(g.Participants, userID)
	if !changed {
		return false, nil
	}
	if err := s.store.UpdateParticipants(ctx, messageID, next); err != nil {
		if isNotFound(err) {
			// resolved while we were updating
			return false, nil
		}
		s.log.Error().Err(err).Str("message_id", messageID).Msg("Failed to persist participants")
		return false, fmt.Errorf("update participants: %w", err)
	}
	g.Participants = next

	s.log.Debug().
		Str("giveaway_id", g.ID).
		Str("user_id", userID).
		Int("participants", len(next)).
		Msg("Participants updated")
	s.refreshAnnouncement(ctx, g)
	return true, nil
}

// refreshAnnouncement edits the live participant count. Failures are logged
// only; the stored participant list is authoritative.
func (s *Service) refreshAnnouncement(ctx context.Context, g *dg.Giveaway) {
	log := s.log.With().Str("giveaway_id", g.ID).Str("message_id", g.MessageID).Logger()

	dest, err := s.messenger.ResolveChannel(ctx, g.Scope())
	if err != nil || dest == nil {
		log.Warn().Err(err).Msg("Cannot refresh announcement: channel unavailable")
		return
	}
	ann, err := s.messenger.ResolveAnnouncement(ctx, dest, g.MessageID)
	if err != nil || ann == nil {
		log.Warn().Err(err).Msg("Cannot refresh announcement: message unavailable")
		return
	}
	if err := s.messenger.EditMessage(ctx, ann, RenderCard(g, s.opts.Emoji)); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh announcement")
	}
}
