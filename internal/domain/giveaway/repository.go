package giveaway

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("giveaway not found")

// Store persists open giveaways and the short-lived resolved history.
// Implementations must be durable across restarts.
type Store interface {
	// CreateGiveaway assigns an id to g, persists it and returns the id.
	CreateGiveaway(ctx context.Context, g *Giveaway) (string, error)
	GetGiveaway(ctx context.Context, id string) (*Giveaway, error)
	GetGiveawayByMessage(ctx context.Context, messageID string) (*Giveaway, error)
	ListOpenGiveaways(ctx context.Context) ([]*Giveaway, error)
	UpdateParticipants(ctx context.Context, messageID string, participants Participants) error
	DeleteGiveaway(ctx context.Context, id string) error

	// RetireGiveaway atomically moves a resolved giveaway into history and
	// removes it from the open set.
	RetireGiveaway(ctx context.Context, r *Resolved) error
	// LatestResolved returns the history entry with the greatest EndsAt for a guild.
	LatestResolved(ctx context.Context, guildID string) (*Resolved, error)
	PurgeResolvedBefore(ctx context.Context, before time.Time) (int64, error)

	Ping(ctx context.Context) error
}

// Lists stores the auxiliary allowlist and blocked-word list.
type Lists interface {
	AddAllowed(ctx context.Context, userID string) error
	RemoveAllowed(ctx context.Context, userID string) error
	IsAllowed(ctx context.Context, userID string) (bool, error)
	ListAllowed(ctx context.Context) ([]string, error)

	AddBlockedWord(ctx context.Context, word string) error
	RemoveBlockedWord(ctx context.Context, word string) error
	ListBlockedWords(ctx context.Context) ([]string, error)
}
