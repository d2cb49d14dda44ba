package giveaway

import (
	"context"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

// Destination is a resolved channel messages can be sent to.
type Destination struct {
	GuildID   string
	ChannelID string
}

// Announcement is the live message representing an open giveaway.
type Announcement struct {
	ChannelID string
	MessageID string
}

// Card is the presentation-neutral content of an announcement.
type Card struct {
	Title       string
	Description string
}

// Messenger is the chat platform as seen by the giveaway core.
//
// ResolveChannel and ResolveAnnouncement return (nil, nil) when the target no
// longer exists; an error means the lookup itself failed. Implementations mark
// retryable failures with retry.Transient.
type Messenger interface {
	ResolveChannel(ctx context.Context, scope dg.Scope) (*Destination, error)
	ResolveAnnouncement(ctx context.Context, dest *Destination, messageID string) (*Announcement, error)
	SendMessage(ctx context.Context, dest *Destination, text string) (string, error)
	EditMessage(ctx context.Context, a *Announcement, card Card) error
	PostAnnouncement(ctx context.Context, dest *Destination, card Card) (string, error)
}

// Locker serializes work on a key, possibly across processes.
type Locker interface {
	// Lock waits for key until ctx is done.
	Lock(ctx context.Context, key string) (unlock func(), err error)
	// TryLock fails immediately when key is held.
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}
