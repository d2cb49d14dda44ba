package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
)

// Reaction actions published for entry emoji changes.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

const publishTimeout = 5 * time.Second

// SignalPublisher forwards a participant signal to the signal stream.
type SignalPublisher interface {
	Publish(ctx context.Context, messageID, userID, action string) error
}

// Bot owns the gateway session and turns entry reactions into signals.
type Bot struct {
	Session   *discordgo.Session
	Messenger *Messenger

	emoji     string
	publisher SignalPublisher
	log       zerolog.Logger
}

func NewBot(token, emoji string, color int, publisher SignalPublisher) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessageReactions

	b := &Bot{
		Session:   s,
		Messenger: NewMessenger(s, emoji, color),
		emoji:     emoji,
		publisher: publisher,
		log:       logger.Component("discord"),
	}
	s.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		b.onReaction(botUserID(s), r.MessageReaction, r.Member, ActionAdded)
	})
	s.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		// remove events carry no member; fall back to the state cache
		b.onReaction(botUserID(s), r.MessageReaction, cachedMember(s, r.GuildID, r.UserID), ActionRemoved)
	})
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord session ready")
	})
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.Session.Close()
}

func botUserID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

func cachedMember(s *discordgo.Session, guildID, userID string) *discordgo.Member {
	if s == nil || s.State == nil || guildID == "" {
		return nil
	}
	m, err := s.State.Member(guildID, userID)
	if err != nil {
		return nil
	}
	return m
}

// onReaction publishes a signal for entry-emoji reactions of real users.
// member may be nil when the event does not carry it.
func (b *Bot) onReaction(botID string, r *discordgo.MessageReaction, member *discordgo.Member, action string) {
	if r == nil || r.UserID == "" || r.UserID == botID {
		return
	}
	if member != nil && member.User != nil && member.User.Bot {
		return
	}
	if r.Emoji.Name != b.emoji {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.publisher.Publish(ctx, r.MessageID, r.UserID, action); err != nil {
		b.log.Error().
			Err(err).
			Str("message_id", r.MessageID).
			Str("user_id", r.UserID).
			Str("action", action).
			Msg("Failed to publish reaction signal")
	}
}
